package dto

import "schedule-agent/modules/notification/entity"

// SendEmailPayload is the asynq payload of queue.TaskSendEmail.
type SendEmailPayload struct {
	NotificationID string `json:"notificationId"`
}

type NotificationListResponse struct {
	Recipient     string                `json:"recipient"`
	Notifications []entity.Notification `json:"notifications"`
}
