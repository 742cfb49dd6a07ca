package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"schedule-agent/core/constants"
	"schedule-agent/core/logger"
	"schedule-agent/core/queue"
	"schedule-agent/core/utils"
	"schedule-agent/modules/notification/dto"
	"schedule-agent/modules/notification/entity"
	"schedule-agent/modules/notification/repository"

	"github.com/hibiken/asynq"
)

// Sender delivers one email.
type Sender interface {
	Send(ctx context.Context, msg utils.EmailMessage) error
}

// SMTPSender sends through utils.SendEmailTLS.
type SMTPSender struct {
	conf utils.EmailConfig
}

func NewSMTPSender(conf utils.EmailConfig) *SMTPSender {
	return &SMTPSender{conf: conf}
}

func (s *SMTPSender) Send(ctx context.Context, msg utils.EmailMessage) error {
	return utils.SendEmailTLS(ctx, s.conf, msg)
}

type NotificationService struct {
	repo    *repository.NotificationRepository
	sender  Sender
	queue   queue.Enqueuer
	timeout time.Duration
}

// NewNotificationService delivers inline when q is nil, otherwise it
// records the email and hands delivery to the email:send worker.
func NewNotificationService(repo *repository.NotificationRepository, sender Sender, q queue.Enqueuer) *NotificationService {
	return &NotificationService{
		repo:    repo,
		sender:  sender,
		queue:   q,
		timeout: constants.NotificationTimeout,
	}
}

// Send records the email and delivers or enqueues it. A queued email
// counts as success.
func (s *NotificationService) Send(ctx context.Context, to, subject, body string) error {
	if !utils.IsValidEmail(to) {
		return fmt.Errorf("invalid recipient %q", to)
	}

	n := &entity.Notification{
		ID:        utils.GenerateID(),
		Recipient: strings.TrimSpace(to),
		Subject:   subject,
		Body:      body,
		Status:    entity.StatusQueued,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("record notification: %w", err)
	}

	if s.queue != nil {
		taskID, err := s.queue.Enqueue(ctx, queue.TaskSendEmail, dto.SendEmailPayload{NotificationID: n.ID},
			asynq.MaxRetry(5), asynq.Timeout(s.timeout))
		if err == nil {
			logger.Info("NotificationService:Send:Queued", "notification_id", n.ID, "task_id", taskID)
			return nil
		}
		logger.Warn("NotificationService:Send:EnqueueFailed", "notification_id", n.ID, "error", err)
	}

	return s.deliver(ctx, n)
}

// Deliver sends a recorded notification. It is the email:send task handler body.
func (s *NotificationService) Deliver(ctx context.Context, id string) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n == nil {
		return fmt.Errorf("notification %s not found: %w", id, asynq.SkipRetry)
	}
	if n.Status == entity.StatusSent {
		return nil
	}
	return s.deliver(ctx, n)
}

// HandleSendEmailTask adapts Deliver to asynq.
func (s *NotificationService) HandleSendEmailTask(ctx context.Context, task *asynq.Task) error {
	var payload dto.SendEmailPayload
	if err := queue.Decode(task, &payload); err != nil {
		return err
	}
	return s.Deliver(ctx, payload.NotificationID)
}

func (s *NotificationService) deliver(ctx context.Context, n *entity.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	sendErr := s.sender.Send(ctx, utils.EmailMessage{
		To:      []string{n.Recipient},
		Subject: n.Subject,
		Body:    n.Body,
	})

	status, lastError := entity.StatusSent, ""
	if sendErr != nil {
		status, lastError = entity.StatusFailed, sendErr.Error()
	}
	// The attempt is recorded even when the caller's context has expired.
	if err := s.repo.MarkAttempt(context.WithoutCancel(ctx), n.ID, status, lastError); err != nil {
		logger.Warn("NotificationService:Deliver:MarkAttempt:Error", "notification_id", n.ID, "error", err)
	}

	if sendErr != nil {
		logger.Error("NotificationService:Deliver:Failed", "notification_id", n.ID, "recipient", n.Recipient, "error", sendErr)
		return sendErr
	}
	logger.Info("NotificationService:Deliver:Sent", "notification_id", n.ID, "recipient", n.Recipient)
	return nil
}

func (s *NotificationService) ListByRecipient(ctx context.Context, recipient string, limit int) ([]entity.Notification, error) {
	return s.repo.ListByRecipient(ctx, strings.TrimSpace(recipient), limit)
}
