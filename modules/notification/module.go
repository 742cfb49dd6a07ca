package notification

import (
	"schedule-agent/core/config"
	"schedule-agent/core/database"
	"schedule-agent/core/logger"
	"schedule-agent/core/queue"
	"schedule-agent/core/utils"
	"schedule-agent/modules/notification/controller"
	"schedule-agent/modules/notification/repository"
	"schedule-agent/modules/notification/router"
	"schedule-agent/modules/notification/service"

	"github.com/labstack/echo/v4"
)

// Init returns nil when SMTP is not configured.
func Init(g *echo.Group, db database.Database, cfg *config.Config, q queue.Enqueuer) *service.NotificationService {
	if !cfg.EmailEnabled() {
		logger.Warn("Notification:Init:Disabled", "reason", "email.host or email.from not set")
		return nil
	}

	repo := repository.NewNotificationRepository(db)
	sender := service.NewSMTPSender(*utils.GetEmailConfig())
	svc := service.NewNotificationService(repo, sender, q)
	ctrl := controller.NewNotificationController(svc)

	router.NewNotificationRouter(ctrl).Register(g)

	return svc
}
