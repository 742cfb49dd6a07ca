package media

import (
	"schedule-agent/core/config"
	"schedule-agent/core/logger"
	"schedule-agent/modules/media/controller"
	"schedule-agent/modules/media/router"
	"schedule-agent/modules/media/service"

	"github.com/labstack/echo/v4"
)

// Init registers the upload endpoint when a storage bucket is configured.
func Init(g *echo.Group, cfg *config.Config) *service.MediaService {
	if cfg.Storage.Bucket == "" {
		logger.Info("Media:Init:Disabled", "reason", "storage.bucket is empty")
		return nil
	}
	client := service.NewS3Client(service.StorageConfig{
		Bucket:          cfg.Storage.Bucket,
		Region:          cfg.Storage.Region,
		Endpoint:        cfg.Storage.Endpoint,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		PublicBaseURL:   cfg.Storage.PublicBaseURL,
	})
	media := service.NewMediaService(client, cfg.Storage.Bucket, cfg.Storage.PublicBaseURL)
	router.NewMediaRouter(controller.NewMediaController(media)).Register(g)
	return media
}
