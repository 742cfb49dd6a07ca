package controller

import (
	"schedule-agent/core/controller"
	"schedule-agent/core/errors"
	"schedule-agent/core/logger"
	"schedule-agent/modules/media/service"

	"github.com/labstack/echo/v4"
)

type MediaController struct {
	controller.BaseController
	media *service.MediaService
}

func NewMediaController(media *service.MediaService) *MediaController {
	return &MediaController{
		BaseController: controller.NewBaseController(),
		media:          media,
	}
}

// UploadAudio POST /api/v1/media/audio
func (c *MediaController) UploadAudio(ctx echo.Context) error {
	header, err := ctx.FormFile("file")
	if err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "file is required")
	}
	file, err := header.Open()
	if err != nil {
		logger.Error("MediaController:UploadAudio:Open:Error", "error", err)
		return c.InternalServerError(errors.ErrInternalServer, "failed to read upload")
	}
	defer file.Close()

	resp, err := c.media.UploadAudio(ctx.Request().Context(), header.Filename, header.Header.Get(echo.HeaderContentType), header.Size, file)
	if err != nil {
		return c.ErrorResponse(ctx, err)
	}
	return c.SuccessResponse(ctx, resp, "Audio uploaded successfully")
}
