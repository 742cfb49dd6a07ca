package router

import (
	"schedule-agent/modules/media/controller"

	"github.com/labstack/echo/v4"
)

type MediaRouter struct {
	controller *controller.MediaController
}

func NewMediaRouter(controller *controller.MediaController) *MediaRouter {
	return &MediaRouter{controller: controller}
}

func (r *MediaRouter) Register(g *echo.Group) {
	media := g.Group("/media")
	media.POST("/audio", r.controller.UploadAudio)
}
