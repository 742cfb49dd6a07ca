package middleware

import (
	"context"
	"net/http"
	"runtime/debug"

	"schedule-agent/core/constants"
	"schedule-agent/core/controller"
	"schedule-agent/core/errors"
	"schedule-agent/core/logger"
	"schedule-agent/core/utils"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

type requestIDKey struct{}

type Middleware struct {
	bodyLimit string
}

func NewMiddleware(bodyLimit string) *Middleware {
	return &Middleware{bodyLimit: bodyLimit}
}

// Apply installs the global middleware chain on e.
func (m *Middleware) Apply(e *echo.Echo) {
	e.Use(m.RequestID())
	e.Use(m.Recover())
	e.Use(m.RequestLogger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID},
	}))
	if m.bodyLimit != "" {
		e.Use(echomw.BodyLimit(m.bodyLimit))
	}
}

// RequestID sets X-Request-ID and stores it on both the echo and the
// request context so services can log it.
func (m *Middleware) RequestID() echo.MiddlewareFunc {
	return echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: utils.NewRequestID,
		RequestIDHandler: func(c echo.Context, id string) {
			c.Set(constants.ContextRequestID, id)
			ctx := context.WithValue(c.Request().Context(), requestIDKey{}, id)
			c.SetRequest(c.Request().WithContext(ctx))
		},
	})
}

func (m *Middleware) RequestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			args := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"request_id", v.RequestID,
				"remote_ip", v.RemoteIP,
			}
			if v.Error != nil {
				logger.Warn("HTTP:Request:Error", append(args, "error", v.Error.Error())...)
				return nil
			}
			logger.Info("HTTP:Request", args...)
			return nil
		},
	})
}

// Recover turns panics into the standard 500 error body.
func (m *Middleware) Recover() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil || r == http.ErrAbortHandler {
					if r != nil {
						panic(r)
					}
					return
				}
				logger.Error("Middleware:Recover",
					"panic", r,
					"path", c.Request().URL.Path,
					"stack", string(debug.Stack()),
				)
				appErr := errors.NewAppError(errors.ErrInternalServer, "internal server error", nil)
				err = controller.NewBaseController().ErrorResponse(c, appErr)
			}()
			return next(c)
		}
	}
}

// RequestIDFrom returns the request id stored by RequestID, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
