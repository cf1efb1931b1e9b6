package queueapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"strqueue/internal/log"
	"strqueue/internal/queue"
)

// NewEcho builds the service router. An empty maxBody disables the body
// limit. Requests are logged with the logger carried by ctx.
func NewEcho(ctx context.Context, m *queue.Manager, maxBody string) *echo.Echo {
	logger := log.GetLogger(ctx)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.WithFields(logrus.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency,
			}).Debug("request")
			return nil
		},
	}))
	if maxBody != "" {
		e.Use(middleware.BodyLimit(maxBody))
	}

	h := NewHandler(m, logger)
	e.GET("/queues", h.List)
	e.GET("/queues/:name", h.Size)
	e.HEAD("/queues/:name", h.Length)
	e.DELETE("/queues/:name", h.Drop)
	e.POST("/queues/:name/head", h.InsertHead)
	e.POST("/queues/:name/tail", h.InsertTail)
	e.DELETE("/queues/:name/head", h.RemoveHead)
	e.POST("/queues/:name/reverse", h.Reverse)
	e.POST("/queues/:name/sort", h.Sort)
	return e
}

func RegisterRoutes(ctx context.Context, m *queue.Manager) http.Handler {
	return NewEcho(ctx, m, "")
}
