package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
)

// InitMetrics registers the HTTP request metrics middleware and exposes
// the prometheus registry at /metrics.
func InitMetrics(app *fiber.App, serviceName string) {
	prom := fiberprometheus.New(serviceName)
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)
}
