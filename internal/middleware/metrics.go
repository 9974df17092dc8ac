package middleware

import (
	"strings"
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RedisErrors counts failed Redis commands by command name.
var RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wanderlog_redis_errors_total",
	Help: "Total number of failed Redis commands by command",
}, []string{"command"})

var (
	promOnce     sync.Once
	promInstance *fiberprometheus.FiberPrometheus
)

// InitMetrics builds the Prometheus HTTP instrumentation for the service.
// Collectors register with the default registry once per process; later
// calls return the same instance.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promInstance = fiberprometheus.NewWithRegistry(
			prometheus.DefaultRegisterer,
			serviceName,
			"wanderlog",
			"http",
			nil,
		)
		promInstance.SetSkipPaths([]string{"/metrics", "/health/live", "/health/ready"})
	})
	return promInstance
}

// MetricsMiddleware records request metrics, skipping static uploads.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	instrument := prom.Middleware
	return func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/storage/") {
			return c.Next()
		}
		return instrument(c)
	}
}
