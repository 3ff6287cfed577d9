package middleware

import (
	"context"
	"strings"

	"github.com/dealership/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// Profiling label keys set per request
const (
	ProfilingLabelMethod   = "http_method"
	ProfilingLabelRoute    = "http_route"
	ProfilingLabelResource = "resource"
)

// ProfilingConfig holds configuration for the profiling label middleware
type ProfilingConfig struct {
	Enabled   bool
	SkipPaths []string
}

// ProfilingWithConfig attaches Pyroscope labels (method, route, resource) to
// every request so CPU samples can be sliced per endpoint
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip {
				c.Next()
				return
			}
		}

		telemetry.WithProfilingLabels(c.Request.Context(), profilingLabels(c), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

func profilingLabels(c *gin.Context) map[string]string {
	route := c.FullPath()
	return map[string]string{
		ProfilingLabelMethod:   c.Request.Method,
		ProfilingLabelRoute:    route,
		ProfilingLabelResource: resourceFromRoute(route),
	}
}

// resourceFromRoute returns the first path segment after the version,
// e.g. "sales" for "/api/v1/sales/:id"
func resourceFromRoute(route string) string {
	for _, part := range strings.Split(route, "/") {
		if part == "" || part == "api" || isVersionSegment(part) || strings.HasPrefix(part, ":") {
			continue
		}
		return part
	}
	return ""
}

func isVersionSegment(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	for i := 1; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}
