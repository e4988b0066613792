package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/signage-ops/internal/i18n"
	"github.com/garyjia/signage-ops/internal/infrastructure/metrics"
)

// localeMiddleware stores the best Accept-Language match on the request context
func localeMiddleware(translator *i18n.Translator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if translator != nil {
			locale := translator.DefaultLocale()
			if header := c.GetHeader("Accept-Language"); header != "" {
				locale = translator.Match(header)
			}
			c.Request = c.Request.WithContext(i18n.WithLocale(c.Request.Context(), locale))
			c.Header("Content-Language", locale)
		}
		c.Next()
	}
}

// metricsMiddleware records every request by route template, so ids in the
// path do not explode label cardinality
func metricsMiddleware(m metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.RequestsIncrease(&metrics.RequestInfo{
			Method:   c.Request.Method,
			Path:     path,
			Status:   c.Writer.Status(),
			Duration: time.Since(start),
		})
	}
}
