package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware instruments every request with an OpenTelemetry
// server span via otelgin.
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// EnrichTrace adds archive-specific attributes to the active span after
// the handler chain has resolved route params.
func EnrichTrace() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			if id := c.Param("id"); id != "" {
				span.SetAttributes(attribute.String("archive.document_id", id))
			}
			if rid := c.GetString(RequestIDKey); rid != "" {
				span.SetAttributes(attribute.String("archive.request_id", rid))
			}
		}
		c.Next()
	}
}
