// Package httpapi wires the gin router, middleware, and HTTP handlers that
// make up the broker's external surface.
package httpapi

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"

	"github.com/kandev/meddler/internal/apperrors"
	"github.com/kandev/meddler/internal/logger"
	"github.com/kandev/meddler/internal/telemetry"
)

// rpcMethodKey is the gin context key MCP handlers stash the decoded
// JSON-RPC method under, once known, so RequestLogger can report it.
const rpcMethodKey = "jsonrpc_method"

// RequestLogger stamps every request with a request ID and reports how it
// was handled once it completes. On the MCP routes it also reports the
// JSON-RPC method the request carried, since "200 in 4ms" means little on
// its own for a single shared endpoint serving five different tool calls.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		began := time.Now()
		c.Next()
		elapsed := time.Since(began)

		fields := make([]zap.Field, 0, 6)
		fields = append(fields,
			zap.String("request_id", requestID),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", elapsed),
		)
		if method, ok := c.Get(rpcMethodKey); ok {
			fields = append(fields, zap.String("rpc_method", method.(string)))
		}

		log.Info(fmt.Sprintf("%s %s", c.Request.Method, c.Request.URL.Path), fields...)
	}
}

// ErrorHandler maps the last gin error on the context to a plain-text
// response, using apperrors.AppError's carried status and message when
// present and a generic 500 otherwise.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		var appErr *apperrors.AppError
		if stderrors.As(err, &appErr) {
			c.String(appErr.HTTPStatus, appErr.Message)
			return
		}

		log.Error("unhandled request error", zap.Error(err))
		c.String(http.StatusInternalServerError, "internal server error")
	}
}

// Recovery recovers panics within a single request so they don't take down
// the process, logging the panic and responding 500.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// CORS applies a permissive cross-origin policy to every route, per the
// broker's external interface contract.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// OtelTracing wraps each request in an OTel span. A no-op tracer is used
// unless OTEL_EXPORTER_OTLP_ENDPOINT is configured.
func OtelTracing(serverName string) gin.HandlerFunc {
	tracer := telemetry.Tracer(serverName)

	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		spanName := fmt.Sprintf("%s %s", c.Request.Method, path)

		ctx, span := tracer.Start(c.Request.Context(), spanName)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			semconv.HTTPRequestMethodKey.String(c.Request.Method),
			semconv.HTTPRouteKey.String(path),
			semconv.HTTPResponseStatusCodeKey.Int(status),
		)
		if status >= 500 {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
		}
	}
}
