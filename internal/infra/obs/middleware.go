package obs

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hirely/internal/app/authz"
)

const (
	requestIDHeader = "X-Request-ID"
	maxRequestIDLen = 128
)

type Middleware struct {
	Logger *slog.Logger
}

// RequestID reuses a caller supplied X-Request-ID when it is short enough and
// mints one otherwise.
func (m Middleware) RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), requestIDKey{}, id))
		c.Writer.Header().Set(requestIDHeader, id)
		c.Set("request_id", id)
		c.Next()
	}
}

// LoggerMiddleware logs one line per request once the handlers are done, so
// the user resolved by the auth middleware is included.
func (m Middleware) LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m.Logger == nil {
			return
		}
		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"route", c.FullPath(),
			"status", status,
			"duration", time.Since(start),
			"request_id", c.GetString("request_id"),
		}
		if p, ok := authz.PrincipalFrom(c.Request.Context()); ok {
			attrs = append(attrs, "user_id", p.UserID)
		}
		switch {
		case status >= 500:
			m.Logger.Error("http request", attrs...)
		case status >= 400:
			m.Logger.Warn("http request", attrs...)
		default:
			m.Logger.Info("http request", attrs...)
		}
	}
}

type requestIDKey struct{}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
