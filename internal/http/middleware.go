package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tazhibayda/auth-backend/internal/domain"
	"github.com/tazhibayda/auth-backend/internal/helper"
	"github.com/tazhibayda/auth-backend/internal/log"
	"github.com/tazhibayda/auth-backend/internal/metrics"
)

const (
	requestIDHeader = "X-Request-ID"
	authUserKey     = "auth_user"
)

// RequestID propagates or assigns X-Request-ID and puts it on the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(helper.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Ctx(c.Request.Context(),
			zap.String("request_id", c.GetString(requestIDHeader)),
		).Info("http",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.InFlight.Inc()
		start := time.Now()
		c.Next()
		metrics.InFlight.Dec()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.ReqDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// resolve turns a bearer access token into the stored user, or nil.
func (h *Handler) resolve(c *gin.Context) *domain.User {
	tok := bearer(c)
	if tok == "" {
		return nil
	}
	claims, err := h.Tokens.ParseAccess(tok)
	if err != nil {
		return nil
	}
	u, err := h.Users.FindUserByID(c.Request.Context(), claims.UserID())
	if err != nil {
		return nil
	}
	return u
}

// AuthRequired rejects requests without a valid access token for an existing user.
func (h *Handler) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := h.resolve(c)
		if u == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, failure("Authentication required", codeUnauthorized))
			return
		}
		c.Set(authUserKey, u)
		c.Next()
	}
}

// AuthOptional attaches the user when a valid access token is present.
func (h *Handler) AuthOptional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if u := h.resolve(c); u != nil {
			c.Set(authUserKey, u)
		}
		c.Next()
	}
}

func authUser(c *gin.Context) *domain.User {
	v, ok := c.Get(authUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*domain.User)
	return u
}
