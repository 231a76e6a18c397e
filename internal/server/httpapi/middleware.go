package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/babypal/internal/common"
	"github.com/dmitrijs2005/babypal/internal/logging"
	"github.com/dmitrijs2005/babypal/internal/server/access"
	"github.com/dmitrijs2005/babypal/internal/server/metrics"
	"github.com/dmitrijs2005/babypal/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	sessionKey      = "session"
)

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func accessLog(l logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"request_id", c.GetString(requestIDKey),
		)
	}
}

// instrument records request counts and latency labelled by route template.
func instrument(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		m.HTTPRequestsInFlight.Inc()
		start := time.Now()

		c.Next()

		m.HTTPRequestsInFlight.Dec()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func (h *handler) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		h.logger.Error(c.Request.Context(), "panic recovered", "panic", rec, "path", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			gin.H{"error": common.ErrorInternal.Error(), "status": http.StatusInternalServerError})
	})
}

// authenticate requires a valid access token and stores its session.
func (h *handler) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeader)
		if !strings.HasPrefix(header, common.BearerPrefix) {
			h.writeError(c, common.ErrInvalidToken)
			return
		}

		sess, err := h.svc.Users.ValidateToken(c.Request.Context(), strings.TrimPrefix(header, common.BearerPrefix))
		if err != nil {
			h.writeError(c, err)
			return
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

func (h *handler) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.opts.Access.Authorize(actor(c), access.Admin, access.Manage, access.Subject{}); err != nil {
			h.writeError(c, err)
			return
		}
		c.Next()
	}
}

func session(c *gin.Context) *services.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*services.Session)
	return sess
}

// actor is the authenticated caller, or the zero Actor on public routes.
func actor(c *gin.Context) access.Actor {
	if sess := session(c); sess != nil {
		return sess.Actor
	}
	return access.Actor{}
}
