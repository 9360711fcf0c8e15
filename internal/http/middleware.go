package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sharestuff/internal/domain"
)

const identityKey = "identity"

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		if len(c.Errors) > 0 {
			entry.Warn(c.Errors.String())
			return
		}
		entry.Debug("request")
	}
}

// identify attaches the caller's identity to every request; anonymous
// requests get the zero Identity.
func (h *Handler) identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := h.identity.Resolve(c.Request.Context(), c.Request)
		c.Set(identityKey, id)
		c.Next()
	}
}

func identityOf(c *gin.Context) domain.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(domain.Identity); ok {
			return id
		}
	}
	return domain.Identity{}
}

// requireLogin guards page routes by sending anonymous callers to the login form.
func requireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if identityOf(c).Anonymous() {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// requireAPIAuth guards JSON routes with a 403.
func requireAPIAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if identityOf(c).Anonymous() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "You must be logged in to do that.",
			})
			return
		}
		c.Next()
	}
}
