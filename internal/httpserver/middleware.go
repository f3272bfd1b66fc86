package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	// scopeHeader lets non-browser clients pick their scope explicitly.
	scopeHeader       = "X-Client-Scope"
	scopeCtxKey       = "clientScope"
	scopeSessionValue = "scope"
	defaultCookieName = "tfashion_client"
)

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if scope := c.GetString(scopeCtxKey); scope != "" {
			fields = append(fields, zap.String("scope", scope))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		logger.Info("HTTP request", fields...)
	}
}

// scopeMiddleware resolves the client scope of a request. An explicit header wins;
// otherwise the scope lives in a signed cookie and is issued on first contact.
func scopeMiddleware(store sessions.Store, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader(scopeHeader); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + scopeHeader + " header"})
				return
			}
			setScope(c, id.String())
			return
		}

		// A cookie that fails verification yields a fresh session; the error is dropped.
		session, _ := store.Get(c.Request, cookieName)
		scope, _ := session.Values[scopeSessionValue].(string)
		if _, err := uuid.Parse(scope); err != nil {
			scope = uuid.NewString()
			session.Values[scopeSessionValue] = scope
			if err := session.Save(c.Request, c.Writer); err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not issue client scope"})
				return
			}
		}
		setScope(c, scope)
	}
}

func setScope(c *gin.Context, scope string) {
	c.Set(scopeCtxKey, scope)
	c.Header(scopeHeader, scope)
	c.Next()
}

func scopeFrom(c *gin.Context) string {
	return c.GetString(scopeCtxKey)
}
