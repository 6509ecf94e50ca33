package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const sessionCtxKey = "clientSession"

// requestLogger logs one line per request.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := logger.Debug()
		switch {
		case status >= http.StatusInternalServerError:
			event = logger.Error()
		case status >= http.StatusBadRequest:
			event = logger.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}

func sessionMiddleware(sessions *SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("sessionId")
		sess, ok := sessions.Get(id)
		if !ok {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": errorBody{Code: "session_not_found", Message: "Session not found"}})
			return
		}
		c.Set(sessionCtxKey, sess)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *clientSession {
	return c.MustGet(sessionCtxKey).(*clientSession)
}
