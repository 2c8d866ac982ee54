package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"ourhotel/internal/config"
)

// CORSMiddleware allows credentialed cross-origin requests only from the
// origins named in the configuration. Unlisted origins get no CORS headers,
// so the browser refuses them.
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	allowed := make(map[string]bool, len(cfg.Server.AllowedOrigins))
	for _, origin := range cfg.Server.AllowedOrigins {
		allowed[origin] = true
	}

	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" && allowed[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, "+CSRFTokenHeader)
			c.Header("Access-Control-Expose-Headers", CSRFTokenHeader)
			c.Header("Vary", "Origin")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// ErrorHandler recovers handler panics into a generic 500 response; the
// underlying error goes to the operational log, never to the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic recovered", "path", c.Request.URL.Path, "panic", r)
				c.AbortWithStatusJSON(500, gin.H{"error": "Please try again later"})
			}
		}()
		c.Next()
	}
}
