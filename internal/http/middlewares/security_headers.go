package middlewares

import (
	"github.com/gin-gonic/gin"
)

// JSON only API, nothing should ever be rendered or framed.
const defaultCSP = "default-src 'none'; frame-ancestors 'none'"

func SecurityHeaders(hsts bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("X-XSS-Protection", "0")
		c.Header("Content-Security-Policy", defaultCSP)
		if hsts {
			c.Header("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}
		c.Next()
	}
}
