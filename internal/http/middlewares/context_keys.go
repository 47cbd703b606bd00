package middlewares

import "github.com/gin-gonic/gin"

// gin context keys
const (
	CtxRequestID = "request_id"
)

// abort writes the users failure envelope and stops the chain.
func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
	})
}
