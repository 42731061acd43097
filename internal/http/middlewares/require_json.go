package middlewares

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireJSON rejects bodies declared as something other than JSON with 422.
// A missing Content-Type is let through and the body is decoded as JSON.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			raw := c.GetHeader("Content-Type")
			if raw == "" {
				break
			}

			// allow "application/json; charset=utf-8"
			mediaType, _, err := mime.ParseMediaType(raw)
			if err != nil || mediaType != "application/json" {
				c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
					"error": gin.H{
						"code":      "validation_failed",
						"message":   "Content-Type must be application/json",
						"requestId": c.GetString(CtxRequestID),
						"details":   gin.H{"contentType": raw},
					},
				})
				return
			}
		}
		c.Next()
	}
}
