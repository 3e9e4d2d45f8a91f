package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Session(c).UserID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		c.Next()
	}
}

// RequireProject rejects requests made before a project was selected.
func RequireProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Session(c).ActiveProjectID == 0 {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "no active project selected"})
			return
		}
		c.Next()
	}
}
