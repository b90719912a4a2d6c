package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const adminUser = "admin"

// AdminRequired guards back-office routes with basic auth against a bcrypt
// password hash. An empty hash disables the admin surface entirely.
func AdminRequired(passwordHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if passwordHash == "" {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		user, password, ok := c.Request.BasicAuth()
		if !ok || user != adminUser {
			c.Header("WWW-Authenticate", `Basic realm="coursepay-admin"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
			c.Header("WWW-Authenticate", `Basic realm="coursepay-admin"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
