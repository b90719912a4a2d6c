package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/polarisedu/coursepay/internal/server/http/middleware"
)

// CurrentUserID extracts the authenticated user id set by AuthRequired.
func CurrentUserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(middleware.UserIDContextKey)
	if !ok {
		return "", false
	}
	userID, ok := v.(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}
