package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/bths-action/club-api/internal/middleware"
)

func emailFromContext(c *gin.Context) string {
	value, exists := c.Get(middleware.ContextEmailKey)
	if !exists {
		return ""
	}
	email, ok := value.(string)
	if !ok {
		return ""
	}
	return email
}
