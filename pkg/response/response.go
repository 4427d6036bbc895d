package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bths-action/club-api/internal/models"
	appErrors "github.com/bths-action/club-api/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data       interface{}        `json:"data,omitempty"`
	Error      *appErrors.Error   `json:"error,omitempty"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
	Warnings   []string           `json:"warnings,omitempty"`
}

// JSON sends a success response with optional pagination metadata.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, Envelope{Data: data, Pagination: pagination})
}

// JSONWithWarnings sends a success response carrying non-fatal warnings.
// The publication pipeline uses this when a notification channel failed
// after the event record was already created.
func JSONWithWarnings(c *gin.Context, status int, data interface{}, warnings []string) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, Envelope{Data: data, Warnings: warnings})
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
