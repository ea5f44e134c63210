// Package response writes the JSON envelope shared by every API route.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ug1-portal-api/internal/models"
	appErrors "github.com/noah-isme/ug1-portal-api/pkg/errors"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message,omitempty"`
	Data       interface{}        `json:"data,omitempty"`
	Error      *appErrors.Error   `json:"error,omitempty"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
}

// JSON writes a success envelope. Pass nil pagination for single resources.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination) {
	write(c, status, Envelope{Success: true, Data: data, Pagination: pagination})
}

// Created writes data with 201.
func Created(c *gin.Context, data interface{}) {
	write(c, http.StatusCreated, Envelope{Success: true, Data: data})
}

// Message writes a success envelope without data.
func Message(c *gin.Context, status int, message string) {
	write(c, status, Envelope{Success: true, Message: message})
}

// Error maps err onto its HTTP status. Anything at 500 or above is attached to the
// context for the request logger and reaches the client only as a generic message.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
		appErr = appErrors.Clone(appErrors.ErrInternal, "")
	}
	write(c, appErr.Status, Envelope{Message: appErr.Message, Error: appErr})
}

// NoContent writes 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func write(c *gin.Context, status int, body Envelope) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, body)
}
