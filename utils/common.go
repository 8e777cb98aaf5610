package utils

import (
	"github.com/BerniceZTT/feedback_end/models"

	"github.com/gin-gonic/gin"
)

// Context keys set by the auth and request id middleware.
const (
	UserContextKey      = "user"
	RequestIDContextKey = "requestId"
)

// GetUser returns the caller stored by the auth middleware.
func GetUser(c *gin.Context) (*models.Caller, error) {
	value, exists := c.Get(UserContextKey)
	if !exists {
		return nil, CreateUnauthorizedError("Unauthorized")
	}

	caller, ok := value.(*models.Caller)
	if !ok || caller == nil || caller.ID == "" {
		return nil, CreateUnauthorizedError("Invalid user context")
	}

	return caller, nil
}

// GetRequestID returns the id assigned to the current request.
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDContextKey)
}
