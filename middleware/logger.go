package middleware

import (
	"net/http"
	"time"

	"github.com/BerniceZTT/feedback_end/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// Logger assigns a request id and logs each finished request. Bodies are not
// logged.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		c.Set(utils.RequestIDContextKey, requestID)
		c.Header(RequestIDHeader, requestID)

		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		c.Next()

		var userID string
		if caller, err := utils.GetUser(c); err == nil {
			userID = caller.ID
		}

		utils.LogApiResponse(
			requestID,
			c.Request.Method,
			path,
			c.Writer.Status(),
			time.Since(start),
			userID,
		)
	}
}

// Recovery turns a panic into a 500 response.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		utils.Logger.Error().
			Interface("panic", recovered).
			Str("requestId", utils.GetRequestID(c)).
			Str("path", c.Request.URL.Path).
			Msg("panic recovered")

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"message": "Internal server error",
			"code":    utils.ErrorCodeStore,
		})
	})
}
