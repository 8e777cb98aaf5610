package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/BerniceZTT/feedback_end/models"
	"github.com/BerniceZTT/feedback_end/utils"

	"github.com/gin-gonic/gin"
)

// OperationLogStore persists operation log entries.
type OperationLogStore interface {
	Insert(ctx context.Context, entry *models.OperationLog) error
}

// methods that change state
var loggedMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

// credential endpoints are never recorded
var excludedPaths = map[string]bool{
	"/api/auth/login":    true,
	"/api/auth/register": true,
}

const (
	operationLogTimeout = 3 * time.Second
	maxLoggedBody       = 64 << 10
)

// OperationLoggerMiddleware records every mutating request to store. A failed
// write is logged and never affects the response.
func OperationLoggerMiddleware(store OperationLogStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !shouldLogOperation(c) {
			c.Next()
			return
		}

		startTime := time.Now()
		requestBody := captureJSONBody(c)

		c.Next()

		entry := models.OperationLog{
			RequestID:     utils.GetRequestID(c),
			Method:        c.Request.Method,
			Path:          c.Request.URL.Path,
			RequestBody:   sanitizeData(requestBody),
			StatusCode:    c.Writer.Status(),
			Success:       c.Writer.Status() < http.StatusBadRequest,
			OperationTime: startTime,
			ResponseTime:  time.Since(startTime).Milliseconds(),
			IPAddress:     c.ClientIP(),
			UserAgent:     c.Request.UserAgent(),
		}
		if caller, err := utils.GetUser(c); err == nil {
			entry.OperatorID = caller.ID
			entry.OperatorName = caller.Username
			entry.OperatorRole = string(caller.Role)
		}
		if len(c.Errors) > 0 {
			entry.ErrorMessage = c.Errors.String()
		}

		ctx, cancel := context.WithTimeout(context.Background(), operationLogTimeout)
		defer cancel()
		if err := store.Insert(ctx, &entry); err != nil {
			utils.Logger.Error().Err(err).Str("path", entry.Path).Msg("save operation log failed")
		}
	}
}

func shouldLogOperation(c *gin.Context) bool {
	if excludedPaths[c.Request.URL.Path] {
		return false
	}
	return loggedMethods[c.Request.Method]
}

// captureJSONBody reads a small JSON body and puts it back for the handler.
// Multipart uploads are left untouched.
func captureJSONBody(c *gin.Context) interface{} {
	if c.Request.Body == nil || !strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		return nil
	}
	if c.Request.ContentLength < 0 || c.Request.ContentLength > maxLoggedBody {
		return nil
	}

	raw, err := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		utils.Logger.Warn().Err(err).Msg("read request body failed")
		return nil
	}

	var body interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil
	}
	return body
}

// sanitizeData masks credential fields at any depth.
func sanitizeData(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		sanitized := make(map[string]interface{}, len(v))
		for k, val := range v {
			switch strings.ToLower(k) {
			case "password", "token", "authorization", "secret":
				sanitized[k] = "******"
			default:
				sanitized[k] = sanitizeData(val)
			}
		}
		return sanitized
	case []interface{}:
		sanitized := make([]interface{}, len(v))
		for i, val := range v {
			sanitized[i] = sanitizeData(val)
		}
		return sanitized
	default:
		return data
	}
}
