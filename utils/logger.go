package utils

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process-wide structured logger.
var Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// InitLogger configures Logger. pretty selects the console writer used in
// debug mode; otherwise JSON lines are written to stdout.
func InitLogger(level string, pretty bool) {
	var logger zerolog.Logger
	if pretty {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		logger = zerolog.New(output)
	} else {
		logger = zerolog.New(os.Stdout)
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	Logger = logger.
		With().
		Timestamp().
		Caller().
		Logger().
		Level(lvl)

	Logger.Info().Str("level", lvl.String()).Msg("logger initialized")
}

// LogApiResponse logs a finished request. Client and server errors are
// raised to warn and error level.
func LogApiResponse(requestID, method, path string, statusCode int, latency time.Duration, userID string) {
	event := Logger.Info()
	switch {
	case statusCode >= 500:
		event = Logger.Error()
	case statusCode >= 400:
		event = Logger.Warn()
	}
	event.
		Str("requestId", requestID).
		Str("method", method).
		Str("path", path).
		Int("statusCode", statusCode).
		Dur("latency", latency).
		Str("userId", userID).
		Msg("api response")
}

// LogError logs err with a context map.
func LogError(err error, context map[string]interface{}, message string) {
	Logger.Error().
		Err(err).
		Interface("context", context).
		Msg(message)
}

// LogDbOperation logs a repository call at debug level.
func LogDbOperation(operation string, collection string, query interface{}) {
	Logger.Debug().
		Str("operation", operation).
		Str("collection", collection).
		Interface("query", query).
		Msg("db operation")
}

// ShortAuthHeader truncates an Authorization header for logging.
func ShortAuthHeader(header string) string {
	if len(header) > 15 {
		return header[:15] + "..."
	}
	return header
}
