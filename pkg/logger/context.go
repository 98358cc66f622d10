package logger

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const loggerKey = "logger"

// FromContext retrieves the request-scoped logger from the Echo context
func FromContext(c echo.Context) *zap.Logger {
	logger, ok := c.Get(loggerKey).(*zap.Logger)
	if !ok {
		return GetLogger()
	}
	return logger
}

// SetContext stores a request-scoped logger in the Echo context
func SetContext(c echo.Context, logger *zap.Logger) {
	c.Set(loggerKey, logger)
}
