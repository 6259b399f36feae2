// Package respond writes the JSON envelope every endpoint answers with
package respond

import (
	"bitwise74/learning-api/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var statuses = map[service.Kind]int{
	service.KindValidation: http.StatusBadRequest,
	service.KindConflict:   http.StatusConflict,
	service.KindAuth:       http.StatusUnauthorized,
	service.KindNotFound:   http.StatusNotFound,
	service.KindDelivery:   http.StatusBadGateway,
	service.KindInternal:   http.StatusInternalServerError,
}

// Status returns the HTTP status a service error is reported with.
func Status(err error) int {
	return statuses[service.KindOf(err)]
}

// Error answers with the user facing message of err. Errors that didn't come
// from a service are logged and hidden behind a generic message.
func Error(c *gin.Context, err error) {
	requestID := c.GetString("requestID")

	body := gin.H{
		"ok":        false,
		"requestID": requestID,
	}

	var se *service.Error
	if errors.As(err, &se) {
		body["error"] = se.Message
		if se.Link != "" {
			body["link"] = se.Link
		}
	} else {
		body["error"] = "Internal server error"
		zap.L().Error("Unhandled error", zap.Error(err), zap.String("requestID", requestID))
	}

	c.JSON(Status(err), body)
}

// BadRequest answers a body that couldn't be bound.
func BadRequest(c *gin.Context, err error) {
	requestID := c.GetString("requestID")

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"ok":        false,
			"error":     "Request body size exceeds limit",
			"requestID": requestID,
		})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{
		"ok":        false,
		"error":     "Invalid request body",
		"requestID": requestID,
	})

	zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
}

// OK answers with message and any extra fields.
func OK(c *gin.Context, status int, message string, extra gin.H) {
	body := gin.H{
		"ok":        true,
		"message":   message,
		"requestID": c.GetString("requestID"),
	}

	for k, v := range extra {
		body[k] = v
	}

	c.JSON(status, body)
}
