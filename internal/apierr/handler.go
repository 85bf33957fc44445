package apierr

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error response envelope.
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
}

func newErrorResponse(status int, kind, message string) ErrorResponse {
	return ErrorResponse{Timestamp: time.Now(), Status: status, Error: kind, Message: message}
}

// ErrorHandlerMiddleware recovers panics escaping a handler and converts
// them into a 500 response instead of crashing the process.
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				c.JSON(http.StatusInternalServerError,
					newErrorResponse(http.StatusInternalServerError, "Internal Server Error", "an unexpected error occurred"))
				c.Abort()
			}
		}()
		c.Next()
	}
}

// Respond maps a submit-path error to its HTTP response. Unrecognized
// errors fall back to 500.
func Respond(c *gin.Context, err error) {
	var (
		inputErr       *InputError
		tooLargeErr    *TooLargeError
		mediaErr       *UnsupportedMediaError
		unprocessErr   *UnprocessableError
		transportErr   *TransportError
		unavailableErr *ServiceUnavailableError
		notFoundErr    *JobNotFoundError
		notReadyErr    *ResultNotReadyError
	)

	switch {
	case errors.As(err, &inputErr):
		c.JSON(http.StatusBadRequest, newErrorResponse(http.StatusBadRequest, "Bad Request", inputErr.Error()))
	case errors.As(err, &tooLargeErr):
		c.JSON(http.StatusRequestEntityTooLarge, newErrorResponse(http.StatusRequestEntityTooLarge, "Payload Too Large", tooLargeErr.Error()))
	case errors.As(err, &mediaErr):
		c.JSON(http.StatusUnsupportedMediaType, newErrorResponse(http.StatusUnsupportedMediaType, "Unsupported Media Type", mediaErr.Error()))
	case errors.As(err, &unprocessErr):
		c.JSON(http.StatusUnprocessableEntity, newErrorResponse(http.StatusUnprocessableEntity, "Unprocessable Entity", unprocessErr.Error()))
	case errors.As(err, &transportErr):
		c.JSON(http.StatusServiceUnavailable, newErrorResponse(http.StatusServiceUnavailable, "Service Unavailable", "storage backend unreachable"))
	case errors.As(err, &unavailableErr):
		c.JSON(http.StatusServiceUnavailable, newErrorResponse(http.StatusServiceUnavailable, "Service Unavailable", unavailableErr.Error()))
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, newErrorResponse(http.StatusNotFound, "Not Found", notFoundErr.Error()))
	case errors.As(err, &notReadyErr):
		c.JSON(http.StatusConflict, newErrorResponse(http.StatusConflict, "Conflict", notReadyErr.Error()))
	default:
		c.JSON(http.StatusInternalServerError, newErrorResponse(http.StatusInternalServerError, "Internal Server Error", "an unexpected error occurred"))
	}
}
