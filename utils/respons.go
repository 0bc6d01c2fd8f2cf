package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type JSONResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Success: code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Success: false,
		Message: http.StatusText(code),
		Error:   err.Error(),
	})
}

// StatusFor maps an error kind onto an HTTP status code.
func StatusFor(kind ErrorKind) int {
	switch kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindStoreFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondAppError renders a service error. Store failures are logged and
// hidden behind a generic message.
func RespondAppError(c *gin.Context, err error) {
	kind := KindOf(err)
	code := StatusFor(kind)
	if kind == KindStoreFailure {
		ErrorLogger.WithField("path", c.Request.URL.Path).Errorf("store failure: %v", err)
		RespondError(c, code, errors.New("service unavailable, please try again later"))
		return
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		RespondError(c, code, errors.New(appErr.Message))
		return
	}
	RespondError(c, code, err)
}
