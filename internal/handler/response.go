package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/latra/medicsystem-gta-backend/pkg/errors"
)

// Response is the envelope returned by every endpoint.
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) Response {
	return Response{Status: "success", Data: data}
}

func NewErrorResponse(message string) Response {
	return Response{Status: "error", Message: message}
}

// RespondError maps an application error to its HTTP status. Unknown
// errors become opaque 500s; the original error is left for the logging
// middleware.
func RespondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var status int
	switch apperrors.Code(err) {
	case apperrors.ErrNotFound:
		status = http.StatusNotFound
	case apperrors.ErrValidation:
		status = http.StatusBadRequest
	case apperrors.ErrUnauthenticated:
		status = http.StatusUnauthorized
	case apperrors.ErrForbidden:
		status = http.StatusForbidden
	case apperrors.ErrConflict:
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
	}
	c.JSON(status, NewErrorResponse(apperrors.Message(err)))
}

// RespondValidationError wraps gin binding failures.
func RespondValidationError(c *gin.Context, err error) {
	RespondError(c, apperrors.Validation("invalid request: "+err.Error(), err))
}
