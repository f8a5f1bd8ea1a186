package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/paperclip-video/paperclip-backend/internal/pkg/errors"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondClassified maps a kinded pipeline error onto an HTTP status.
func RespondClassified(c *gin.Context, code string, err error) {
	status := http.StatusInternalServerError
	switch apperrors.Classify(err) {
	case apperrors.KindValidation:
		status = http.StatusBadRequest
	case apperrors.KindMissingDependency:
		status = http.StatusConflict
	case apperrors.KindPermanent:
		status = http.StatusUnprocessableEntity
	}
	if apperrors.Is(err, apperrors.ErrNotFound) {
		status = http.StatusNotFound
	}
	RespondError(c, status, code, err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
