package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pagegen-backend/internal/pagegen/generr"
)

type APIError struct {
	Message     string           `json:"message"`
	Code        string           `json:"code,omitempty"`
	RawResponse string           `json:"rawResponse,omitempty"`
	Attempts    []generr.Attempt `json:"attempts,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError maps err onto the error envelope. Unknown errors are reported as a generic
// internal error; their text never reaches the caller.
func RespondError(c *gin.Context, err error) {
	apiErr := APIError{
		Message: generr.Message(err),
		Code:    generr.Code(err),
	}

	var mal *generr.MalformedError
	if errors.As(err, &mal) {
		apiErr.RawResponse = mal.Preview
	}
	var un *generr.UnavailableError
	if errors.As(err, &un) {
		apiErr.Attempts = un.Attempts
	}

	c.JSON(generr.Status(err), ErrorEnvelope{Error: apiErr})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
