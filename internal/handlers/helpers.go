package handlers

import (
	"github.com/gin-gonic/gin"

	apperrors "grindsheet/internal/errors"
	"grindsheet/internal/middleware"
	appvalidator "grindsheet/internal/validator"
)

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// MessageResponse is the body of endpoints that only confirm an action.
type MessageResponse struct {
	Message string `json:"message"`
}

// getUserEmail extracts the authenticated email from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserEmail(c *gin.Context) (string, error) {
	email := c.GetString(middleware.ContextEmailKey)
	if email == "" {
		return "", apperrors.ErrUnauthorized
	}
	return email, nil
}

// invalidInput reports a request that failed to bind, naming the offending field.
func invalidInput(err error) error {
	return apperrors.WithMessage(apperrors.ErrInvalidInput, appvalidator.Message(err))
}

// respondWithError writes the JSON error envelope for err and records it on
// the context for the request log.
func respondWithError(c *gin.Context, err error) {
	middleware.RespondError(c, err)
}
