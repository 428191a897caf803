package models

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes used across the application. Handlers map these onto HTTP
// status codes; services classify raw store failures into them before
// returning.
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeDuplicateVote = "DUPLICATE_VOTE"
	CodeNotFound      = "NOT_FOUND"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeStore         = "STORE_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

// NewDuplicateVoteError reports a rejected second vote by the same user on
// the same post. This is a client error, not a server fault.
func NewDuplicateVoteError(userID, postID uint) *AppError {
	return &AppError{
		Code:    CodeDuplicateVote,
		Message: fmt.Sprintf("User %d has already voted on post %d", userID, postID),
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

// NewStoreError wraps an unexpected persistence failure.
func NewStoreError(err error) *AppError {
	return &AppError{
		Code:    CodeStore,
		Message: "Underlying store failure",
		Err:     err,
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	if appErr, ok := err.(*AppError); ok {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
