package common

import (
	"errors"
	"fmt"
)

// Codes carried by AppError.
const (
	CodeConfig          = "CONFIG_ERROR"
	CodePrecondition    = "PRECONDITION"
	CodeCredentialStore = "CREDENTIAL_STORE"
	CodeStorage         = "STORAGE"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrValidation   = errors.New("validation failed")
)

// AppError pairs a stable code with a message that is safe to show users.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Code returns the code of the first AppError in the chain, or "".
func Code(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// UserMessage returns the AppError message, or err.Error() for other errors.
func UserMessage(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}
