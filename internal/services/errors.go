package services

import "fmt"

// ValidationError reports malformed or conflicting input. Field names the
// offending request field when there is one.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// NotFoundError covers both "does not exist" and "belongs to another user";
// the two are deliberately indistinguishable.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found.", e.Resource)
}

type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

var (
	ErrInvalidCredentials = &AuthError{Message: "Invalid credentials."}
	ErrAccountDisabled    = &AuthError{Message: "User account is disabled."}
)
