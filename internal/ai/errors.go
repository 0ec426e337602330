package ai

import "fmt"

// Code discriminates categorizer failure modes.
type Code string

// Categorizer error codes.
const (
	CodeAPIKeyMissing       Code = "API_KEY_MISSING"
	CodeInsufficientCredits Code = "INSUFFICIENT_CREDITS"
	CodeAPIError            Code = "API_ERROR"
	CodeInvalidResponse     Code = "INVALID_RESPONSE"
)

// Error is a categorizer failure with a machine-readable code. A declined
// answer (no text payload) is not an Error; callers see a nil result instead.
type Error struct {
	Err     error
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError creates a coded categorizer error.
func newError(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}
