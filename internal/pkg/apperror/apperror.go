// Package apperror defines the error type services return to the transport
// layer. Sentinel errors are package-level *AppError values, so handlers can
// match them with errors.Is and render the carried status code.
package apperror

// AppError couples a user-facing message with the HTTP status it should
// produce. The wrapped error, when present, is for logs only.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError with a status code and message.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates an AppError around an existing error.
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
