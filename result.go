package scholarauth

import (
	"errors"
	"net/http"
)

// Result is the uniform envelope every engine operation returns. It is
// shaped for direct JSON serialization by HTTP handlers; Err carries the
// underlying sentinel for programmatic callers and is not serialized.
type Result struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message,omitempty"`
	Data       any    `json:"data,omitempty"`
	Err        error  `json:"-"`
}

func success(code int, message string, data any) Result {
	return Result{Success: true, StatusCode: code, Message: message, Data: data}
}

func failure(err error) Result {
	return Result{
		Success:    false,
		StatusCode: statusFor(err),
		Message:    publicMessage(err),
		Err:        err,
	}
}

func failureWithData(err error, data any) Result {
	r := failure(err)
	r.Data = data
	return r
}

// statusFor maps sentinels to HTTP status codes. Anything unrecognized is
// an internal error so storage failures never leak their text to clients.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenBlacklisted),
		errors.Is(err, ErrTokenWrongKind):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAccountLocked),
		errors.Is(err, ErrAccountDisabled),
		errors.Is(err, ErrAccountUnverified),
		errors.Is(err, ErrRegistrationDisabled),
		errors.Is(err, ErrEmailVerificationDisabled):
		return http.StatusForbidden
	case errors.Is(err, ErrAccountExists),
		errors.Is(err, ErrEmailInvalid),
		errors.Is(err, ErrPasswordPolicy),
		errors.Is(err, ErrPasswordReuse),
		errors.Is(err, ErrPasswordResetInvalid),
		errors.Is(err, ErrPasswordResetAttempts),
		errors.Is(err, ErrEmailVerificationInvalid),
		errors.Is(err, ErrEmailVerificationAttempts):
		return http.StatusBadRequest
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrCacheUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func publicMessage(err error) string {
	if statusFor(err) == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}
