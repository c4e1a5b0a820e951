package service

// Code identifies a failure the HTTP layer knows how to present. The set is closed:
// every error the service returns either carries one of these codes or is internal.
type Code string

const (
	CodeValidation            Code = "VALIDATION_ERROR"
	CodeEmailExists           Code = "EMAIL_EXIST"
	CodeInvalidCredentials    Code = "INVALID_CREDENTIALS"
	CodeNoRefreshToken        Code = "NO_REFRESH_TOKEN"
	CodeRefreshTokenInvalid   Code = "REFRESH_TOKEN_INVALID"
	CodeRefreshTokenNotMatch  Code = "REFRESH_TOKEN_NOT_MATCH"
	CodeUserNotFound          Code = "USER_NOT_FOUND"
	CodeNotAuthorized         Code = "NOT_AUTHORIZATION"
	CodeEmailNotFound         Code = "EMAIL_NOT_FOUND"
	CodeTokenInvalidOrExpired Code = "TOKEN_INVALID_OR_EXPIRED"
	CodeTokenRequired         Code = "TOKEN_REQUIRED"
	CodeMalformedToken        Code = "MALFORMED_TOKEN"
	CodeIdentityExpired       Code = "TOKEN_EXPIRED"
	CodeIdentityMalformed     Code = "TOKEN_MALFORMED"
	CodeIdentityRejected      Code = "TOKEN_VERIFICATION_FAILED"
)

type Error struct {
	Code Code
	Err  error // optional cause, never shown to clients
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so wrapped instances compare equal to the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrValidation            = &Error{Code: CodeValidation}
	ErrEmailExists           = &Error{Code: CodeEmailExists}
	ErrInvalidCredentials    = &Error{Code: CodeInvalidCredentials}
	ErrNoRefreshToken        = &Error{Code: CodeNoRefreshToken}
	ErrRefreshTokenInvalid   = &Error{Code: CodeRefreshTokenInvalid}
	ErrRefreshTokenNotMatch  = &Error{Code: CodeRefreshTokenNotMatch}
	ErrUserNotFound          = &Error{Code: CodeUserNotFound}
	ErrNotAuthorized         = &Error{Code: CodeNotAuthorized}
	ErrEmailNotFound         = &Error{Code: CodeEmailNotFound}
	ErrTokenInvalidOrExpired = &Error{Code: CodeTokenInvalidOrExpired}
	ErrTokenRequired         = &Error{Code: CodeTokenRequired}
	ErrMalformedToken        = &Error{Code: CodeMalformedToken}
	ErrIdentityExpired       = &Error{Code: CodeIdentityExpired}
	ErrIdentityMalformed     = &Error{Code: CodeIdentityMalformed}
	ErrIdentityRejected      = &Error{Code: CodeIdentityRejected}
)

func wrap(code Code, cause error) error { return &Error{Code: code, Err: cause} }

func invalid(msg string) error { return &Error{Code: CodeValidation, Err: validationMsg(msg)} }

type validationMsg string

func (m validationMsg) Error() string { return string(m) }
