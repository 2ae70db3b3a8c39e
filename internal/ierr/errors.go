package ierr

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource conflict")
	ErrInternalServer = errors.New("internal server error")
	ErrPersistence    = errors.New("persistence failure")

	ErrKeyNotFound   = errors.New("license key not found")
	ErrKeyInactive   = errors.New("license key is expired or revoked")
	ErrQuotaExceeded = errors.New("download quota exceeded")

	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenNoClaims      = errors.New("token contains no claims")
	ErrLastAdmin          = errors.New("cannot remove the last active super admin")
)
