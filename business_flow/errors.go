// Package businessflow contains the core business logic and use cases for admin authentication workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Admin account errors
	ErrAdminNotFound       = errors.New("admin not found")
	ErrAdminInactive       = errors.New("admin account is inactive")
	ErrIncorrectPassword   = errors.New("incorrect password")
	ErrAccountLocked       = errors.New("account is locked")
	ErrUsernameExists      = errors.New("username already exists")
	ErrEmailExists         = errors.New("email already exists")
	ErrRoleNotFound        = errors.New("role not found")
	ErrSuperAdminProtected = errors.New("super admin accounts cannot be deactivated or deleted")
	ErrSelfDeletion        = errors.New("admins cannot delete their own account")

	// MFA errors
	ErrMFARequired       = errors.New("MFA code required")
	ErrInvalidMFACode    = errors.New("invalid MFA code")
	ErrMFANotEnabled     = errors.New("MFA is not enabled")
	ErrMFAAlreadyEnabled = errors.New("MFA is already enabled")
	ErrMFANotStaged      = errors.New("no staged MFA secret to verify")

	// Session errors
	ErrSessionInvalid = errors.New("session is invalid or has been revoked")
	ErrSessionExpired = errors.New("session has expired")

	// Permission errors
	ErrInsufficientPermissions = errors.New("insufficient permissions")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
	ErrInvalidLimit    = errors.New("limit must be between 1 and 100")
	ErrInvalidOffset   = errors.New("offset must not be negative")

	ErrCacheNotAvailable = errors.New("cache not available")
)

// BusinessError carries a machine-readable code for the HTTP layer plus an
// optional Details payload surfaced to the client (locked_until,
// attempts_remaining, mfa_required).
type BusinessError struct {
	Code    string
	Message string
	Err     error
	Details any
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

// WithDetails attaches a client-visible details payload
func (e *BusinessError) WithDetails(details any) *BusinessError {
	e.Details = details
	return e
}

func IsAdminNotFound(err error) bool {
	return errors.Is(err, ErrAdminNotFound)
}

func IsAdminInactive(err error) bool {
	return errors.Is(err, ErrAdminInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsAccountLocked(err error) bool {
	return errors.Is(err, ErrAccountLocked)
}

func IsUsernameExists(err error) bool {
	return errors.Is(err, ErrUsernameExists)
}

func IsEmailExists(err error) bool {
	return errors.Is(err, ErrEmailExists)
}

func IsRoleNotFound(err error) bool {
	return errors.Is(err, ErrRoleNotFound)
}

func IsSuperAdminProtected(err error) bool {
	return errors.Is(err, ErrSuperAdminProtected)
}

func IsSelfDeletion(err error) bool {
	return errors.Is(err, ErrSelfDeletion)
}

func IsMFARequired(err error) bool {
	return errors.Is(err, ErrMFARequired)
}

func IsInvalidMFACode(err error) bool {
	return errors.Is(err, ErrInvalidMFACode)
}

func IsMFANotEnabled(err error) bool {
	return errors.Is(err, ErrMFANotEnabled)
}

func IsMFAAlreadyEnabled(err error) bool {
	return errors.Is(err, ErrMFAAlreadyEnabled)
}

func IsMFANotStaged(err error) bool {
	return errors.Is(err, ErrMFANotStaged)
}

func IsSessionInvalid(err error) bool {
	return errors.Is(err, ErrSessionInvalid)
}

func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}

func IsInsufficientPermissions(err error) bool {
	return errors.Is(err, ErrInsufficientPermissions)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}

func IsInvalidLimit(err error) bool {
	return errors.Is(err, ErrInvalidLimit)
}

func IsInvalidOffset(err error) bool {
	return errors.Is(err, ErrInvalidOffset)
}

func IsCacheNotAvailable(err error) bool {
	return errors.Is(err, ErrCacheNotAvailable)
}
