package utils

import (
	"time"
)

// Token and session time constants
const (
	// SessionTTL is the fixed lifetime of an admin session (8 hours)
	SessionTTL = 8 * time.Hour

	// SessionTTLSeconds is the session lifetime in seconds (28800 seconds = 8 hours)
	SessionTTLSeconds = 28800
)

// Lockout constants
const (
	// MaxLoginAttempts is the number of consecutive failed password attempts
	// before an account is locked
	MaxLoginAttempts = 5

	// LockoutDuration is how long an account stays locked once the threshold
	// is reached
	LockoutDuration = 15 * time.Minute
)

// MFA constants
const (
	// TOTPDigits is the number of digits in a time-based one-time code
	TOTPDigits = 6

	// TOTPPeriod is the TOTP time step in seconds
	TOTPPeriod = 30

	// TOTPSkew is the tolerance window in time steps on each side of now,
	// to absorb clock drift between server and authenticator app
	TOTPSkew = 2
)

// Password hashing
const (
	// BcryptCost is the bcrypt cost factor for admin password hashes
	BcryptCost = 10
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)
