// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/billnet/admin-api/models"
	"github.com/google/uuid"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// AdminAccountRepository defines operations for admin accounts
type AdminAccountRepository interface {
	Repository[models.AdminAccount, models.AdminAccountFilter]
	ByUsername(ctx context.Context, username string) (*models.AdminAccount, error)
	ByEmail(ctx context.Context, email string) (*models.AdminAccount, error)
	ByUUID(ctx context.Context, uuid uuid.UUID) (*models.AdminAccount, error)

	// RegisterFailedAttempt atomically increments the failed-login counter and,
	// when the new count reaches the lockout threshold, sets locked_until in
	// the same statement. Returns the post-increment counter and lock time.
	RegisterFailedAttempt(ctx context.Context, adminID uint, threshold int, lockUntil time.Time) (int, *time.Time, error)

	// MarkLoginSuccess resets the counter, clears the lock, and stamps last_login_at.
	MarkLoginSuccess(ctx context.Context, adminID uint, at time.Time) error

	StageTwoFASecret(ctx context.Context, adminID uint, secret string) error
	EnableTwoFA(ctx context.Context, adminID uint) error
	DisableTwoFA(ctx context.Context, adminID uint) error

	Update(ctx context.Context, account *models.AdminAccount) error
	Delete(ctx context.Context, adminID uint) error
}

// AdminSessionRepository defines operations for admin sessions
type AdminSessionRepository interface {
	Repository[models.AdminSession, models.AdminSessionFilter]
	BySessionToken(ctx context.Context, token string) (*models.AdminSession, error)
	ListActiveSessionsByAdmin(ctx context.Context, adminID uint) ([]*models.AdminSession, error)
	RevokeByToken(ctx context.Context, token string) error
	RevokeAllAdminSessions(ctx context.Context, adminID uint) error
	CleanupExpiredSessions(ctx context.Context) error
}

// AdminRoleRepository defines operations for the static role reference table
type AdminRoleRepository interface {
	Repository[models.AdminRole, models.AdminRoleFilter]
	ByName(ctx context.Context, name string) (*models.AdminRole, error)
	List(ctx context.Context) ([]*models.AdminRole, error)
}

// ActivityLogRepository defines operations for the append-only activity log
type ActivityLogRepository interface {
	Repository[models.ActivityLog, models.ActivityLogFilter]
	ListRecent(ctx context.Context, limit, offset int) ([]*models.ActivityLog, error)
	ListByAdmin(ctx context.Context, adminID uint, limit, offset int) ([]*models.ActivityLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.ActivityLog, error)
	ListSecurityEvents(ctx context.Context, limit, offset int) ([]*models.ActivityLog, error)
}
