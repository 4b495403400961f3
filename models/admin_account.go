// Package models contains domain entities and business models for the admin platform
package models

import (
	"time"

	"github.com/billnet/admin-api/utils"
	"github.com/google/uuid"
)

type AdminAccount struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_admin_accounts_uuid" json:"uuid"`
	Username     string    `gorm:"size:255;not null;uniqueIndex:uk_admin_accounts_username" json:"username"`
	Email        string    `gorm:"size:255;not null;uniqueIndex:uk_admin_accounts_email" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	FirstName    string    `gorm:"size:255" json:"first_name"`
	LastName     string    `gorm:"size:255" json:"last_name"`

	Role string `gorm:"size:64;not null;index:idx_admin_accounts_role" json:"role"`

	// TwoFASecret is staged by MFA setup and only considered live once
	// TwoFAEnabled is set. Never serialized.
	TwoFASecret  *string `gorm:"size:255" json:"-"`
	TwoFAEnabled *bool   `gorm:"default:false" json:"two_fa_enabled"`

	IsActive      *bool      `gorm:"default:true;index:idx_admin_accounts_is_active" json:"is_active"`
	LoginAttempts int        `gorm:"not null;default:0" json:"-"`
	LockedUntil   *time.Time `json:"-"`

	LastLoginAt *time.Time `gorm:"index:idx_admin_accounts_last_login_at" json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_admin_accounts_created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (AdminAccount) TableName() string {
	return "admin_accounts"
}

// IsLocked reports whether the account is currently inside a lockout window.
func (a *AdminAccount) IsLocked() bool {
	return a.LockedUntil != nil && utils.UTCNow().Before(*a.LockedUntil)
}

// MFAEnabled reports whether a verified TOTP secret is live on the account.
func (a *AdminAccount) MFAEnabled() bool {
	return utils.IsTrue(a.TwoFAEnabled) && a.TwoFASecret != nil
}

// AdminAccountFilter represents filter criteria for admin account queries
type AdminAccountFilter struct {
	ID              *uint
	UUID            *uuid.UUID
	Username        *string
	Email           *string
	Role            *string
	IsActive        *bool
	CreatedAfter    *time.Time
	CreatedBefore   *time.Time
	LastLoginAfter  *time.Time
	LastLoginBefore *time.Time
}
