// Package models contains domain entities and business models for the admin platform
package models

import (
	"time"

	"github.com/billnet/admin-api/utils"
	"github.com/google/uuid"
)

type AdminSession struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	CorrelationID uuid.UUID    `gorm:"type:uuid;not null;index:idx_admin_sessions_correlation_id" json:"correlation_id"`
	AdminID       uint         `gorm:"not null;index:idx_admin_sessions_admin_id" json:"admin_id"`
	Admin         AdminAccount `gorm:"foreignKey:AdminID;references:ID" json:"admin,omitempty"`
	SessionToken  string       `gorm:"size:1024;not null;uniqueIndex:uk_admin_sessions_token" json:"-"` // Never serialize token
	IPAddress     *string      `gorm:"type:inet;index:idx_admin_sessions_ip_address" json:"ip_address,omitempty"`
	UserAgent     *string      `gorm:"type:text" json:"user_agent,omitempty"`
	IsActive      *bool        `gorm:"default:true;index:idx_admin_sessions_is_active" json:"is_active"`
	CreatedAt     time.Time    `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	ExpiresAt     time.Time    `gorm:"not null;index:idx_admin_sessions_expires_at" json:"expires_at"`
}

func (AdminSession) TableName() string {
	return "admin_sessions"
}

func (s *AdminSession) IsExpired() bool {
	return utils.UTCNow().After(s.ExpiresAt)
}

// IsValid reports whether the session row still authorizes requests. A session
// is valid iff it has not been revoked (logout) and has not passed its fixed
// 8 hour lifetime.
func (s *AdminSession) IsValid() bool {
	return utils.IsTrue(s.IsActive) && !s.IsExpired()
}

// AdminSessionFilter represents filter criteria for session queries
type AdminSessionFilter struct {
	ID            *uint
	CorrelationID *uuid.UUID
	AdminID       *uint
	IsActive      *bool
	IPAddress     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	ExpiresAfter  *time.Time
	ExpiresBefore *time.Time
}
