// Package models contains domain entities and business models for the admin platform
package models

import (
	"encoding/json"
	"time"
)

type ActivityLog struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	AdminID      *uint           `gorm:"index:idx_activity_admin_id" json:"admin_id,omitempty"` // Nullable: logs outlive accounts
	Admin        *AdminAccount   `gorm:"foreignKey:AdminID;references:ID" json:"admin,omitempty"`
	Action       string          `gorm:"size:64;not null;index:idx_activity_action" json:"action"`
	ResourceType *string         `gorm:"size:64" json:"resource_type,omitempty"`
	ResourceID   *string         `gorm:"size:255" json:"resource_id,omitempty"`
	Details      json.RawMessage `gorm:"type:jsonb" json:"details,omitempty"`
	IPAddress    *string         `gorm:"type:inet;index:idx_activity_ip_address" json:"ip_address,omitempty"`
	UserAgent    *string         `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID    *string         `gorm:"size:255;index:idx_activity_request_id" json:"request_id,omitempty"`
	Success      *bool           `gorm:"default:true;index:idx_activity_success" json:"success"`
	ErrorMessage *string         `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time       `gorm:"default:CURRENT_TIMESTAMP;index:idx_activity_created_at" json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "admin_activity_log"
}

// Activity action constants
const (
	ActionLogin           = "LOGIN"
	ActionLoginFailed     = "LOGIN_FAILED"
	ActionLogout          = "LOGOUT"
	ActionMFAEnabled      = "MFA_ENABLED"
	ActionMFADisabled     = "MFA_DISABLED"
	ActionCreateAdminUser = "CREATE_ADMIN_USER"
	ActionUpdateAdminUser = "UPDATE_ADMIN_USER"
	ActionDeleteAdminUser = "DELETE_ADMIN_USER"
)

// ActivityLogFilter represents filter criteria for activity log queries
type ActivityLogFilter struct {
	ID            *uint
	AdminID       *uint
	Action        *string
	Success       *bool
	IPAddress     *string
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *ActivityLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}

// IsSecurityEvent reports whether the entry records a security-sensitive action.
func (a *ActivityLog) IsSecurityEvent() bool {
	securityActions := map[string]bool{
		ActionLogin:       true,
		ActionLoginFailed: true,
		ActionLogout:      true,
		ActionMFAEnabled:  true,
		ActionMFADisabled: true,
	}
	return securityActions[a.Action]
}
