// Package models contains domain entities and business models for the admin platform
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Role name constants
const (
	RoleSuperAdmin       = "super_admin"
	RoleAdministrator    = "administrator"
	RoleModerator        = "moderator"
	RoleAnalyst          = "analyst"
	RoleSupport          = "support"
	RoleContentManager   = "content_manager"
	RoleFinancialManager = "financial_manager"
	RoleAuditor          = "auditor"
)

// PermissionMap maps a resource name to the actions a role may perform on it.
// Stored as jsonb.
type PermissionMap map[string][]string

func (p PermissionMap) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

func (p *PermissionMap) Scan(value any) error {
	if value == nil {
		*p = PermissionMap{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type for PermissionMap: %T", value)
	}
	return json.Unmarshal(raw, p)
}

// Allows reports whether the map grants the given action on the given resource.
func (p PermissionMap) Allows(resource, action string) bool {
	actions, ok := p[resource]
	if !ok {
		return false
	}
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}

type AdminRole struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Name        string        `gorm:"size:64;not null;uniqueIndex:uk_admin_roles_name" json:"name"`
	DisplayName string        `gorm:"size:255;not null" json:"display_name"`
	Description *string       `gorm:"type:text" json:"description,omitempty"`
	Permissions PermissionMap `gorm:"type:jsonb;not null" json:"permissions"`
	CreatedAt   time.Time     `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (AdminRole) TableName() string {
	return "admin_roles"
}

// AdminRoleFilter represents filter criteria for role queries
type AdminRoleFilter struct {
	ID   *uint
	Name *string
}

// DefaultRoles is the static role reference data seeded at bootstrap. The auth
// flow only reads this table; changing it is an administrative operation.
func DefaultRoles() []AdminRole {
	desc := func(s string) *string { return &s }
	return []AdminRole{
		{
			Name:        RoleSuperAdmin,
			DisplayName: "Super Administrator",
			Description: desc("Full access to every resource, including admin user management"),
			Permissions: PermissionMap{
				"admins":        {"read", "create", "update", "delete"},
				"roles":         {"read"},
				"audit_logs":    {"read"},
				"ideas":         {"read", "create", "update", "delete"},
				"businesses":    {"read", "create", "update", "delete"},
				"investments":   {"read", "update"},
				"verifications": {"read", "update"},
				"settings":      {"read", "update"},
			},
		},
		{
			Name:        RoleAdministrator,
			DisplayName: "Administrator",
			Description: desc("Platform management without admin user deletion"),
			Permissions: PermissionMap{
				"admins":        {"read", "create", "update"},
				"roles":         {"read"},
				"audit_logs":    {"read"},
				"ideas":         {"read", "create", "update", "delete"},
				"businesses":    {"read", "create", "update", "delete"},
				"investments":   {"read", "update"},
				"verifications": {"read", "update"},
				"settings":      {"read", "update"},
			},
		},
		{
			Name:        RoleModerator,
			DisplayName: "Moderator",
			Description: desc("Content moderation across ideas and businesses"),
			Permissions: PermissionMap{
				"ideas":         {"read", "update", "delete"},
				"businesses":    {"read", "update"},
				"verifications": {"read"},
				"roles":         {"read"},
			},
		},
		{
			Name:        RoleAnalyst,
			DisplayName: "Analyst",
			Description: desc("Read-only access to platform data"),
			Permissions: PermissionMap{
				"ideas":       {"read"},
				"businesses":  {"read"},
				"investments": {"read"},
				"roles":       {"read"},
			},
		},
		{
			Name:        RoleSupport,
			DisplayName: "Support",
			Description: desc("User-facing support operations"),
			Permissions: PermissionMap{
				"ideas":      {"read"},
				"businesses": {"read"},
				"roles":      {"read"},
			},
		},
		{
			Name:        RoleContentManager,
			DisplayName: "Content Manager",
			Description: desc("Manages published listings and editorial content"),
			Permissions: PermissionMap{
				"ideas":      {"read", "create", "update"},
				"businesses": {"read", "create", "update"},
				"roles":      {"read"},
			},
		},
		{
			Name:        RoleFinancialManager,
			DisplayName: "Financial Manager",
			Description: desc("Oversees investments and payouts"),
			Permissions: PermissionMap{
				"investments": {"read", "update"},
				"businesses":  {"read"},
				"roles":       {"read"},
			},
		},
		{
			Name:        RoleAuditor,
			DisplayName: "Auditor",
			Description: desc("Read-only access to the activity log"),
			Permissions: PermissionMap{
				"audit_logs": {"read"},
				"roles":      {"read"},
			},
		},
	}
}
