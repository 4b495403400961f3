// Package businessflow contains the business logic for the admin platform.
package businessflow

import (
	"time"

	"github.com/billnet/admin-api/app/dto"
	"github.com/billnet/admin-api/models"
	"github.com/billnet/admin-api/utils"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for activity logging and session tracking
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// SetSessionID sets the session ID
func (cm *ClientMetadata) SetSessionID(sessionID string) {
	cm.SessionID = sessionID
}

// ipPtr returns a pointer to the IP address, or nil when unknown, so the inet
// column is not fed an empty string.
func (cm *ClientMetadata) ipPtr() *string {
	if cm == nil || cm.IPAddress == "" {
		return nil
	}
	return &cm.IPAddress
}

func (cm *ClientMetadata) userAgentPtr() *string {
	if cm == nil || cm.UserAgent == "" {
		return nil
	}
	return &cm.UserAgent
}

func (cm *ClientMetadata) requestIDPtr() *string {
	if cm == nil || cm.RequestID == "" {
		return nil
	}
	return &cm.RequestID
}

// ToAdminDTO converts an admin account model to its API representation. The
// role row is resolved by the caller; pass nil to omit display name and
// permissions (list views).
func ToAdminDTO(admin models.AdminAccount, role *models.AdminRole) dto.AdminDTO {
	d := dto.AdminDTO{
		ID:         admin.ID,
		UUID:       admin.UUID.String(),
		Username:   admin.Username,
		Email:      admin.Email,
		FirstName:  admin.FirstName,
		LastName:   admin.LastName,
		Role:       admin.Role,
		MFAEnabled: admin.MFAEnabled(),
		IsActive:   admin.IsActive,
		CreatedAt:  admin.CreatedAt.Format(time.RFC3339),
	}
	if admin.LastLoginAt != nil {
		lastLogin := admin.LastLoginAt.Format(time.RFC3339)
		d.LastLoginAt = &lastLogin
	}
	if role != nil {
		d.RoleDisplayName = role.DisplayName
		d.Permissions = flattenPermissions(role.Permissions)
	}
	return d
}

// flattenPermissions renders a permission map as "resource:action" strings
func flattenPermissions(p models.PermissionMap) []string {
	var out []string
	for resource, actions := range p {
		for _, action := range actions {
			out = append(out, resource+":"+action)
		}
	}
	return out
}

func ToAdminSessionDTO(session models.AdminSession) dto.AdminSessionDTO {
	return dto.AdminSessionDTO{
		AccessToken: session.SessionToken,
		ExpiresIn:   int(session.ExpiresAt.Sub(utils.UTCNow()).Seconds()),
		TokenType:   "Bearer",
		CreatedAt:   session.CreatedAt.Format(time.RFC3339),
	}
}

func ToActivityLogDTO(entry models.ActivityLog) dto.ActivityLogDTO {
	d := dto.ActivityLogDTO{
		ID:        entry.ID,
		AdminID:   entry.AdminID,
		Action:    entry.Action,
		Details:   entry.Details,
		Success:   entry.Success,
		CreatedAt: entry.CreatedAt.Format(time.RFC3339),
	}
	if entry.Admin != nil {
		d.AdminUsername = entry.Admin.Username
	}
	if entry.ResourceType != nil {
		d.ResourceType = *entry.ResourceType
	}
	if entry.ResourceID != nil {
		d.ResourceID = *entry.ResourceID
	}
	if entry.IPAddress != nil {
		d.IPAddress = *entry.IPAddress
	}
	if entry.UserAgent != nil {
		d.UserAgent = *entry.UserAgent
	}
	if entry.RequestID != nil {
		d.RequestID = *entry.RequestID
	}
	if entry.ErrorMessage != nil {
		d.ErrorMessage = *entry.ErrorMessage
	}
	return d
}

func ToRoleDTO(role models.AdminRole) dto.RoleDTO {
	d := dto.RoleDTO{
		ID:          role.ID,
		Name:        role.Name,
		DisplayName: role.DisplayName,
		Permissions: role.Permissions,
	}
	if role.Description != nil {
		d.Description = *role.Description
	}
	return d
}
