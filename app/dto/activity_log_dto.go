// Package dto
package dto

import "encoding/json"

type ActivityLogDTO struct {
	ID            uint            `json:"id"`
	AdminID       *uint           `json:"admin_id,omitempty"`
	AdminUsername string          `json:"admin_username,omitempty"`
	Action        string          `json:"action"`
	ResourceType  string          `json:"resource_type,omitempty"`
	ResourceID    string          `json:"resource_id,omitempty"`
	Details       json.RawMessage `json:"details,omitempty"`
	IPAddress     string          `json:"ip_address,omitempty"`
	UserAgent     string          `json:"user_agent,omitempty"`
	RequestID     string          `json:"request_id,omitempty"`
	Success       *bool           `json:"success"`
	ErrorMessage  string          `json:"error_message,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

type ListActivityLogRequest struct {
	Limit        int     `json:"limit" query:"limit" validate:"omitempty,min=1,max=100"`
	Offset       int     `json:"offset" query:"offset" validate:"omitempty,min=0"`
	AdminID      *uint   `json:"admin_id" query:"admin_id"`
	Action       *string `json:"action" query:"action" validate:"omitempty,max=100"`
	SecurityOnly bool    `json:"security_only" query:"security_only"`
}

type ListActivityLogResponse struct {
	Entries []ActivityLogDTO `json:"entries"`
	Total   int64            `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}
