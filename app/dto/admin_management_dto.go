// Package dto
package dto

type CreateAdminRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=255,alphanum"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=100"`
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name" validate:"required,min=1,max=100"`
	Role      string `json:"role" validate:"required,min=3,max=50"`
}

// UpdateAdminRequest carries partial updates; nil fields are left untouched
type UpdateAdminRequest struct {
	Email     *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Password  *string `json:"password,omitempty" validate:"omitempty,min=8,max=100"`
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,min=1,max=100"`
	Role      *string `json:"role,omitempty" validate:"omitempty,min=3,max=50"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

type ListAdminsRequest struct {
	Page     int     `json:"page" query:"page" validate:"omitempty,min=1"`
	PageSize int     `json:"page_size" query:"page_size" validate:"omitempty,min=1,max=100"`
	Role     *string `json:"role" query:"role" validate:"omitempty,min=3,max=50"`
	IsActive *bool   `json:"is_active" query:"is_active"`
}

type ListAdminsResponse struct {
	Admins   []AdminDTO `json:"admins"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

type RoleDTO struct {
	ID          uint                `json:"id"`
	Name        string              `json:"name"`
	DisplayName string              `json:"display_name"`
	Description string              `json:"description"`
	Permissions map[string][]string `json:"permissions"`
}

type ListRolesResponse struct {
	Roles []RoleDTO `json:"roles"`
}
