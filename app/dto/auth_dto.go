// Package dto
package dto

// AdminDTO is the admin account representation returned to clients. The
// password hash, MFA secret, and lockout fields never leave the server.
type AdminDTO struct {
	ID              uint     `json:"id" example:"1"`
	UUID            string   `json:"uuid" example:"f47ac10b-58cc-4372-a567-0e02b2c3d479"`
	Username        string   `json:"username" example:"admin"`
	Email           string   `json:"email" example:"admin@example.com"`
	FirstName       string   `json:"first_name" example:"Jane"`
	LastName        string   `json:"last_name" example:"Doe"`
	Role            string   `json:"role" example:"administrator"`
	RoleDisplayName string   `json:"role_display_name,omitempty" example:"Administrator"`
	Permissions     []string `json:"permissions,omitempty"`
	MFAEnabled      bool     `json:"mfa_enabled" example:"false"`
	IsActive        *bool    `json:"is_active" example:"true"`
	LastLoginAt     *string  `json:"last_login_at,omitempty" example:"2024-01-15T10:30:00Z"`
	CreatedAt       string   `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

type AdminSessionDTO struct {
	AccessToken string `json:"access_token" example:"jwt"`
	ExpiresIn   int    `json:"expires_in" example:"28800"`
	TokenType   string `json:"token_type" example:"Bearer"`
	CreatedAt   string `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

type AdminLoginRequest struct {
	Username string `json:"username" validate:"required,min=3,max=255"`
	Password string `json:"password" validate:"required,min=8,max=100"`
	MFACode  string `json:"mfa_code,omitempty" validate:"omitempty,len=6,numeric"`
}

type AdminLoginResponse struct {
	Admin   AdminDTO        `json:"admin"`
	Session AdminSessionDTO `json:"session"`
}

type AdminProfileResponse struct {
	Admin AdminDTO `json:"admin"`
}

type MFASetupResponse struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`
	QRCode          string `json:"qr_code"`
}

type MFAVerifyRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// MFADisableRequest requires the current password, not a TOTP code
type MFADisableRequest struct {
	Password string `json:"password" validate:"required,min=8,max=100"`
}
