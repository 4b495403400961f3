// Package businessflow contains the core business logic and use cases for admin authentication workflows
package businessflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/billnet/admin-api/app/dto"
	"github.com/billnet/admin-api/app/services"
	"github.com/billnet/admin-api/models"
	"github.com/billnet/admin-api/repository"
	"github.com/billnet/admin-api/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AdminAuthFlow represents the admin authentication flow used by handlers
type AdminAuthFlow interface {
	Login(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error)
	Logout(ctx context.Context, sessionToken string, adminID uint, metadata *ClientMetadata) error
	Profile(ctx context.Context, adminID uint) (*dto.AdminProfileResponse, error)
}

// AdminAuthFlowImpl implements the login handshake, logout, and profile lookup
type AdminAuthFlowImpl struct {
	adminRepo    repository.AdminAccountRepository
	sessionRepo  repository.AdminSessionRepository
	roleRepo     repository.AdminRoleRepository
	activityRepo repository.ActivityLogRepository
	tokenService services.TokenService
	totpService  services.TOTPService
	sessionCache services.SessionCache
	db           *gorm.DB
}

func NewAdminAuthFlow(
	adminRepo repository.AdminAccountRepository,
	sessionRepo repository.AdminSessionRepository,
	roleRepo repository.AdminRoleRepository,
	activityRepo repository.ActivityLogRepository,
	tokenService services.TokenService,
	totpService services.TOTPService,
	sessionCache services.SessionCache,
	db *gorm.DB,
) AdminAuthFlow {
	return &AdminAuthFlowImpl{
		adminRepo:    adminRepo,
		sessionRepo:  sessionRepo,
		roleRepo:     roleRepo,
		activityRepo: activityRepo,
		tokenService: tokenService,
		totpService:  totpService,
		sessionCache: sessionCache,
		db:           db,
	}
}

// Login runs the ordered credential handshake. Every step short-circuits on
// failure, and failures are logged before returning.
func (af *AdminAuthFlowImpl) Login(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error) {
	if req == nil || len(req.Username) == 0 || len(req.Password) == 0 {
		return nil, NewBusinessError("VALIDATION_ERROR", "Username and password are required", ErrIncorrectPassword)
	}

	// Lookup never distinguishes unknown username from wrong password in the
	// response, to prevent user enumeration.
	admin, err := af.adminRepo.ByUsername(ctx, req.Username)
	if err != nil {
		return nil, NewBusinessError("INTERNAL_ERROR", "Failed to lookup admin", err)
	}
	if admin == nil || !utils.IsTrue(admin.IsActive) {
		af.logLoginFailure(ctx, nil, req.Username, "unknown or inactive account", metadata)
		return nil, NewBusinessError("INVALID_CREDENTIALS", "Invalid username or password", ErrAdminNotFound)
	}

	if admin.IsLocked() {
		af.logLoginFailure(ctx, &admin.ID, req.Username, "account locked", metadata)
		return nil, NewBusinessError("ACCOUNT_LOCKED", "Account is temporarily locked", ErrAccountLocked).
			WithDetails(map[string]any{"locked_until": admin.LockedUntil.UTC().Format(time.RFC3339)})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		attempts, _, ferr := af.adminRepo.RegisterFailedAttempt(ctx, admin.ID, utils.MaxLoginAttempts, utils.UTCNowAdd(utils.LockoutDuration))
		if ferr != nil {
			return nil, NewBusinessError("INTERNAL_ERROR", "Failed to record login attempt", ferr)
		}
		af.logLoginFailure(ctx, &admin.ID, req.Username, "incorrect password", metadata)

		remaining := utils.MaxLoginAttempts - attempts
		if remaining < 0 {
			remaining = 0
		}
		return nil, NewBusinessError("INVALID_CREDENTIALS", "Invalid username or password", ErrIncorrectPassword).
			WithDetails(map[string]any{"attempts_remaining": remaining})
	}

	// MFA challenge. A missing code is a challenge, not a failed attempt; an
	// invalid code does not touch the password-attempt counter either.
	if admin.MFAEnabled() {
		if req.MFACode == "" {
			return nil, NewBusinessError("MFA_REQUIRED", "MFA code required", ErrMFARequired).
				WithDetails(map[string]any{"mfa_required": true})
		}
		valid, verr := af.totpService.VerifyCode(*admin.TwoFASecret, req.MFACode)
		if verr != nil {
			return nil, NewBusinessError("INTERNAL_ERROR", "Failed to verify MFA code", verr)
		}
		if !valid {
			af.logLoginFailure(ctx, &admin.ID, req.Username, "invalid MFA code", metadata)
			return nil, NewBusinessError("INVALID_MFA_CODE", "Invalid MFA code", ErrInvalidMFACode)
		}
	}

	token, expiresAt, err := af.tokenService.GenerateAdminToken(admin.ID, admin.Username, admin.Role)
	if err != nil {
		return nil, NewBusinessError("INTERNAL_ERROR", "Failed to generate session token", err)
	}

	now := utils.UTCNow()
	session := &models.AdminSession{
		CorrelationID: uuid.New(),
		AdminID:       admin.ID,
		SessionToken:  token,
		IPAddress:     metadata.ipPtr(),
		UserAgent:     metadata.userAgentPtr(),
		IsActive:      utils.ToPtr(true),
		CreatedAt:     now,
		ExpiresAt:     expiresAt,
	}

	// Counter reset, session insert, and activity entry commit together.
	err = repository.WithTransaction(ctx, af.db, func(txCtx context.Context) error {
		if err := af.adminRepo.MarkLoginSuccess(txCtx, admin.ID, now); err != nil {
			return err
		}
		if err := af.sessionRepo.Save(txCtx, session); err != nil {
			return err
		}
		entry := newActivityEntry(&admin.ID, models.ActionLogin, metadata, true, "")
		return af.activityRepo.Save(txCtx, entry)
	})
	if err != nil {
		return nil, NewBusinessError("INTERNAL_ERROR", "Failed to establish session", err)
	}

	_ = af.sessionCache.Set(ctx, token, services.CachedSession{AdminID: admin.ID, ExpiresAt: expiresAt})

	admin.LoginAttempts = 0
	admin.LockedUntil = nil
	admin.LastLoginAt = &now

	role := af.resolveRole(ctx, admin.Role)
	return &dto.AdminLoginResponse{
		Admin:   ToAdminDTO(*admin, role),
		Session: ToAdminSessionDTO(*session),
	}, nil
}

// Logout revokes the presented session row and drops the cache entry. The JWT
// stays signed-valid until its embedded expiry; revocation is authoritative
// through the row check.
func (af *AdminAuthFlowImpl) Logout(ctx context.Context, sessionToken string, adminID uint, metadata *ClientMetadata) error {
	if sessionToken == "" {
		return NewBusinessError("SESSION_INVALID", "Session token is required", ErrSessionInvalid)
	}

	err := repository.WithTransaction(ctx, af.db, func(txCtx context.Context) error {
		if err := af.sessionRepo.RevokeByToken(txCtx, sessionToken); err != nil {
			return err
		}
		entry := newActivityEntry(&adminID, models.ActionLogout, metadata, true, "")
		return af.activityRepo.Save(txCtx, entry)
	})
	if err != nil {
		return NewBusinessError("INTERNAL_ERROR", "Failed to revoke session", err)
	}

	_ = af.sessionCache.Delete(ctx, sessionToken)
	return nil
}

// Profile returns the sanitized profile of the authenticated admin
func (af *AdminAuthFlowImpl) Profile(ctx context.Context, adminID uint) (*dto.AdminProfileResponse, error) {
	admin, err := af.adminRepo.ByID(ctx, adminID)
	if err != nil {
		return nil, NewBusinessError("INTERNAL_ERROR", "Failed to lookup admin", err)
	}
	if admin == nil {
		return nil, NewBusinessError("NOT_FOUND", "Admin not found", ErrAdminNotFound)
	}

	role := af.resolveRole(ctx, admin.Role)
	return &dto.AdminProfileResponse{Admin: ToAdminDTO(*admin, role)}, nil
}

// resolveRole loads the role row; a missing role yields no permissions rather
// than an error, so a stale role name cannot break login.
func (af *AdminAuthFlowImpl) resolveRole(ctx context.Context, roleName string) *models.AdminRole {
	role, err := af.roleRepo.ByName(ctx, roleName)
	if err != nil {
		return nil
	}
	return role
}

// logLoginFailure appends a LOGIN_FAILED entry outside the login transaction;
// failed handshakes must be recorded even though the handshake itself aborts.
func (af *AdminAuthFlowImpl) logLoginFailure(ctx context.Context, adminID *uint, username, reason string, metadata *ClientMetadata) {
	details, _ := json.Marshal(map[string]string{"username": username})
	entry := newActivityEntry(adminID, models.ActionLoginFailed, metadata, false, reason)
	entry.Details = details
	_ = af.activityRepo.Save(ctx, entry)
}

// newActivityEntry builds an activity log row from client metadata
func newActivityEntry(adminID *uint, action string, metadata *ClientMetadata, success bool, errorMessage string) *models.ActivityLog {
	entry := &models.ActivityLog{
		AdminID:   adminID,
		Action:    action,
		IPAddress: metadata.ipPtr(),
		UserAgent: metadata.userAgentPtr(),
		RequestID: metadata.requestIDPtr(),
		Success:   utils.ToPtr(success),
		CreatedAt: utils.UTCNow(),
	}
	if errorMessage != "" {
		entry.ErrorMessage = &errorMessage
	}
	return entry
}
