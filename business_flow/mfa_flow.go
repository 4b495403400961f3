// Package businessflow contains the core business logic and use cases for admin authentication workflows
package businessflow

import (
	"context"

	"github.com/billnet/admin-api/app/dto"
	"github.com/billnet/admin-api/app/services"
	"github.com/billnet/admin-api/models"
	"github.com/billnet/admin-api/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// MFAFlow represents TOTP enrollment and lifecycle for the authenticated admin
type MFAFlow interface {
	Setup(ctx context.Context, adminID uint, metadata *ClientMetadata) (*dto.MFASetupResponse, error)
	Verify(ctx context.Context, adminID uint, req *dto.MFAVerifyRequest, metadata *ClientMetadata) error
	Disable(ctx context.Context, adminID uint, password string, metadata *ClientMetadata) error
}

// MFAFlowImpl implements MFAFlow
type MFAFlowImpl struct {
	adminRepo    repository.AdminAccountRepository
	activityRepo repository.ActivityLogRepository
	totpService  services.TOTPService
	db           *gorm.DB
}

func NewMFAFlow(
	adminRepo repository.AdminAccountRepository,
	activityRepo repository.ActivityLogRepository,
	totpService services.TOTPService,
	db *gorm.DB,
) MFAFlow {
	return &MFAFlowImpl{
		adminRepo:    adminRepo,
		activityRepo: activityRepo,
		totpService:  totpService,
		db:           db,
	}
}

// Setup generates a fresh secret and stages it on the account. MFA is not live
// until Verify succeeds, so re-running setup before verification simply
// replaces the staged secret.
func (mf *MFAFlowImpl) Setup(ctx context.Context, adminID uint, metadata *ClientMetadata) (*dto.MFASetupResponse, error) {
	admin, err := mf.adminRepo.ByID(ctx, adminID)
	if err != nil {
		return nil, NewBusinessError("INTERNAL_ERROR", "Failed to lookup admin", err)
	}
	if admin == nil {
		return nil, NewBusinessError("NOT_FOUND", "Admin not found", ErrAdminNotFound)
	}
	if admin.MFAEnabled() {
		return nil, NewBusinessError("MFA_ALREADY_ENABLED", "MFA is already enabled", ErrMFAAlreadyEnabled)
	}

	secret, err := mf.totpService.GenerateSecret()
	if err != nil {
		return nil, NewBusinessError("INTERNAL_ERROR", "Failed to generate MFA secret", err)
	}

	if err := mf.adminRepo.StageTwoFASecret(ctx, adminID, secret); err != nil {
		return nil, NewBusinessError("INTERNAL_ERROR", "Failed to stage MFA secret", err)
	}

	qrCode, err := mf.totpService.QRCodeDataURI(admin.Username, secret)
	if err != nil {
		return nil, NewBusinessError("INTERNAL_ERROR", "Failed to render QR code", err)
	}

	return &dto.MFASetupResponse{
		Secret:          secret,
		ProvisioningURI: mf.totpService.ProvisioningURI(admin.Username, secret),
		QRCode:          qrCode,
	}, nil
}

// Verify checks a code against the staged secret and, on success, flips MFA
// live. On failure the secret stays staged so the caller can retry.
func (mf *MFAFlowImpl) Verify(ctx context.Context, adminID uint, req *dto.MFAVerifyRequest, metadata *ClientMetadata) error {
	if req == nil || req.Code == "" {
		return NewBusinessError("VALIDATION_ERROR", "MFA code is required", ErrInvalidMFACode)
	}

	admin, err := mf.adminRepo.ByID(ctx, adminID)
	if err != nil {
		return NewBusinessError("INTERNAL_ERROR", "Failed to lookup admin", err)
	}
	if admin == nil {
		return NewBusinessError("NOT_FOUND", "Admin not found", ErrAdminNotFound)
	}
	if admin.TwoFASecret == nil {
		return NewBusinessError("MFA_NOT_STAGED", "No staged MFA secret; run setup first", ErrMFANotStaged)
	}

	valid, err := mf.totpService.VerifyCode(*admin.TwoFASecret, req.Code)
	if err != nil {
		return NewBusinessError("INTERNAL_ERROR", "Failed to verify MFA code", err)
	}
	if !valid {
		return NewBusinessError("INVALID_MFA_CODE", "Invalid MFA code", ErrInvalidMFACode)
	}

	err = repository.WithTransaction(ctx, mf.db, func(txCtx context.Context) error {
		if err := mf.adminRepo.EnableTwoFA(txCtx, adminID); err != nil {
			return err
		}
		entry := newActivityEntry(&adminID, models.ActionMFAEnabled, metadata, true, "")
		return mf.activityRepo.Save(txCtx, entry)
	})
	if err != nil {
		return NewBusinessError("INTERNAL_ERROR", "Failed to enable MFA", err)
	}

	return nil
}

// Disable requires the current password so a hijacked session cannot silently
// strip MFA from the account.
func (mf *MFAFlowImpl) Disable(ctx context.Context, adminID uint, password string, metadata *ClientMetadata) error {
	if password == "" {
		return NewBusinessError("VALIDATION_ERROR", "Password is required", ErrIncorrectPassword)
	}

	admin, err := mf.adminRepo.ByID(ctx, adminID)
	if err != nil {
		return NewBusinessError("INTERNAL_ERROR", "Failed to lookup admin", err)
	}
	if admin == nil {
		return NewBusinessError("NOT_FOUND", "Admin not found", ErrAdminNotFound)
	}
	if !admin.MFAEnabled() {
		return NewBusinessError("MFA_NOT_ENABLED", "MFA is not enabled", ErrMFANotEnabled)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return NewBusinessError("INVALID_CREDENTIALS", "Incorrect password", ErrIncorrectPassword)
	}

	err = repository.WithTransaction(ctx, mf.db, func(txCtx context.Context) error {
		if err := mf.adminRepo.DisableTwoFA(txCtx, adminID); err != nil {
			return err
		}
		entry := newActivityEntry(&adminID, models.ActionMFADisabled, metadata, true, "")
		return mf.activityRepo.Save(txCtx, entry)
	})
	if err != nil {
		return NewBusinessError("INTERNAL_ERROR", "Failed to disable MFA", err)
	}

	return nil
}
