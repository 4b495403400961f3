// Package businessflow contains the core business logic and use cases for admin authentication workflows
package businessflow

import (
	"context"
	"encoding/json"

	"github.com/billnet/admin-api/app/dto"
	"github.com/billnet/admin-api/models"
	"github.com/billnet/admin-api/repository"
	"github.com/billnet/admin-api/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AdminManagementFlow covers the admin account lifecycle: list, create,
// update, delete, plus the static role listing.
type AdminManagementFlow interface {
	ListAdmins(ctx context.Context, req *dto.ListAdminsRequest) (*dto.ListAdminsResponse, error)
	CreateAdmin(ctx context.Context, actorID uint, req *dto.CreateAdminRequest, metadata *ClientMetadata) (*dto.AdminDTO, error)
	UpdateAdmin(ctx context.Context, actorID uint, targetID uint, req *dto.UpdateAdminRequest, metadata *ClientMetadata) (*dto.AdminDTO, error)
	DeleteAdmin(ctx context.Context, actorID uint, targetID uint, metadata *ClientMetadata) error
	ListRoles(ctx context.Context) (*dto.ListRolesResponse, error)
}

// AdminManagementFlowImpl implements AdminManagementFlow
type AdminManagementFlowImpl struct {
	adminRepo    repository.AdminAccountRepository
	roleRepo     repository.AdminRoleRepository
	sessionRepo  repository.AdminSessionRepository
	activityRepo repository.ActivityLogRepository
	db           *gorm.DB
}

func NewAdminManagementFlow(
	adminRepo repository.AdminAccountRepository,
	roleRepo repository.AdminRoleRepository,
	sessionRepo repository.AdminSessionRepository,
	activityRepo repository.ActivityLogRepository,
	db *gorm.DB,
) AdminManagementFlow {
	return &AdminManagementFlowImpl{
		adminRepo:    adminRepo,
		roleRepo:     roleRepo,
		sessionRepo:  sessionRepo,
		activityRepo: activityRepo,
		db:           db,
	}
}

// ListAdmins returns a sanitized page of admin accounts
func (mf *AdminManagementFlowImpl) ListAdmins(ctx context.Context, req *dto.ListAdminsRequest) (*dto.ListAdminsResponse, error) {
	page, pageSize, err := normalizePagination(req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}

	filter := models.AdminAccountFilter{
		Role:     req.Role,
		IsActive: req.IsActive,
	}

	total, err := mf.adminRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("INTERNAL_ERROR", "Failed to count admins", err)
	}

	admins, err := mf.adminRepo.ByFilter(ctx, filter, "created_at DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("INTERNAL_ERROR", "Failed to list admins", err)
	}

	out := make([]dto.AdminDTO, 0, len(admins))
	for _, admin := range admins {
		out = append(out, ToAdminDTO(*admin, nil))
	}

	return &dto.ListAdminsResponse{
		Admins:   out,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// CreateAdmin hashes the password and inserts the account. Duplicate
// username/email surfaces as a single generic conflict so the caller learns
// nothing beyond "already taken".
func (mf *AdminManagementFlowImpl) CreateAdmin(ctx context.Context, actorID uint, req *dto.CreateAdminRequest, metadata *ClientMetadata) (*dto.AdminDTO, error) {
	if req == nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "Request body is required", ErrAdminNotFound)
	}

	role, err := mf.roleRepo.ByName(ctx, req.Role)
	if err != nil {
		return nil, NewBusinessError("INTERNAL_ERROR", "Failed to lookup role", err)
	}
	if role == nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "Unknown role", ErrRoleNotFound)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), utils.BcryptCost)
	if err != nil {
		return nil, NewBusinessError("INTERNAL_ERROR", "Failed to hash password", err)
	}

	now := utils.UTCNow()
	admin := &models.AdminAccount{
		UUID:         uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         role.Name,
		TwoFAEnabled: utils.ToPtr(false),
		IsActive:     utils.ToPtr(true),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = repository.WithTransaction(ctx, mf.db, func(txCtx context.Context) error {
		if err := mf.adminRepo.Save(txCtx, admin); err != nil {
			return err
		}
		details, _ := json.Marshal(map[string]string{"username": admin.Username, "role": admin.Role})
		entry := newActivityEntry(&actorID, models.ActionCreateAdminUser, metadata, true, "")
		entry.Details = details
		entry.ResourceType = utils.ToPtr("admin_account")
		entry.ResourceID = utils.ToPtr(admin.UUID.String())
		return mf.activityRepo.Save(txCtx, entry)
	})
	if err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, NewBusinessError("DUPLICATE_ADMIN", "Username or email already in use", ErrUsernameExists)
		}
		return nil, NewBusinessError("INTERNAL_ERROR", "Failed to create admin", err)
	}

	out := ToAdminDTO(*admin, nil)
	return &out, nil
}

// UpdateAdmin applies partial updates. Deactivating a super_admin is refused.
func (mf *AdminManagementFlowImpl) UpdateAdmin(ctx context.Context, actorID uint, targetID uint, req *dto.UpdateAdminRequest, metadata *ClientMetadata) (*dto.AdminDTO, error) {
	if req == nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "Request body is required", ErrAdminNotFound)
	}

	admin, err := mf.adminRepo.ByID(ctx, targetID)
	if err != nil {
		return nil, NewBusinessError("INTERNAL_ERROR", "Failed to lookup admin", err)
	}
	if admin == nil {
		return nil, NewBusinessError("NOT_FOUND", "Admin not found", ErrAdminNotFound)
	}

	if admin.Role == models.RoleSuperAdmin && req.IsActive != nil && !*req.IsActive {
		return nil, NewBusinessError("SUPER_ADMIN_PROTECTED", "Super admin accounts cannot be deactivated", ErrSuperAdminProtected)
	}

	if req.Email != nil {
		admin.Email = *req.Email
	}
	if req.FirstName != nil {
		admin.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		admin.LastName = *req.LastName
	}
	if req.Role != nil {
		role, err := mf.roleRepo.ByName(ctx, *req.Role)
		if err != nil {
			return nil, NewBusinessError("INTERNAL_ERROR", "Failed to lookup role", err)
		}
		if role == nil {
			return nil, NewBusinessError("VALIDATION_ERROR", "Unknown role", ErrRoleNotFound)
		}
		admin.Role = role.Name
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), utils.BcryptCost)
		if err != nil {
			return nil, NewBusinessError("INTERNAL_ERROR", "Failed to hash password", err)
		}
		admin.PasswordHash = string(hash)
	}

	deactivated := false
	if req.IsActive != nil {
		deactivated = utils.IsTrue(admin.IsActive) && !*req.IsActive
		admin.IsActive = req.IsActive
	}

	err = repository.WithTransaction(ctx, mf.db, func(txCtx context.Context) error {
		if err := mf.adminRepo.Update(txCtx, admin); err != nil {
			return err
		}
		// A deactivated admin must not keep riding existing sessions.
		if deactivated {
			if err := mf.sessionRepo.RevokeAllAdminSessions(txCtx, admin.ID); err != nil {
				return err
			}
		}
		details, _ := json.Marshal(map[string]string{"username": admin.Username, "role": admin.Role})
		entry := newActivityEntry(&actorID, models.ActionUpdateAdminUser, metadata, true, "")
		entry.Details = details
		entry.ResourceType = utils.ToPtr("admin_account")
		entry.ResourceID = utils.ToPtr(admin.UUID.String())
		return mf.activityRepo.Save(txCtx, entry)
	})
	if err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, NewBusinessError("DUPLICATE_ADMIN", "Username or email already in use", ErrEmailExists)
		}
		return nil, NewBusinessError("INTERNAL_ERROR", "Failed to update admin", err)
	}

	out := ToAdminDTO(*admin, nil)
	return &out, nil
}

// DeleteAdmin hard-deletes an account. Self-deletion and super_admin deletion
// are refused.
func (mf *AdminManagementFlowImpl) DeleteAdmin(ctx context.Context, actorID uint, targetID uint, metadata *ClientMetadata) error {
	if actorID == targetID {
		return NewBusinessError("SELF_DELETION", "Admins cannot delete their own account", ErrSelfDeletion)
	}

	admin, err := mf.adminRepo.ByID(ctx, targetID)
	if err != nil {
		return NewBusinessError("INTERNAL_ERROR", "Failed to lookup admin", err)
	}
	if admin == nil {
		return NewBusinessError("NOT_FOUND", "Admin not found", ErrAdminNotFound)
	}
	if admin.Role == models.RoleSuperAdmin {
		return NewBusinessError("SUPER_ADMIN_PROTECTED", "Super admin accounts cannot be deleted", ErrSuperAdminProtected)
	}

	err = repository.WithTransaction(ctx, mf.db, func(txCtx context.Context) error {
		if err := mf.sessionRepo.RevokeAllAdminSessions(txCtx, admin.ID); err != nil {
			return err
		}
		if err := mf.adminRepo.Delete(txCtx, admin.ID); err != nil {
			return err
		}
		details, _ := json.Marshal(map[string]string{"username": admin.Username, "role": admin.Role})
		entry := newActivityEntry(&actorID, models.ActionDeleteAdminUser, metadata, true, "")
		entry.Details = details
		entry.ResourceType = utils.ToPtr("admin_account")
		entry.ResourceID = utils.ToPtr(admin.UUID.String())
		return mf.activityRepo.Save(txCtx, entry)
	})
	if err != nil {
		return NewBusinessError("INTERNAL_ERROR", "Failed to delete admin", err)
	}

	return nil
}

// ListRoles returns the static role reference data
func (mf *AdminManagementFlowImpl) ListRoles(ctx context.Context) (*dto.ListRolesResponse, error) {
	roles, err := mf.roleRepo.List(ctx)
	if err != nil {
		return nil, NewBusinessError("INTERNAL_ERROR", "Failed to list roles", err)
	}

	out := make([]dto.RoleDTO, 0, len(roles))
	for _, role := range roles {
		out = append(out, ToRoleDTO(*role))
	}

	return &dto.ListRolesResponse{Roles: out}, nil
}

// normalizePagination applies defaults and bounds to page/page_size
func normalizePagination(page, pageSize int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = 20
	}
	if page < 1 {
		return 0, 0, NewBusinessError("VALIDATION_ERROR", "Page must be at least 1", ErrInvalidPage)
	}
	if pageSize < 1 || pageSize > 100 {
		return 0, 0, NewBusinessError("VALIDATION_ERROR", "Page size must be between 1 and 100", ErrInvalidPageSize)
	}
	return page, pageSize, nil
}
