// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/billnet/admin-api/models"
	"github.com/billnet/admin-api/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdminAccountRepositoryImpl implements AdminAccountRepository interface
type AdminAccountRepositoryImpl struct {
	*BaseRepository[models.AdminAccount, models.AdminAccountFilter]
}

// NewAdminAccountRepository creates a new admin account repository
func NewAdminAccountRepository(db *gorm.DB) AdminAccountRepository {
	return &AdminAccountRepositoryImpl{
		BaseRepository: NewBaseRepository[models.AdminAccount, models.AdminAccountFilter](db),
	}
}

// ByUsername retrieves an admin account by username
func (r *AdminAccountRepositoryImpl) ByUsername(ctx context.Context, username string) (*models.AdminAccount, error) {
	filter := models.AdminAccountFilter{Username: &username}
	accounts, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return accounts[0], nil
}

// ByEmail retrieves an admin account by email
func (r *AdminAccountRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.AdminAccount, error) {
	filter := models.AdminAccountFilter{Email: &email}
	accounts, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return accounts[0], nil
}

// ByUUID retrieves an admin account by UUID
func (r *AdminAccountRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.AdminAccount, error) {
	filter := models.AdminAccountFilter{UUID: &id}
	accounts, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return accounts[0], nil
}

// RegisterFailedAttempt increments login_attempts and sets locked_until in a
// single conditional UPDATE evaluated by the database, so two racing failed
// logins cannot lose an increment (no read-modify-write in application code).
func (r *AdminAccountRepositoryImpl) RegisterFailedAttempt(ctx context.Context, adminID uint, threshold int, lockUntil time.Time) (int, *time.Time, error) {
	db := r.getDB(ctx)

	var row struct {
		LoginAttempts int
		LockedUntil   *time.Time
	}
	err := db.Raw(`
		UPDATE admin_accounts
		SET login_attempts = login_attempts + 1,
		    locked_until = CASE WHEN login_attempts + 1 >= ? THEN ? ELSE locked_until END,
		    updated_at = ?
		WHERE id = ?
		RETURNING login_attempts, locked_until`,
		threshold, lockUntil, utils.UTCNow(), adminID).Scan(&row).Error
	if err != nil {
		return 0, nil, fmt.Errorf("failed to register failed login attempt for admin %d: %w", adminID, err)
	}

	return row.LoginAttempts, row.LockedUntil, nil
}

// MarkLoginSuccess resets login_attempts to 0, clears locked_until, and stamps
// last_login_at.
func (r *AdminAccountRepositoryImpl) MarkLoginSuccess(ctx context.Context, adminID uint, at time.Time) error {
	db := r.getDB(ctx)

	err := db.Model(&models.AdminAccount{}).
		Where("id = ?", adminID).
		Updates(map[string]any{
			"login_attempts": 0,
			"locked_until":   nil,
			"last_login_at":  at,
			"updated_at":     utils.UTCNow(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark login success for admin %d: %w", adminID, err)
	}

	return nil
}

// StageTwoFASecret persists a new TOTP secret without enabling MFA. The secret
// only becomes live once EnableTwoFA is called after a successful code check.
func (r *AdminAccountRepositoryImpl) StageTwoFASecret(ctx context.Context, adminID uint, secret string) error {
	db := r.getDB(ctx)

	err := db.Model(&models.AdminAccount{}).
		Where("id = ?", adminID).
		Updates(map[string]any{
			"two_fa_secret":  secret,
			"two_fa_enabled": false,
			"updated_at":     utils.UTCNow(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to stage MFA secret for admin %d: %w", adminID, err)
	}

	return nil
}

// EnableTwoFA flips the MFA flag on once the staged secret has been verified
func (r *AdminAccountRepositoryImpl) EnableTwoFA(ctx context.Context, adminID uint) error {
	db := r.getDB(ctx)

	err := db.Model(&models.AdminAccount{}).
		Where("id = ?", adminID).
		Updates(map[string]any{
			"two_fa_enabled": true,
			"updated_at":     utils.UTCNow(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to enable MFA for admin %d: %w", adminID, err)
	}

	return nil
}

// DisableTwoFA clears both the flag and the stored secret
func (r *AdminAccountRepositoryImpl) DisableTwoFA(ctx context.Context, adminID uint) error {
	db := r.getDB(ctx)

	err := db.Model(&models.AdminAccount{}).
		Where("id = ?", adminID).
		Updates(map[string]any{
			"two_fa_enabled": false,
			"two_fa_secret":  nil,
			"updated_at":     utils.UTCNow(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to disable MFA for admin %d: %w", adminID, err)
	}

	return nil
}

// Update persists changes to an existing admin account
func (r *AdminAccountRepositoryImpl) Update(ctx context.Context, account *models.AdminAccount) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	account.UpdatedAt = utils.UTCNow()
	err = db.Save(account).Error
	if err != nil {
		return fmt.Errorf("failed to update admin account %d: %w", account.ID, err)
	}

	return nil
}

// Delete hard-deletes an admin account. Lifecycle guards (no self-delete, no
// super_admin delete) live in the business flow.
func (r *AdminAccountRepositoryImpl) Delete(ctx context.Context, adminID uint) error {
	db := r.getDB(ctx)

	err := db.Delete(&models.AdminAccount{}, adminID).Error
	if err != nil {
		return fmt.Errorf("failed to delete admin account %d: %w", adminID, err)
	}

	return nil
}

// applyFilter applies filter criteria to a GORM query
func (r *AdminAccountRepositoryImpl) applyFilter(query *gorm.DB, filter models.AdminAccountFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Username != nil {
		query = query.Where("username = ?", *filter.Username)
	}
	if filter.Email != nil {
		query = query.Where("email = ?", *filter.Email)
	}
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	if filter.LastLoginAfter != nil {
		query = query.Where("last_login_at > ?", *filter.LastLoginAfter)
	}
	if filter.LastLoginBefore != nil {
		query = query.Where("last_login_at < ?", *filter.LastLoginBefore)
	}
	return query
}

// ByFilter retrieves admin accounts based on filter criteria
func (r *AdminAccountRepositoryImpl) ByFilter(ctx context.Context, filter models.AdminAccountFilter, orderBy string, limit, offset int) ([]*models.AdminAccount, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.AdminAccount{})

	query = r.applyFilter(query, filter)

	// Apply ordering (default to id DESC)
	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var accounts []*models.AdminAccount
	err := query.Find(&accounts).Error
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

// Count returns the number of admin accounts matching the filter
func (r *AdminAccountRepositoryImpl) Count(ctx context.Context, filter models.AdminAccountFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.AdminAccount{})

	query = r.applyFilter(query, filter)

	var count int64
	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any admin account matching the filter exists
func (r *AdminAccountRepositoryImpl) Exists(ctx context.Context, filter models.AdminAccountFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsDuplicateKey reports whether the error is a unique-constraint violation,
// translated by the driver into gorm's sentinel.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
