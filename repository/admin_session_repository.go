// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/billnet/admin-api/models"
	"github.com/billnet/admin-api/utils"
	"gorm.io/gorm"
)

// AdminSessionRepositoryImpl implements AdminSessionRepository interface
type AdminSessionRepositoryImpl struct {
	*BaseRepository[models.AdminSession, models.AdminSessionFilter]
}

// NewAdminSessionRepository creates a new admin session repository
func NewAdminSessionRepository(db *gorm.DB) AdminSessionRepository {
	return &AdminSessionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.AdminSession, models.AdminSessionFilter](db),
	}
}

// BySessionToken retrieves the active, non-expired session row matching the
// token. Returns nil when no such row exists: a structurally valid token whose
// row was revoked at logout must not authenticate.
func (r *AdminSessionRepositoryImpl) BySessionToken(ctx context.Context, token string) (*models.AdminSession, error) {
	db := r.getDB(ctx)

	var session models.AdminSession
	err := db.Where("session_token = ? AND is_active = ? AND expires_at > ?",
		token, true, utils.UTCNow()).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find session by token: %w", err)
	}

	return &session, nil
}

// ListActiveSessionsByAdmin retrieves all active, non-expired sessions for an admin
func (r *AdminSessionRepositoryImpl) ListActiveSessionsByAdmin(ctx context.Context, adminID uint) ([]*models.AdminSession, error) {
	db := r.getDB(ctx)

	var sessions []*models.AdminSession
	err := db.Where("admin_id = ? AND is_active = ? AND expires_at > ?",
		adminID, true, utils.UTCNow()).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions for admin %d: %w", adminID, err)
	}

	return sessions, nil
}

// RevokeByToken revokes the session row matching the token. The token itself
// stays cryptographically valid until expiry; revocation is authoritative only
// through this row.
func (r *AdminSessionRepositoryImpl) RevokeByToken(ctx context.Context, token string) error {
	db := r.getDB(ctx)

	err := db.Model(&models.AdminSession{}).
		Where("session_token = ?", token).
		Update("is_active", false).Error
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	return nil
}

// RevokeAllAdminSessions revokes every active session belonging to an admin
func (r *AdminSessionRepositoryImpl) RevokeAllAdminSessions(ctx context.Context, adminID uint) error {
	db := r.getDB(ctx)

	err := db.Model(&models.AdminSession{}).
		Where("admin_id = ? AND is_active = ?", adminID, true).
		Update("is_active", false).Error
	if err != nil {
		return fmt.Errorf("failed to revoke sessions for admin %d: %w", adminID, err)
	}

	return nil
}

// CleanupExpiredSessions deletes rows past their expiry. Run periodically;
// expiry itself is enforced by the validation query, not by this job.
func (r *AdminSessionRepositoryImpl) CleanupExpiredSessions(ctx context.Context) error {
	db := r.getDB(ctx)

	err := db.Where("expires_at <= ?", utils.UTCNow()).
		Delete(&models.AdminSession{}).Error
	if err != nil {
		return fmt.Errorf("failed to cleanup expired sessions: %w", err)
	}

	return nil
}

// applyFilter applies filter criteria to a GORM query
func (r *AdminSessionRepositoryImpl) applyFilter(query *gorm.DB, filter models.AdminSessionFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.CorrelationID != nil {
		query = query.Where("correlation_id = ?", *filter.CorrelationID)
	}
	if filter.AdminID != nil {
		query = query.Where("admin_id = ?", *filter.AdminID)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IPAddress != nil {
		query = query.Where("ip_address = ?", *filter.IPAddress)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	if filter.ExpiresAfter != nil {
		query = query.Where("expires_at > ?", *filter.ExpiresAfter)
	}
	if filter.ExpiresBefore != nil {
		query = query.Where("expires_at < ?", *filter.ExpiresBefore)
	}
	return query
}

// ByFilter retrieves sessions based on filter criteria
func (r *AdminSessionRepositoryImpl) ByFilter(ctx context.Context, filter models.AdminSessionFilter, orderBy string, limit, offset int) ([]*models.AdminSession, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.AdminSession{})

	query = r.applyFilter(query, filter)

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

	var sessions []*models.AdminSession
	err := query.Find(&sessions).Error
	if err != nil {
		return nil, err
	}

	return sessions, nil
}

// Count returns the number of sessions matching the filter
func (r *AdminSessionRepositoryImpl) Count(ctx context.Context, filter models.AdminSessionFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.AdminSession{})

	query = r.applyFilter(query, filter)

	var count int64
	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any session matching the filter exists
func (r *AdminSessionRepositoryImpl) Exists(ctx context.Context, filter models.AdminSessionFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
