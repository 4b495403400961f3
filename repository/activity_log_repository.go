// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"

	"github.com/billnet/admin-api/models"
	"gorm.io/gorm"
)

// ActivityLogRepositoryImpl implements ActivityLogRepository interface
type ActivityLogRepositoryImpl struct {
	*BaseRepository[models.ActivityLog, models.ActivityLogFilter]
}

// NewActivityLogRepository creates a new activity log repository
func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &ActivityLogRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ActivityLog, models.ActivityLogFilter](db),
	}
}

// ListRecent retrieves activity log entries newest-first with pagination
func (r *ActivityLogRepositoryImpl) ListRecent(ctx context.Context, limit, offset int) ([]*models.ActivityLog, error) {
	db := r.getDB(ctx)

	var logs []*models.ActivityLog
	err := db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Preload("Admin").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list activity log entries: %w", err)
	}

	return logs, nil
}

// ListByAdmin retrieves activity log entries for a specific admin with pagination
func (r *ActivityLogRepositoryImpl) ListByAdmin(ctx context.Context, adminID uint, limit, offset int) ([]*models.ActivityLog, error) {
	db := r.getDB(ctx)

	var logs []*models.ActivityLog
	err := db.Where("admin_id = ?", adminID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Preload("Admin").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list activity log entries by admin: %w", err)
	}

	return logs, nil
}

// ListByAction retrieves activity log entries for a specific action with pagination
func (r *ActivityLogRepositoryImpl) ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.ActivityLog, error) {
	db := r.getDB(ctx)

	var logs []*models.ActivityLog
	err := db.Where("action = ?", action).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Preload("Admin").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list activity log entries by action: %w", err)
	}

	return logs, nil
}

// ListSecurityEvents retrieves security-related activity log entries with pagination
func (r *ActivityLogRepositoryImpl) ListSecurityEvents(ctx context.Context, limit, offset int) ([]*models.ActivityLog, error) {
	db := r.getDB(ctx)

	securityActions := []string{
		models.ActionLogin,
		models.ActionLoginFailed,
		models.ActionLogout,
		models.ActionMFAEnabled,
		models.ActionMFADisabled,
	}

	var logs []*models.ActivityLog
	err := db.Where("action IN ?", securityActions).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Preload("Admin").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list security activity log entries: %w", err)
	}

	return logs, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *ActivityLogRepositoryImpl) applyFilter(query *gorm.DB, filter models.ActivityLogFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.AdminID != nil {
		query = query.Where("admin_id = ?", *filter.AdminID)
	}
	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}
	if filter.Success != nil {
		query = query.Where("success = ?", *filter.Success)
	}
	if filter.IPAddress != nil {
		query = query.Where("ip_address = ?", *filter.IPAddress)
	}
	if filter.RequestID != nil {
		query = query.Where("request_id = ?", *filter.RequestID)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves activity log entries based on filter criteria
func (r *ActivityLogRepositoryImpl) ByFilter(ctx context.Context, filter models.ActivityLogFilter, orderBy string, limit, offset int) ([]*models.ActivityLog, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.ActivityLog{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "created_at DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var logs []*models.ActivityLog
	err := query.Find(&logs).Error
	if err != nil {
		return nil, err
	}

	return logs, nil
}

// Count returns the number of activity log entries matching the filter
func (r *ActivityLogRepositoryImpl) Count(ctx context.Context, filter models.ActivityLogFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.ActivityLog{})

	query = r.applyFilter(query, filter)

	var count int64
	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any activity log entry matching the filter exists
func (r *ActivityLogRepositoryImpl) Exists(ctx context.Context, filter models.ActivityLogFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
