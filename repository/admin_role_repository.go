// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"

	"github.com/billnet/admin-api/models"
	"gorm.io/gorm"
)

// AdminRoleRepositoryImpl implements AdminRoleRepository interface. The role
// table is static reference data: the auth flow only ever reads it.
type AdminRoleRepositoryImpl struct {
	*BaseRepository[models.AdminRole, models.AdminRoleFilter]
}

// NewAdminRoleRepository creates a new admin role repository
func NewAdminRoleRepository(db *gorm.DB) AdminRoleRepository {
	return &AdminRoleRepositoryImpl{
		BaseRepository: NewBaseRepository[models.AdminRole, models.AdminRoleFilter](db),
	}
}

// ByName retrieves a role by its unique name
func (r *AdminRoleRepositoryImpl) ByName(ctx context.Context, name string) (*models.AdminRole, error) {
	filter := models.AdminRoleFilter{Name: &name}
	roles, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, nil
	}
	return roles[0], nil
}

// List retrieves all roles ordered by name
func (r *AdminRoleRepositoryImpl) List(ctx context.Context) ([]*models.AdminRole, error) {
	return r.ByFilter(ctx, models.AdminRoleFilter{}, "name ASC", 0, 0)
}

// applyFilter applies filter criteria to a GORM query
func (r *AdminRoleRepositoryImpl) applyFilter(query *gorm.DB, filter models.AdminRoleFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	return query
}

// ByFilter retrieves roles based on filter criteria
func (r *AdminRoleRepositoryImpl) ByFilter(ctx context.Context, filter models.AdminRoleFilter, orderBy string, limit, offset int) ([]*models.AdminRole, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.AdminRole{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "id ASC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var roles []*models.AdminRole
	err := query.Find(&roles).Error
	if err != nil {
		return nil, err
	}

	return roles, nil
}

// Count returns the number of roles matching the filter
func (r *AdminRoleRepositoryImpl) Count(ctx context.Context, filter models.AdminRoleFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.AdminRole{})

	query = r.applyFilter(query, filter)

	var count int64
	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any role matching the filter exists
func (r *AdminRoleRepositoryImpl) Exists(ctx context.Context, filter models.AdminRoleFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SeedDefaultRoles inserts the static role set when missing. Safe to run at
// every startup.
func SeedDefaultRoles(ctx context.Context, db *gorm.DB) error {
	for _, role := range models.DefaultRoles() {
		var count int64
		if err := db.Model(&models.AdminRole{}).Where("name = ?", role.Name).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check role %s: %w", role.Name, err)
		}
		if count > 0 {
			continue
		}
		if err := db.Create(&role).Error; err != nil {
			return fmt.Errorf("failed to seed role %s: %w", role.Name, err)
		}
	}
	return nil
}
