// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"github.com/billnet/admin-api/app/dto"
	"github.com/billnet/admin-api/models"
	"github.com/billnet/admin-api/repository"
	"github.com/gofiber/fiber/v3"
)

// PermissionMiddleware authorizes requests against the static role permission
// map. Runs after AdminAuthenticate; the role row is fetched per request so
// reference-data updates apply without restarts.
type PermissionMiddleware struct {
	roleRepo repository.AdminRoleRepository
}

// NewPermissionMiddleware creates a new permission middleware
func NewPermissionMiddleware(roleRepo repository.AdminRoleRepository) *PermissionMiddleware {
	return &PermissionMiddleware{roleRepo: roleRepo}
}

// RequirePermission gates a route on (resource, action) membership in the
// authenticated admin's role permission map.
func (m *PermissionMiddleware) RequirePermission(resource, action string) fiber.Handler {
	return func(c fiber.Ctx) error {
		admin, ok := GetAdminFromContext(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Admin authentication required",
				Error:   dto.ErrorDetail{Code: "ADMIN_AUTHENTICATION_REQUIRED"},
			})
		}

		role, err := m.roleRepo.ByName(c.Context(), admin.Role)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
				Success: false,
				Message: "Failed to resolve role permissions",
				Error:   dto.ErrorDetail{Code: "INTERNAL_ERROR"},
			})
		}
		if role == nil || !role.Permissions.Allows(resource, action) {
			return c.Status(fiber.StatusForbidden).JSON(dto.APIResponse{
				Success: false,
				Message: "Insufficient permissions",
				Error: dto.ErrorDetail{
					Code:    "INSUFFICIENT_PERMISSIONS",
					Details: map[string]string{"resource": resource, "action": action},
				},
			})
		}

		c.Locals("admin_role", role)
		return c.Next()
	}
}

// GetRoleFromContext extracts the resolved role from the request context
func GetRoleFromContext(c fiber.Ctx) (*models.AdminRole, bool) {
	role, ok := c.Locals("admin_role").(*models.AdminRole)
	return role, ok
}
