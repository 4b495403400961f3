// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/billnet/admin-api/app/dto"
	"github.com/billnet/admin-api/app/middleware"
	businessflow "github.com/billnet/admin-api/business_flow"
	"github.com/billnet/admin-api/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// AdminManagementHandlerInterface defines the contract for admin lifecycle handlers
type AdminManagementHandlerInterface interface {
	ListAdmins(c fiber.Ctx) error
	CreateAdmin(c fiber.Ctx) error
	UpdateAdmin(c fiber.Ctx) error
	DeleteAdmin(c fiber.Ctx) error
	ListRoles(c fiber.Ctx) error
}

// AdminManagementHandler implements AdminManagementHandlerInterface
type AdminManagementHandler struct {
	flow      businessflow.AdminManagementFlow
	validator *validator.Validate
}

func NewAdminManagementHandler(flow businessflow.AdminManagementFlow) AdminManagementHandlerInterface {
	return &AdminManagementHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *AdminManagementHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AdminManagementHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListAdmins returns a paginated, sanitized admin list
// @Summary List admins
// @Description List admin accounts with pagination and optional role/active filters
// @Tags Admin Management
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ListAdminsResponse} "Admins listed"
// @Failure 403 {object} dto.APIResponse "Insufficient permissions"
// @Router /api/v1/admin/users [get]
func (h *AdminManagementHandler) ListAdmins(c fiber.Ctx) error {
	var req dto.ListAdminsRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	res, err := h.flow.ListAdmins(h.createRequestContext(c, "/api/v1/admin/users"), &req)
	if err != nil {
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination", "VALIDATION_ERROR", nil)
		}
		log.Println("List admins failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list admins", "INTERNAL_ERROR", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Admins listed", res)
}

// CreateAdmin creates a new admin account
// @Summary Create admin
// @Description Create an admin account with a hashed password and a known role
// @Tags Admin Management
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateAdminRequest true "New admin"
// @Success 201 {object} dto.APIResponse{data=dto.AdminDTO} "Admin created"
// @Failure 400 {object} dto.APIResponse "Validation error or duplicate username/email"
// @Router /api/v1/admin/users [post]
func (h *AdminManagementHandler) CreateAdmin(c fiber.Ctx) error {
	actorID, ok := middleware.GetAdminIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin authentication required", "ADMIN_AUTHENTICATION_REQUIRED", nil)
	}

	var req dto.CreateAdminRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	admin, err := h.flow.CreateAdmin(h.createRequestContext(c, "/api/v1/admin/users"), actorID, &req, metadata)
	if err != nil {
		switch {
		case businessflow.IsUsernameExists(err), businessflow.IsEmailExists(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Username or email already in use", "DUPLICATE_ADMIN", nil)
		case businessflow.IsRoleNotFound(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown role", "VALIDATION_ERROR", nil)
		}
		log.Println("Create admin failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create admin", "INTERNAL_ERROR", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Admin created", admin)
}

// UpdateAdmin applies partial updates to an admin account
// @Summary Update admin
// @Description Update admin fields; deactivating a super_admin is refused
// @Tags Admin Management
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Admin ID"
// @Param request body dto.UpdateAdminRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=dto.AdminDTO} "Admin updated"
// @Failure 400 {object} dto.APIResponse "Validation error or protected account"
// @Failure 404 {object} dto.APIResponse "Admin not found"
// @Router /api/v1/admin/users/{id} [put]
func (h *AdminManagementHandler) UpdateAdmin(c fiber.Ctx) error {
	actorID, ok := middleware.GetAdminIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin authentication required", "ADMIN_AUTHENTICATION_REQUIRED", nil)
	}

	targetID, err := parseIDParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid admin ID", "VALIDATION_ERROR", nil)
	}

	var req dto.UpdateAdminRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	admin, err := h.flow.UpdateAdmin(h.createRequestContext(c, "/api/v1/admin/users/:id"), actorID, targetID, &req, metadata)
	if err != nil {
		switch {
		case businessflow.IsAdminNotFound(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Admin not found", "NOT_FOUND", nil)
		case businessflow.IsSuperAdminProtected(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Super admin accounts cannot be deactivated", "SUPER_ADMIN_PROTECTED", nil)
		case businessflow.IsUsernameExists(err), businessflow.IsEmailExists(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Username or email already in use", "DUPLICATE_ADMIN", nil)
		case businessflow.IsRoleNotFound(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown role", "VALIDATION_ERROR", nil)
		}
		log.Println("Update admin failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update admin", "INTERNAL_ERROR", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Admin updated", admin)
}

// DeleteAdmin hard-deletes an admin account
// @Summary Delete admin
// @Description Delete an admin account; self-deletion and super_admin deletion are refused
// @Tags Admin Management
// @Produce json
// @Security BearerAuth
// @Param id path int true "Admin ID"
// @Success 200 {object} dto.APIResponse "Admin deleted"
// @Failure 400 {object} dto.APIResponse "Protected account or self-deletion"
// @Failure 404 {object} dto.APIResponse "Admin not found"
// @Router /api/v1/admin/users/{id} [delete]
func (h *AdminManagementHandler) DeleteAdmin(c fiber.Ctx) error {
	actorID, ok := middleware.GetAdminIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin authentication required", "ADMIN_AUTHENTICATION_REQUIRED", nil)
	}

	targetID, err := parseIDParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid admin ID", "VALIDATION_ERROR", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	if err := h.flow.DeleteAdmin(h.createRequestContext(c, "/api/v1/admin/users/:id"), actorID, targetID, metadata); err != nil {
		switch {
		case businessflow.IsAdminNotFound(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Admin not found", "NOT_FOUND", nil)
		case businessflow.IsSelfDeletion(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Admins cannot delete their own account", "SELF_DELETION", nil)
		case businessflow.IsSuperAdminProtected(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Super admin accounts cannot be deleted", "SUPER_ADMIN_PROTECTED", nil)
		}
		log.Println("Delete admin failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete admin", "INTERNAL_ERROR", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Admin deleted", nil)
}

// ListRoles returns the static role reference data
// @Summary List roles
// @Description List all roles with their permission maps
// @Tags Admin Management
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ListRolesResponse} "Roles listed"
// @Router /api/v1/admin/roles [get]
func (h *AdminManagementHandler) ListRoles(c fiber.Ctx) error {
	res, err := h.flow.ListRoles(h.createRequestContext(c, "/api/v1/admin/roles"))
	if err != nil {
		log.Println("List roles failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list roles", "INTERNAL_ERROR", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Roles listed", res)
}

// parseIDParam parses the :id route parameter
func parseIDParam(c fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, err
	}
	return uint(id), nil
}

func (h *AdminManagementHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *AdminManagementHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
