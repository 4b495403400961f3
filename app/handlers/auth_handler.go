// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/billnet/admin-api/app/dto"
	"github.com/billnet/admin-api/app/middleware"
	businessflow "github.com/billnet/admin-api/business_flow"
	"github.com/billnet/admin-api/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// AuthHandlerInterface defines the contract for admin auth handlers
type AuthHandlerInterface interface {
	Login(c fiber.Ctx) error
	Logout(c fiber.Ctx) error
	GetProfile(c fiber.Ctx) error
}

// AuthHandler implements AuthHandlerInterface
type AuthHandler struct {
	flow      businessflow.AdminAuthFlow
	validator *validator.Validate
}

func NewAuthHandler(flow businessflow.AdminAuthFlow) AuthHandlerInterface {
	return &AuthHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

// ErrorResponse standard JSON error
func (h *AuthHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

// SuccessResponse standard JSON success
func (h *AuthHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Login authenticates an admin with username/password and optional MFA code
// @Summary Admin login
// @Description Authenticate admin credentials, returning a session token valid for 8 hours
// @Tags Admin Authentication
// @Accept json
// @Produce json
// @Param request body dto.AdminLoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AdminLoginResponse} "Login successful"
// @Failure 401 {object} dto.APIResponse "Invalid credentials, MFA required, or invalid MFA code"
// @Failure 403 {object} dto.APIResponse "Account locked"
// @Router /api/v1/admin/auth/login [post]
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req dto.AdminLoginRequest
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

	result, err := h.flow.Login(h.createRequestContext(c, "/api/v1/admin/auth/login"), &req, metadata)
	if err != nil {
		details := businessErrorDetails(err)
		switch {
		case businessflow.IsAccountLocked(err):
			middleware.RecordLoginOutcome("account_locked")
			return h.ErrorResponse(c, fiber.StatusForbidden, "Account is temporarily locked", "ACCOUNT_LOCKED", details)
		case businessflow.IsMFARequired(err):
			middleware.RecordLoginOutcome("mfa_required")
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "MFA code required", "MFA_REQUIRED", details)
		case businessflow.IsInvalidMFACode(err):
			middleware.RecordLoginOutcome("invalid_mfa_code")
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid MFA code", "INVALID_MFA_CODE", nil)
		case businessflow.IsAdminNotFound(err), businessflow.IsIncorrectPassword(err):
			middleware.RecordLoginOutcome("invalid_credentials")
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid username or password", "INVALID_CREDENTIALS", details)
		}
		log.Println("Admin login failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Login failed", "INTERNAL_ERROR", nil)
	}

	middleware.RecordLoginOutcome("success")
	return h.SuccessResponse(c, fiber.StatusOK, "Login successful", result)
}

// Logout revokes the presented session
// @Summary Admin logout
// @Description Revoke the current session; the token is rejected on subsequent requests
// @Tags Admin Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse "Logout successful"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/admin/auth/logout [post]
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	adminID, ok := middleware.GetAdminIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin authentication required", "ADMIN_AUTHENTICATION_REQUIRED", nil)
	}
	token, ok := middleware.GetSessionTokenFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Session token not found in context", "SESSION_INVALID", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	if err := h.flow.Logout(h.createRequestContext(c, "/api/v1/admin/auth/logout"), token, adminID, metadata); err != nil {
		log.Println("Admin logout failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Logout failed", "INTERNAL_ERROR", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Logout successful", nil)
}

// GetProfile returns the authenticated admin's sanitized profile
// @Summary Admin profile
// @Description Retrieve the authenticated admin's profile with role and permissions
// @Tags Admin Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.AdminProfileResponse} "Profile retrieved"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /api/v1/admin/auth/profile [get]
func (h *AuthHandler) GetProfile(c fiber.Ctx) error {
	adminID, ok := middleware.GetAdminIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin authentication required", "ADMIN_AUTHENTICATION_REQUIRED", nil)
	}

	res, err := h.flow.Profile(h.createRequestContext(c, "/api/v1/admin/auth/profile"), adminID)
	if err != nil {
		if businessflow.IsAdminNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Admin not found", "NOT_FOUND", nil)
		}
		log.Println("Get profile failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get profile", "INTERNAL_ERROR", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Profile retrieved", res)
}

// createRequestContext mirrors other handlers for request-scoped values
func (h *AuthHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *AuthHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
