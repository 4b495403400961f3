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

// MFAHandlerInterface defines the contract for MFA enrollment handlers
type MFAHandlerInterface interface {
	Setup(c fiber.Ctx) error
	Verify(c fiber.Ctx) error
	Disable(c fiber.Ctx) error
}

// MFAHandler implements MFAHandlerInterface
type MFAHandler struct {
	flow      businessflow.MFAFlow
	validator *validator.Validate
}

func NewMFAHandler(flow businessflow.MFAFlow) MFAHandlerInterface {
	return &MFAHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *MFAHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *MFAHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Setup stages a fresh TOTP secret on the account
// @Summary MFA setup
// @Description Generate and stage a TOTP secret; returns the secret, otpauth URI, and QR code
// @Tags Admin MFA
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.MFASetupResponse} "Secret staged"
// @Failure 400 {object} dto.APIResponse "MFA already enabled"
// @Router /api/v1/admin/auth/mfa/setup [post]
func (h *MFAHandler) Setup(c fiber.Ctx) error {
	adminID, ok := middleware.GetAdminIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin authentication required", "ADMIN_AUTHENTICATION_REQUIRED", nil)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	res, err := h.flow.Setup(h.createRequestContext(c, "/api/v1/admin/auth/mfa/setup"), adminID, metadata)
	if err != nil {
		if businessflow.IsMFAAlreadyEnabled(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "MFA is already enabled", "MFA_ALREADY_ENABLED", nil)
		}
		log.Println("MFA setup failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "MFA setup failed", "INTERNAL_ERROR", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "MFA secret staged; verify a code to enable", res)
}

// Verify enables MFA after checking a code against the staged secret
// @Summary MFA verify
// @Description Verify a TOTP code against the staged secret and enable MFA
// @Tags Admin MFA
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.MFAVerifyRequest true "TOTP code"
// @Success 200 {object} dto.APIResponse "MFA enabled"
// @Failure 400 {object} dto.APIResponse "Invalid code or no staged secret"
// @Router /api/v1/admin/auth/mfa/verify [post]
func (h *MFAHandler) Verify(c fiber.Ctx) error {
	adminID, ok := middleware.GetAdminIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin authentication required", "ADMIN_AUTHENTICATION_REQUIRED", nil)
	}

	var req dto.MFAVerifyRequest
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

	if err := h.flow.Verify(h.createRequestContext(c, "/api/v1/admin/auth/mfa/verify"), adminID, &req, metadata); err != nil {
		switch {
		case businessflow.IsInvalidMFACode(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid MFA code", "INVALID_MFA_CODE", nil)
		case businessflow.IsMFANotStaged(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "No staged MFA secret; run setup first", "MFA_NOT_STAGED", nil)
		}
		log.Println("MFA verify failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "MFA verification failed", "INTERNAL_ERROR", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "MFA enabled", nil)
}

// Disable turns MFA off after re-verifying the current password
// @Summary MFA disable
// @Description Disable MFA; requires the account password, not a TOTP code
// @Tags Admin MFA
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.MFADisableRequest true "Current password"
// @Success 200 {object} dto.APIResponse "MFA disabled"
// @Failure 401 {object} dto.APIResponse "Incorrect password"
// @Router /api/v1/admin/auth/mfa/disable [post]
func (h *MFAHandler) Disable(c fiber.Ctx) error {
	adminID, ok := middleware.GetAdminIDFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Admin authentication required", "ADMIN_AUTHENTICATION_REQUIRED", nil)
	}

	var req dto.MFADisableRequest
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

	if err := h.flow.Disable(h.createRequestContext(c, "/api/v1/admin/auth/mfa/disable"), adminID, req.Password, metadata); err != nil {
		switch {
		case businessflow.IsIncorrectPassword(err):
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Incorrect password", "INVALID_CREDENTIALS", nil)
		case businessflow.IsMFANotEnabled(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "MFA is not enabled", "MFA_NOT_ENABLED", nil)
		}
		log.Println("MFA disable failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "MFA disable failed", "INTERNAL_ERROR", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "MFA disabled", nil)
}

func (h *MFAHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *MFAHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
