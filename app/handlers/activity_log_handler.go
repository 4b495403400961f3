// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/billnet/admin-api/app/dto"
	businessflow "github.com/billnet/admin-api/business_flow"
	"github.com/billnet/admin-api/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// ActivityLogHandlerInterface defines the contract for activity log handlers
type ActivityLogHandlerInterface interface {
	List(c fiber.Ctx) error
	Export(c fiber.Ctx) error
}

// ActivityLogHandler implements ActivityLogHandlerInterface
type ActivityLogHandler struct {
	flow      businessflow.ActivityLogFlow
	validator *validator.Validate
}

func NewActivityLogHandler(flow businessflow.ActivityLogFlow) ActivityLogHandlerInterface {
	return &ActivityLogHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *ActivityLogHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ActivityLogHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// List returns activity log entries newest-first
// @Summary List activity log
// @Description List activity log entries windowed by limit/offset with optional admin/action/security filters
// @Tags Activity Log
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ListActivityLogResponse} "Entries listed"
// @Failure 403 {object} dto.APIResponse "Insufficient permissions"
// @Router /api/v1/admin/activity-log [get]
func (h *ActivityLogHandler) List(c fiber.Ctx) error {
	var req dto.ListActivityLogRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	res, err := h.flow.List(h.createRequestContext(c, "/api/v1/admin/activity-log"), &req)
	if err != nil {
		if businessflow.IsInvalidLimit(err) || businessflow.IsInvalidOffset(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid limit or offset", "VALIDATION_ERROR", nil)
		}
		log.Println("List activity log failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list activity log", "INTERNAL_ERROR", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Activity log listed", res)
}

// Export streams the filtered activity log as an XLSX download
// @Summary Export activity log
// @Description Export activity log entries to an Excel workbook
// @Tags Activity Log
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} binary "XLSX file"
// @Failure 403 {object} dto.APIResponse "Insufficient permissions"
// @Router /api/v1/admin/activity-log/export [get]
func (h *ActivityLogHandler) Export(c fiber.Ctx) error {
	var req dto.ListActivityLogRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}

	// Export has a fixed row cap, the limit/offset window is ignored
	filename, data, err := h.flow.Export(h.createRequestContextWithTimeout(c, "/api/v1/admin/activity-log/export", 2*time.Minute), &req)
	if err != nil {
		log.Println("Export activity log failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export activity log", "INTERNAL_ERROR", nil)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Status(fiber.StatusOK).Send(data)
}

func (h *ActivityLogHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *ActivityLogHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
