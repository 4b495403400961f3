// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"errors"
	"strings"

	"github.com/billnet/admin-api/app/dto"
	"github.com/billnet/admin-api/app/services"
	"github.com/billnet/admin-api/models"
	"github.com/billnet/admin-api/repository"
	"github.com/billnet/admin-api/utils"
	"github.com/gofiber/fiber/v3"
)

// AuthMiddleware validates admin sessions for protected endpoints. A request
// passes only when all three sources agree: the token signature and embedded
// expiry, the persisted session row (revocation authority), and the freshly
// fetched account being active.
type AuthMiddleware struct {
	tokenService services.TokenService
	sessionRepo  repository.AdminSessionRepository
	adminRepo    repository.AdminAccountRepository
	sessionCache services.SessionCache
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(
	tokenService services.TokenService,
	sessionRepo repository.AdminSessionRepository,
	adminRepo repository.AdminAccountRepository,
	sessionCache services.SessionCache,
) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
		sessionRepo:  sessionRepo,
		adminRepo:    adminRepo,
		sessionCache: sessionCache,
	}
}

// AdminAuthenticate is the middleware function that validates admin sessions
func (m *AuthMiddleware) AdminAuthenticate() fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Authorization header is required",
				Error:   dto.ErrorDetail{Code: "MISSING_AUTHORIZATION_HEADER"},
			})
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Invalid authorization header format. Expected 'Bearer <token>'",
				Error:   dto.ErrorDetail{Code: "INVALID_AUTHORIZATION_FORMAT"},
			})
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Access token is required",
				Error:   dto.ErrorDetail{Code: "MISSING_ACCESS_TOKEN"},
			})
		}

		// Step 1: signature and embedded expiry
		adminClaims, err := m.tokenService.ValidateAdminToken(token)
		if err != nil {
			var code, msg string
			if errors.Is(err, services.ErrTokenExpired) {
				code = "TOKEN_EXPIRED"
				msg = "Access token has expired"
			} else if errors.Is(err, services.ErrTokenInvalid) {
				code = "TOKEN_INVALID"
				msg = "Invalid access token"
			} else {
				code = "TOKEN_VALIDATION_FAILED"
				msg = "Token validation failed"
			}
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{Success: false, Message: msg, Error: dto.ErrorDetail{Code: code}})
		}

		// Step 2: a matching active, non-expired session row must still exist.
		// The cache only short-circuits the row lookup; a miss falls through.
		ctx := c.Context()
		if _, hit := m.sessionCache.Get(ctx, token); !hit {
			session, err := m.sessionRepo.BySessionToken(ctx, token)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
					Success: false,
					Message: "Failed to validate session",
					Error:   dto.ErrorDetail{Code: "INTERNAL_ERROR"},
				})
			}
			if session == nil {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
					Success: false,
					Message: "Session is invalid or has been revoked",
					Error:   dto.ErrorDetail{Code: "SESSION_INVALID"},
				})
			}
			_ = m.sessionCache.Set(ctx, token, services.CachedSession{AdminID: session.AdminID, ExpiresAt: session.ExpiresAt})
		}

		// Step 3: re-fetch the account; deactivation mid-session must bite on
		// the next request.
		admin, err := m.adminRepo.ByID(ctx, adminClaims.AdminID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
				Success: false,
				Message: "Failed to load admin account",
				Error:   dto.ErrorDetail{Code: "INTERNAL_ERROR"},
			})
		}
		if admin == nil || !utils.IsTrue(admin.IsActive) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
				Success: false,
				Message: "Session is invalid or has been revoked",
				Error:   dto.ErrorDetail{Code: "SESSION_INVALID"},
			})
		}

		c.Locals("admin_id", admin.ID)
		c.Locals("admin_account", admin)
		c.Locals("session_token", token)
		c.Locals("token_id", adminClaims.TokenID)
		c.Locals("token_claims", adminClaims)

		// Store RequestID for activity logging
		if requestID := c.Get("X-Request-ID"); requestID != "" {
			c.Locals("request_id", requestID)
		}

		return c.Next()
	}
}

// GetAdminIDFromContext extracts admin ID from the request context
func GetAdminIDFromContext(c fiber.Ctx) (uint, bool) {
	adminID, ok := c.Locals("admin_id").(uint)
	return adminID, ok
}

// GetAdminFromContext extracts the resolved admin account from the request context
func GetAdminFromContext(c fiber.Ctx) (*models.AdminAccount, bool) {
	admin, ok := c.Locals("admin_account").(*models.AdminAccount)
	return admin, ok
}

// GetSessionTokenFromContext extracts the presented session token
func GetSessionTokenFromContext(c fiber.Ctx) (string, bool) {
	token, ok := c.Locals("session_token").(string)
	return token, ok
}

// GetTokenClaimsFromContext extracts token claims from the request context
func GetTokenClaimsFromContext(c fiber.Ctx) (*services.AdminTokenClaims, bool) {
	claims, ok := c.Locals("token_claims").(*services.AdminTokenClaims)
	return claims, ok
}

// RequireAdminAuth ensures admin authentication is present
func RequireAdminAuth(c fiber.Ctx) error {
	adminID, exists := GetAdminIDFromContext(c)
	if !exists {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
			Success: false,
			Message: "Admin authentication required",
			Error:   dto.ErrorDetail{Code: "ADMIN_AUTHENTICATION_REQUIRED"},
		})
	}
	if adminID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
			Success: false,
			Message: "Invalid admin ID",
			Error:   dto.ErrorDetail{Code: "INVALID_ADMIN_ID"},
		})
	}
	return nil
}
