// Package testing provides test utilities and database setup for testing the admin authentication system
package testing

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	mrand "math/rand"
	"time"

	"github.com/billnet/admin-api/models"
	"github.com/billnet/admin-api/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTestPassword is the plaintext password behind every fixture account.
const DefaultTestPassword = "TestPass123!"

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestAdmin creates an active admin account with the given role
func (tf *TestFixtures) CreateTestAdmin(role string) (*models.AdminAccount, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(DefaultTestPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	suffix := fmt.Sprintf("%09d", mrand.Intn(900000000)+100000000)

	admin := &models.AdminAccount{
		UUID:         uuid.New(),
		Username:     fmt.Sprintf("admin_%s", suffix),
		Email:        fmt.Sprintf("admin.%s@example.com", suffix),
		PasswordHash: string(hashedPassword),
		FirstName:    "Test",
		LastName:     "Admin",
		Role:         role,
		IsActive:     utils.ToPtr(true),
		CreatedAt:    utils.UTCNow(),
		UpdatedAt:    utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(admin).Error; err != nil {
		return nil, fmt.Errorf("failed to create test admin: %w", err)
	}

	return admin, nil
}

// CreateInactiveAdmin creates a deactivated admin account
func (tf *TestFixtures) CreateInactiveAdmin(role string) (*models.AdminAccount, error) {
	admin, err := tf.CreateTestAdmin(role)
	if err != nil {
		return nil, err
	}
	admin.IsActive = utils.ToPtr(false)
	if err := tf.DB.DB.Save(admin).Error; err != nil {
		return nil, fmt.Errorf("failed to deactivate test admin: %w", err)
	}
	return admin, nil
}

// CreateLockedAdmin creates an admin currently inside a lockout window
func (tf *TestFixtures) CreateLockedAdmin(role string, lockFor time.Duration) (*models.AdminAccount, error) {
	admin, err := tf.CreateTestAdmin(role)
	if err != nil {
		return nil, err
	}
	lockedUntil := utils.UTCNowAdd(lockFor)
	admin.LoginAttempts = utils.MaxLoginAttempts
	admin.LockedUntil = &lockedUntil
	if err := tf.DB.DB.Save(admin).Error; err != nil {
		return nil, fmt.Errorf("failed to lock test admin: %w", err)
	}
	return admin, nil
}

// EnableMFA stages and enables the given TOTP secret on an admin account
func (tf *TestFixtures) EnableMFA(admin *models.AdminAccount, secret string) error {
	admin.TwoFASecret = &secret
	admin.TwoFAEnabled = utils.ToPtr(true)
	if err := tf.DB.DB.Save(admin).Error; err != nil {
		return fmt.Errorf("failed to enable MFA on test admin: %w", err)
	}
	return nil
}

// GenerateSecureToken returns a random URL-safe token for session fixtures
func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// CreateTestSession creates an active admin session
func (tf *TestFixtures) CreateTestSession(adminID uint) (*models.AdminSession, error) {
	sessionToken, err := GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate secure session token: %w", err)
	}

	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	session := &models.AdminSession{
		CorrelationID: uuid.New(),
		AdminID:       adminID,
		SessionToken:  sessionToken,
		ExpiresAt:     utils.UTCNowAdd(utils.SessionTTL),
		IsActive:      utils.ToPtr(true),
		IPAddress:     &ipAddress,
		UserAgent:     &userAgent,
	}

	if err := tf.DB.DB.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create test session: %w", err)
	}

	return session, nil
}

// CreateExpiredSession creates a session whose lifetime has already passed
func (tf *TestFixtures) CreateExpiredSession(adminID uint) (*models.AdminSession, error) {
	session, err := tf.CreateTestSession(adminID)
	if err != nil {
		return nil, err
	}
	session.ExpiresAt = utils.UTCNowAdd(-1 * time.Hour)
	if err := tf.DB.DB.Save(session).Error; err != nil {
		return nil, fmt.Errorf("failed to expire test session: %w", err)
	}
	return session, nil
}

// CreateTestActivityLog creates an activity log entry
func (tf *TestFixtures) CreateTestActivityLog(adminID *uint, action string, success bool) (*models.ActivityLog, error) {
	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	entry := &models.ActivityLog{
		AdminID:   adminID,
		Action:    action,
		Success:   &success,
		IPAddress: &ipAddress,
		UserAgent: &userAgent,
	}

	if !success {
		errorMessage := "Test failed action"
		entry.ErrorMessage = &errorMessage
	}

	if err := tf.DB.DB.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to create test activity log: %w", err)
	}

	return entry, nil
}
