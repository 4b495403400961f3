// Package tests contains integration tests for the admin login flow
package tests

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/billnet/admin-api/app/dto"
	"github.com/billnet/admin-api/app/services"
	businessflow "github.com/billnet/admin-api/business_flow"
	"github.com/billnet/admin-api/models"
	"github.com/billnet/admin-api/repository"
	testingutil "github.com/billnet/admin-api/testing"
	"github.com/billnet/admin-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret-key-with-at-least-32-characters"

func newTestAuthFlow(t *testing.T, testDB *testingutil.TestDB) (businessflow.AdminAuthFlow, repository.AdminAccountRepository, repository.AdminSessionRepository, repository.ActivityLogRepository) {
	t.Helper()

	adminRepo := repository.NewAdminAccountRepository(testDB.DB)
	sessionRepo := repository.NewAdminSessionRepository(testDB.DB)
	roleRepo := repository.NewAdminRoleRepository(testDB.DB)
	activityRepo := repository.NewActivityLogRepository(testDB.DB)

	tokenService, err := services.NewTokenService(utils.SessionTTL, "test-issuer", "test-audience", false, "", "", testJWTSecret)
	require.NoError(t, err)

	totpService := services.NewTOTPService("test-issuer")
	sessionCache := services.NewRedisSessionCache(nil, "")

	flow := businessflow.NewAdminAuthFlow(
		adminRepo,
		sessionRepo,
		roleRepo,
		activityRepo,
		tokenService,
		totpService,
		sessionCache,
		testDB.DB,
	)

	return flow, adminRepo, sessionRepo, activityRepo
}

func testMetadata() *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")
	metadata.SetRequestID("test-request-id")
	return metadata
}

// totpCode computes the expected 6-digit code for a secret at a point in time
func totpCode(t *testing.T, secret string, at time.Time) string {
	t.Helper()

	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(secret))
	require.NoError(t, err)

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(at.Unix()/30))
	mac := hmac.New(sha1.New, key)
	mac.Write(buf[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	code := (binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff) % 1000000
	return fmt.Sprintf("%06d", code)
}

func TestAdminLoginFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, adminRepo, sessionRepo, _ := newTestAuthFlow(t, testDB)

		t.Run("SuccessfulLogin", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin(models.RoleAdministrator)
			require.NoError(t, err)

			result, err := flow.Login(context.Background(), &dto.AdminLoginRequest{
				Username: admin.Username,
				Password: testingutil.DefaultTestPassword,
			}, testMetadata())
			require.NoError(t, err)
			require.NotNil(t, result)

			assert.Equal(t, admin.ID, result.Admin.ID)
			assert.Equal(t, admin.Username, result.Admin.Username)
			assert.Equal(t, models.RoleAdministrator, result.Admin.Role)
			assert.Equal(t, "Administrator", result.Admin.RoleDisplayName)
			assert.Contains(t, result.Admin.Permissions, "admins:read")
			assert.NotEmpty(t, result.Session.AccessToken)
			assert.Equal(t, "Bearer", result.Session.TokenType)
			assert.InDelta(t, utils.SessionTTLSeconds, result.Session.ExpiresIn, 5)

			// Session row persisted and active
			session, err := sessionRepo.BySessionToken(context.Background(), result.Session.AccessToken)
			require.NoError(t, err)
			require.NotNil(t, session)
			assert.Equal(t, admin.ID, session.AdminID)

			// last_login_at stamped
			stored, err := adminRepo.ByID(context.Background(), admin.ID)
			require.NoError(t, err)
			require.NotNil(t, stored.LastLoginAt)
		})

		t.Run("UnknownUsername", func(t *testing.T) {
			result, err := flow.Login(context.Background(), &dto.AdminLoginRequest{
				Username: "no_such_admin",
				Password: testingutil.DefaultTestPassword,
			}, testMetadata())
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, businessflow.IsAdminNotFound(err))
		})

		t.Run("InactiveAccountRefused", func(t *testing.T) {
			admin, err := fixtures.CreateInactiveAdmin(models.RoleSupport)
			require.NoError(t, err)

			result, err := flow.Login(context.Background(), &dto.AdminLoginRequest{
				Username: admin.Username,
				Password: testingutil.DefaultTestPassword,
			}, testMetadata())
			require.Error(t, err)
			assert.Nil(t, result)

			// Inactive accounts are indistinguishable from unknown usernames
			assert.True(t, businessflow.IsAdminNotFound(err))
		})

		t.Run("IncorrectPasswordIncrementsCounter", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin(models.RoleAnalyst)
			require.NoError(t, err)

			_, err = flow.Login(context.Background(), &dto.AdminLoginRequest{
				Username: admin.Username,
				Password: "WrongPass123!",
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsIncorrectPassword(err))

			stored, err := adminRepo.ByID(context.Background(), admin.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, stored.LoginAttempts)
			assert.Nil(t, stored.LockedUntil)
		})

		t.Run("LockoutAfterFiveFailures", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin(models.RoleAnalyst)
			require.NoError(t, err)

			for i := 0; i < utils.MaxLoginAttempts; i++ {
				_, err = flow.Login(context.Background(), &dto.AdminLoginRequest{
					Username: admin.Username,
					Password: "WrongPass123!",
				}, testMetadata())
				require.Error(t, err)
				assert.True(t, businessflow.IsIncorrectPassword(err), "attempt %d", i+1)
			}

			stored, err := adminRepo.ByID(context.Background(), admin.ID)
			require.NoError(t, err)
			assert.Equal(t, utils.MaxLoginAttempts, stored.LoginAttempts)
			require.NotNil(t, stored.LockedUntil)
			assert.True(t, stored.LockedUntil.After(time.Now().UTC()))

			// Correct password is refused while the lock holds
			_, err = flow.Login(context.Background(), &dto.AdminLoginRequest{
				Username: admin.Username,
				Password: testingutil.DefaultTestPassword,
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsAccountLocked(err))
		})

		t.Run("FourthFailureDoesNotLock", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin(models.RoleAnalyst)
			require.NoError(t, err)

			for i := 0; i < utils.MaxLoginAttempts-1; i++ {
				_, err = flow.Login(context.Background(), &dto.AdminLoginRequest{
					Username: admin.Username,
					Password: "WrongPass123!",
				}, testMetadata())
				require.Error(t, err)
			}

			stored, err := adminRepo.ByID(context.Background(), admin.ID)
			require.NoError(t, err)
			assert.Equal(t, utils.MaxLoginAttempts-1, stored.LoginAttempts)
			assert.Nil(t, stored.LockedUntil)

			// The account still accepts the correct password
			result, err := flow.Login(context.Background(), &dto.AdminLoginRequest{
				Username: admin.Username,
				Password: testingutil.DefaultTestPassword,
			}, testMetadata())
			require.NoError(t, err)
			require.NotNil(t, result)
		})

		t.Run("CounterResetOnSuccess", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin(models.RoleModerator)
			require.NoError(t, err)

			for i := 0; i < 2; i++ {
				_, err = flow.Login(context.Background(), &dto.AdminLoginRequest{
					Username: admin.Username,
					Password: "WrongPass123!",
				}, testMetadata())
				require.Error(t, err)
			}

			_, err = flow.Login(context.Background(), &dto.AdminLoginRequest{
				Username: admin.Username,
				Password: testingutil.DefaultTestPassword,
			}, testMetadata())
			require.NoError(t, err)

			stored, err := adminRepo.ByID(context.Background(), admin.ID)
			require.NoError(t, err)
			assert.Equal(t, 0, stored.LoginAttempts)
			assert.Nil(t, stored.LockedUntil)
		})

		t.Run("ExpiredLockReopensAccount", func(t *testing.T) {
			admin, err := fixtures.CreateLockedAdmin(models.RoleSupport, -1*time.Minute)
			require.NoError(t, err)

			result, err := flow.Login(context.Background(), &dto.AdminLoginRequest{
				Username: admin.Username,
				Password: testingutil.DefaultTestPassword,
			}, testMetadata())
			require.NoError(t, err)
			require.NotNil(t, result)
		})

		t.Run("MFARequiredWhenEnabled", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin(models.RoleAdministrator)
			require.NoError(t, err)

			totpService := services.NewTOTPService("test-issuer")
			secret, err := totpService.GenerateSecret()
			require.NoError(t, err)
			require.NoError(t, fixtures.EnableMFA(admin, secret))

			_, err = flow.Login(context.Background(), &dto.AdminLoginRequest{
				Username: admin.Username,
				Password: testingutil.DefaultTestPassword,
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsMFARequired(err))
		})

		t.Run("MFAInvalidCodeDoesNotConsumeAttempts", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin(models.RoleAdministrator)
			require.NoError(t, err)

			totpService := services.NewTOTPService("test-issuer")
			secret, err := totpService.GenerateSecret()
			require.NoError(t, err)
			require.NoError(t, fixtures.EnableMFA(admin, secret))

			for i := 0; i < utils.MaxLoginAttempts+1; i++ {
				_, err = flow.Login(context.Background(), &dto.AdminLoginRequest{
					Username: admin.Username,
					Password: testingutil.DefaultTestPassword,
					MFACode:  "000001",
				}, testMetadata())
				require.Error(t, err)
				assert.True(t, businessflow.IsInvalidMFACode(err))
			}

			// The password counter never moved, so a correct code still works
			stored, err := adminRepo.ByID(context.Background(), admin.ID)
			require.NoError(t, err)
			assert.Equal(t, 0, stored.LoginAttempts)
			assert.Nil(t, stored.LockedUntil)

			result, err := flow.Login(context.Background(), &dto.AdminLoginRequest{
				Username: admin.Username,
				Password: testingutil.DefaultTestPassword,
				MFACode:  totpCode(t, secret, time.Now()),
			}, testMetadata())
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.True(t, result.Admin.MFAEnabled)
		})

		t.Run("LogoutRevokesSession", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin(models.RoleModerator)
			require.NoError(t, err)

			result, err := flow.Login(context.Background(), &dto.AdminLoginRequest{
				Username: admin.Username,
				Password: testingutil.DefaultTestPassword,
			}, testMetadata())
			require.NoError(t, err)

			token := result.Session.AccessToken
			err = flow.Logout(context.Background(), token, admin.ID, testMetadata())
			require.NoError(t, err)

			// The row check no longer authorizes the token
			session, err := sessionRepo.BySessionToken(context.Background(), token)
			require.NoError(t, err)
			assert.Nil(t, session)
		})

		t.Run("ProfileReturnsRoleAndPermissions", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin(models.RoleAuditor)
			require.NoError(t, err)

			profile, err := flow.Profile(context.Background(), admin.ID)
			require.NoError(t, err)
			require.NotNil(t, profile)
			assert.Equal(t, models.RoleAuditor, profile.Admin.Role)
			assert.Equal(t, "Auditor", profile.Admin.RoleDisplayName)
			assert.Contains(t, profile.Admin.Permissions, "audit_logs:read")
			assert.NotContains(t, profile.Admin.Permissions, "admins:delete")
		})

		return nil
	})
	require.NoError(t, err)
}

func TestAdminLoginActivityLog(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, _, _, activityRepo := newTestAuthFlow(t, testDB)

		admin, err := fixtures.CreateTestAdmin(models.RoleAdministrator)
		require.NoError(t, err)

		// One failed then one successful handshake
		_, err = flow.Login(context.Background(), &dto.AdminLoginRequest{
			Username: admin.Username,
			Password: "WrongPass123!",
		}, testMetadata())
		require.Error(t, err)

		_, err = flow.Login(context.Background(), &dto.AdminLoginRequest{
			Username: admin.Username,
			Password: testingutil.DefaultTestPassword,
		}, testMetadata())
		require.NoError(t, err)

		entries, err := activityRepo.ListByAdmin(context.Background(), admin.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		// Newest first
		assert.Equal(t, models.ActionLogin, entries[0].Action)
		assert.True(t, utils.IsTrue(entries[0].Success))
		assert.Equal(t, models.ActionLoginFailed, entries[1].Action)
		assert.False(t, utils.IsTrue(entries[1].Success))
		require.NotNil(t, entries[1].ErrorMessage)

		return nil
	})
	require.NoError(t, err)
}
