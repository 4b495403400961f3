// Package tests contains integration tests for the MFA enrollment flow
package tests

import (
	"context"
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

func newTestMFAFlow(testDB *testingutil.TestDB) (businessflow.MFAFlow, repository.AdminAccountRepository, repository.ActivityLogRepository) {
	adminRepo := repository.NewAdminAccountRepository(testDB.DB)
	activityRepo := repository.NewActivityLogRepository(testDB.DB)
	totpService := services.NewTOTPService("test-issuer")

	flow := businessflow.NewMFAFlow(adminRepo, activityRepo, totpService, testDB.DB)
	return flow, adminRepo, activityRepo
}

func TestMFAFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, adminRepo, activityRepo := newTestMFAFlow(testDB)

		t.Run("SetupStagesSecret", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin(models.RoleAdministrator)
			require.NoError(t, err)

			res, err := flow.Setup(context.Background(), admin.ID, testMetadata())
			require.NoError(t, err)
			require.NotNil(t, res)

			assert.NotEmpty(t, res.Secret)
			assert.Contains(t, res.ProvisioningURI, "otpauth://totp/")
			assert.Contains(t, res.ProvisioningURI, res.Secret)
			assert.True(t, strings.HasPrefix(res.QRCode, "data:image/png;base64,"))

			// Secret staged but MFA not live yet
			stored, err := adminRepo.ByID(context.Background(), admin.ID)
			require.NoError(t, err)
			require.NotNil(t, stored.TwoFASecret)
			assert.Equal(t, res.Secret, *stored.TwoFASecret)
			assert.False(t, stored.MFAEnabled())
		})

		t.Run("SetupTwiceReplacesStagedSecret", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin(models.RoleAdministrator)
			require.NoError(t, err)

			first, err := flow.Setup(context.Background(), admin.ID, testMetadata())
			require.NoError(t, err)
			second, err := flow.Setup(context.Background(), admin.ID, testMetadata())
			require.NoError(t, err)
			assert.NotEqual(t, first.Secret, second.Secret)

			stored, err := adminRepo.ByID(context.Background(), admin.ID)
			require.NoError(t, err)
			assert.Equal(t, second.Secret, *stored.TwoFASecret)
		})

		t.Run("VerifyEnablesMFA", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin(models.RoleAdministrator)
			require.NoError(t, err)

			res, err := flow.Setup(context.Background(), admin.ID, testMetadata())
			require.NoError(t, err)

			err = flow.Verify(context.Background(), admin.ID, &dto.MFAVerifyRequest{
				Code: totpCode(t, res.Secret, time.Now()),
			}, testMetadata())
			require.NoError(t, err)

			stored, err := adminRepo.ByID(context.Background(), admin.ID)
			require.NoError(t, err)
			assert.True(t, stored.MFAEnabled())

			entries, err := activityRepo.ListByAdmin(context.Background(), admin.ID, 1, 0)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, models.ActionMFAEnabled, entries[0].Action)
		})

		t.Run("VerifyInvalidCodeRefused", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin(models.RoleAdministrator)
			require.NoError(t, err)

			_, err = flow.Setup(context.Background(), admin.ID, testMetadata())
			require.NoError(t, err)

			err = flow.Verify(context.Background(), admin.ID, &dto.MFAVerifyRequest{Code: "000001"}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidMFACode(err))

			stored, err := adminRepo.ByID(context.Background(), admin.ID)
			require.NoError(t, err)
			assert.False(t, stored.MFAEnabled())
		})

		t.Run("VerifyWithoutSetupRefused", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin(models.RoleAdministrator)
			require.NoError(t, err)

			err = flow.Verify(context.Background(), admin.ID, &dto.MFAVerifyRequest{Code: "123456"}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsMFANotStaged(err))
		})

		t.Run("SetupRefusedWhenAlreadyEnabled", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin(models.RoleAdministrator)
			require.NoError(t, err)

			totpService := services.NewTOTPService("test-issuer")
			secret, err := totpService.GenerateSecret()
			require.NoError(t, err)
			require.NoError(t, fixtures.EnableMFA(admin, secret))

			_, err = flow.Setup(context.Background(), admin.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsMFAAlreadyEnabled(err))
		})

		t.Run("DisableRequiresPassword", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin(models.RoleAdministrator)
			require.NoError(t, err)

			totpService := services.NewTOTPService("test-issuer")
			secret, err := totpService.GenerateSecret()
			require.NoError(t, err)
			require.NoError(t, fixtures.EnableMFA(admin, secret))

			err = flow.Disable(context.Background(), admin.ID, "WrongPass123!", testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsIncorrectPassword(err))

			stored, err := adminRepo.ByID(context.Background(), admin.ID)
			require.NoError(t, err)
			assert.True(t, stored.MFAEnabled())
		})

		t.Run("DisableClearsSecret", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin(models.RoleAdministrator)
			require.NoError(t, err)

			totpService := services.NewTOTPService("test-issuer")
			secret, err := totpService.GenerateSecret()
			require.NoError(t, err)
			require.NoError(t, fixtures.EnableMFA(admin, secret))

			err = flow.Disable(context.Background(), admin.ID, testingutil.DefaultTestPassword, testMetadata())
			require.NoError(t, err)

			stored, err := adminRepo.ByID(context.Background(), admin.ID)
			require.NoError(t, err)
			assert.False(t, stored.MFAEnabled())
			assert.Nil(t, stored.TwoFASecret)
			assert.False(t, utils.IsTrue(stored.TwoFAEnabled))

			entries, err := activityRepo.ListByAdmin(context.Background(), admin.ID, 1, 0)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, models.ActionMFADisabled, entries[0].Action)
		})

		t.Run("DisableRefusedWhenNotEnabled", func(t *testing.T) {
			admin, err := fixtures.CreateTestAdmin(models.RoleAdministrator)
			require.NoError(t, err)

			err = flow.Disable(context.Background(), admin.ID, testingutil.DefaultTestPassword, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsMFANotEnabled(err))
		})

		return nil
	})
	require.NoError(t, err)
}
