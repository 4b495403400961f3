// Package tests contains integration tests for the admin account lifecycle
package tests

import (
	"context"
	"fmt"
	"testing"

	"github.com/billnet/admin-api/app/dto"
	businessflow "github.com/billnet/admin-api/business_flow"
	"github.com/billnet/admin-api/models"
	"github.com/billnet/admin-api/repository"
	testingutil "github.com/billnet/admin-api/testing"
	"github.com/billnet/admin-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestManagementFlow(testDB *testingutil.TestDB) (businessflow.AdminManagementFlow, repository.AdminAccountRepository, repository.AdminSessionRepository, repository.ActivityLogRepository) {
	adminRepo := repository.NewAdminAccountRepository(testDB.DB)
	roleRepo := repository.NewAdminRoleRepository(testDB.DB)
	sessionRepo := repository.NewAdminSessionRepository(testDB.DB)
	activityRepo := repository.NewActivityLogRepository(testDB.DB)

	flow := businessflow.NewAdminManagementFlow(adminRepo, roleRepo, sessionRepo, activityRepo, testDB.DB)
	return flow, adminRepo, sessionRepo, activityRepo
}

func TestAdminManagementFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		flow, adminRepo, sessionRepo, activityRepo := newTestManagementFlow(testDB)

		actor, err := fixtures.CreateTestAdmin(models.RoleSuperAdmin)
		require.NoError(t, err)

		t.Run("CreateAdmin", func(t *testing.T) {
			created, err := flow.CreateAdmin(context.Background(), actor.ID, &dto.CreateAdminRequest{
				Username:  "new_moderator",
				Email:     "new.moderator@example.com",
				Password:  "SecurePass123!",
				FirstName: "New",
				LastName:  "Moderator",
				Role:      models.RoleModerator,
			}, testMetadata())
			require.NoError(t, err)
			require.NotNil(t, created)

			assert.Equal(t, "new_moderator", created.Username)
			assert.Equal(t, models.RoleModerator, created.Role)
			assert.True(t, utils.IsTrue(created.IsActive))
			assert.False(t, created.MFAEnabled)

			// Password stored hashed, never plaintext
			stored, err := adminRepo.ByUsername(context.Background(), "new_moderator")
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.NotEqual(t, "SecurePass123!", stored.PasswordHash)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("SecurePass123!")))

			entries, err := activityRepo.ListByAction(context.Background(), models.ActionCreateAdminUser, 1, 0)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, actor.ID, *entries[0].AdminID)
		})

		t.Run("CreateAdminDuplicateUsername", func(t *testing.T) {
			existing, err := fixtures.CreateTestAdmin(models.RoleSupport)
			require.NoError(t, err)

			_, err = flow.CreateAdmin(context.Background(), actor.ID, &dto.CreateAdminRequest{
				Username:  existing.Username,
				Email:     "different@example.com",
				Password:  "SecurePass123!",
				FirstName: "Dup",
				LastName:  "User",
				Role:      models.RoleSupport,
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsUsernameExists(err) || businessflow.IsEmailExists(err))
		})

		t.Run("CreateAdminUnknownRole", func(t *testing.T) {
			_, err := flow.CreateAdmin(context.Background(), actor.ID, &dto.CreateAdminRequest{
				Username:  "ghost_role",
				Email:     "ghost.role@example.com",
				Password:  "SecurePass123!",
				FirstName: "Ghost",
				LastName:  "Role",
				Role:      "nonexistent_role",
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsRoleNotFound(err))
		})

		t.Run("UpdateAdminFields", func(t *testing.T) {
			target, err := fixtures.CreateTestAdmin(models.RoleAnalyst)
			require.NoError(t, err)

			updated, err := flow.UpdateAdmin(context.Background(), actor.ID, target.ID, &dto.UpdateAdminRequest{
				FirstName: utils.ToPtr("Renamed"),
				Role:      utils.ToPtr(models.RoleAuditor),
			}, testMetadata())
			require.NoError(t, err)
			require.NotNil(t, updated)
			assert.Equal(t, "Renamed", updated.FirstName)
			assert.Equal(t, models.RoleAuditor, updated.Role)
		})

		t.Run("DeactivationRevokesSessions", func(t *testing.T) {
			target, err := fixtures.CreateTestAdmin(models.RoleSupport)
			require.NoError(t, err)

			session, err := fixtures.CreateTestSession(target.ID)
			require.NoError(t, err)

			_, err = flow.UpdateAdmin(context.Background(), actor.ID, target.ID, &dto.UpdateAdminRequest{
				IsActive: utils.ToPtr(false),
			}, testMetadata())
			require.NoError(t, err)

			stored, err := sessionRepo.BySessionToken(context.Background(), session.SessionToken)
			require.NoError(t, err)
			assert.Nil(t, stored)
		})

		t.Run("DeactivateSuperAdminRefused", func(t *testing.T) {
			target, err := fixtures.CreateTestAdmin(models.RoleSuperAdmin)
			require.NoError(t, err)

			_, err = flow.UpdateAdmin(context.Background(), actor.ID, target.ID, &dto.UpdateAdminRequest{
				IsActive: utils.ToPtr(false),
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsSuperAdminProtected(err))
		})

		t.Run("DeleteAdmin", func(t *testing.T) {
			target, err := fixtures.CreateTestAdmin(models.RoleAnalyst)
			require.NoError(t, err)

			err = flow.DeleteAdmin(context.Background(), actor.ID, target.ID, testMetadata())
			require.NoError(t, err)

			stored, err := adminRepo.ByID(context.Background(), target.ID)
			require.NoError(t, err)
			assert.Nil(t, stored)
		})

		t.Run("SelfDeletionRefused", func(t *testing.T) {
			err := flow.DeleteAdmin(context.Background(), actor.ID, actor.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsSelfDeletion(err))
		})

		t.Run("DeleteSuperAdminRefused", func(t *testing.T) {
			target, err := fixtures.CreateTestAdmin(models.RoleSuperAdmin)
			require.NoError(t, err)

			err = flow.DeleteAdmin(context.Background(), actor.ID, target.ID, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsSuperAdminProtected(err))
		})

		t.Run("DeleteUnknownAdmin", func(t *testing.T) {
			err := flow.DeleteAdmin(context.Background(), actor.ID, 999999, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsAdminNotFound(err))
		})

		t.Run("ListAdminsPagination", func(t *testing.T) {
			for i := 0; i < 5; i++ {
				_, err := fixtures.CreateTestAdmin(models.RoleContentManager)
				require.NoError(t, err)
			}

			page1, err := flow.ListAdmins(context.Background(), &dto.ListAdminsRequest{
				Page:     1,
				PageSize: 3,
				Role:     utils.ToPtr(models.RoleContentManager),
			})
			require.NoError(t, err)
			assert.Len(t, page1.Admins, 3)
			assert.Equal(t, int64(5), page1.Total)

			page2, err := flow.ListAdmins(context.Background(), &dto.ListAdminsRequest{
				Page:     2,
				PageSize: 3,
				Role:     utils.ToPtr(models.RoleContentManager),
			})
			require.NoError(t, err)
			assert.Len(t, page2.Admins, 2)
		})

		t.Run("ListAdminsInvalidPagination", func(t *testing.T) {
			_, err := flow.ListAdmins(context.Background(), &dto.ListAdminsRequest{Page: -1})
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidPage(err))

			_, err = flow.ListAdmins(context.Background(), &dto.ListAdminsRequest{PageSize: 500})
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidPageSize(err))
		})

		t.Run("ListRoles", func(t *testing.T) {
			res, err := flow.ListRoles(context.Background())
			require.NoError(t, err)
			require.Len(t, res.Roles, 8)

			names := make(map[string]dto.RoleDTO, len(res.Roles))
			for _, role := range res.Roles {
				names[role.Name] = role
			}
			for _, expected := range []string{
				models.RoleSuperAdmin, models.RoleAdministrator, models.RoleModerator,
				models.RoleAnalyst, models.RoleSupport, models.RoleContentManager,
				models.RoleFinancialManager, models.RoleAuditor,
			} {
				_, ok := names[expected]
				assert.True(t, ok, fmt.Sprintf("missing role %s", expected))
			}

			assert.Contains(t, names[models.RoleSuperAdmin].Permissions["admins"], "delete")
			assert.NotContains(t, names[models.RoleAdministrator].Permissions["admins"], "delete")
		})

		return nil
	})
	require.NoError(t, err)
}
