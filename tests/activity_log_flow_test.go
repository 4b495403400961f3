// Package tests contains integration tests for the activity log flow
package tests

import (
	"context"
	"strings"
	"testing"

	"github.com/billnet/admin-api/app/dto"
	businessflow "github.com/billnet/admin-api/business_flow"
	"github.com/billnet/admin-api/models"
	"github.com/billnet/admin-api/repository"
	testingutil "github.com/billnet/admin-api/testing"
	"github.com/billnet/admin-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityLogFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)
		activityRepo := repository.NewActivityLogRepository(testDB.DB)
		flow := businessflow.NewActivityLogFlow(activityRepo)

		admin, err := fixtures.CreateTestAdmin(models.RoleAdministrator)
		require.NoError(t, err)
		other, err := fixtures.CreateTestAdmin(models.RoleModerator)
		require.NoError(t, err)

		// Seed a mixed trail: security events plus a lifecycle event
		_, err = fixtures.CreateTestActivityLog(&admin.ID, models.ActionLogin, true)
		require.NoError(t, err)
		_, err = fixtures.CreateTestActivityLog(&admin.ID, models.ActionLoginFailed, false)
		require.NoError(t, err)
		_, err = fixtures.CreateTestActivityLog(&other.ID, models.ActionLogin, true)
		require.NoError(t, err)
		_, err = fixtures.CreateTestActivityLog(&admin.ID, models.ActionCreateAdminUser, true)
		require.NoError(t, err)

		t.Run("ListRecent", func(t *testing.T) {
			res, err := flow.List(context.Background(), &dto.ListActivityLogRequest{})
			require.NoError(t, err)
			assert.Len(t, res.Entries, 4)
			assert.Equal(t, int64(4), res.Total)
			assert.Equal(t, 20, res.Limit)
			assert.Equal(t, 0, res.Offset)
		})

		t.Run("ListHonorsLimitAndOffset", func(t *testing.T) {
			res, err := flow.List(context.Background(), &dto.ListActivityLogRequest{Limit: 3})
			require.NoError(t, err)
			assert.Len(t, res.Entries, 3)
			assert.Equal(t, int64(4), res.Total)
			assert.Equal(t, 3, res.Limit)

			rest, err := flow.List(context.Background(), &dto.ListActivityLogRequest{Limit: 3, Offset: 3})
			require.NoError(t, err)
			assert.Len(t, rest.Entries, 1)
			assert.Equal(t, 3, rest.Offset)

			// The two windows partition the trail without overlap
			assert.NotEqual(t, res.Entries[0].ID, rest.Entries[0].ID)
		})

		t.Run("ListByAdmin", func(t *testing.T) {
			res, err := flow.List(context.Background(), &dto.ListActivityLogRequest{AdminID: &other.ID})
			require.NoError(t, err)
			require.Len(t, res.Entries, 1)
			assert.Equal(t, other.ID, *res.Entries[0].AdminID)
			assert.Equal(t, other.Username, res.Entries[0].AdminUsername)
		})

		t.Run("ListByAction", func(t *testing.T) {
			res, err := flow.List(context.Background(), &dto.ListActivityLogRequest{
				Action: utils.ToPtr(models.ActionLoginFailed),
			})
			require.NoError(t, err)
			require.Len(t, res.Entries, 1)
			assert.Equal(t, models.ActionLoginFailed, res.Entries[0].Action)
			assert.NotEmpty(t, res.Entries[0].ErrorMessage)
		})

		t.Run("ListSecurityOnly", func(t *testing.T) {
			res, err := flow.List(context.Background(), &dto.ListActivityLogRequest{SecurityOnly: true})
			require.NoError(t, err)
			assert.Len(t, res.Entries, 3)
			for _, entry := range res.Entries {
				assert.NotEqual(t, models.ActionCreateAdminUser, entry.Action)
			}
		})

		t.Run("ListInvalidWindow", func(t *testing.T) {
			_, err := flow.List(context.Background(), &dto.ListActivityLogRequest{Limit: 500})
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidLimit(err))

			_, err = flow.List(context.Background(), &dto.ListActivityLogRequest{Offset: -1})
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidOffset(err))
		})

		t.Run("ExportWorkbook", func(t *testing.T) {
			filename, data, err := flow.Export(context.Background(), &dto.ListActivityLogRequest{})
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(filename, "activity_log_"))
			assert.True(t, strings.HasSuffix(filename, ".xlsx"))
			// XLSX files are zip archives
			require.True(t, len(data) > 4)
			assert.Equal(t, []byte{'P', 'K'}, data[:2])
		})

		t.Run("ExportFiltered", func(t *testing.T) {
			filename, data, err := flow.Export(context.Background(), &dto.ListActivityLogRequest{
				AdminID: &other.ID,
			})
			require.NoError(t, err)
			assert.NotEmpty(t, filename)
			assert.NotEmpty(t, data)
		})

		return nil
	})
	require.NoError(t, err)
}
