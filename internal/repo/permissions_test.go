package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/medpoint/clinic_auth/internal/models"
)

func TestPermissionsMap(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	view := models.Permission{Resource: models.ResourceUsers, Action: models.ActionView}
	edit := models.Permission{Resource: models.ResourceUsers, Action: models.ActionEdit}
	labView := models.Permission{Resource: models.ResourceLab, Action: models.ActionView}
	require.NoError(t, db.Create(&view).Error)
	require.NoError(t, db.Create(&edit).Error)
	require.NoError(t, db.Create(&labView).Error)

	admin := models.Role{Name: "admin", Permissions: []models.Permission{view, edit, labView}}
	staff := models.Role{Name: "medstaff", Permissions: []models.Permission{labView}}
	require.NoError(t, db.Create(&admin).Error)
	require.NoError(t, db.Create(&staff).Error)

	acl, err := (&Permissions{DB: db}).Map(ctx)
	require.NoError(t, err)

	require.True(t, acl.Allows("admin", models.ResourceUsers, models.ActionView))
	require.True(t, acl.Allows("admin", models.ResourceUsers, models.ActionEdit))
	require.True(t, acl.Allows("admin", models.ResourceLab, models.ActionView))
	require.True(t, acl.Allows("medstaff", models.ResourceLab, models.ActionView))

	require.False(t, acl.Allows("medstaff", models.ResourceUsers, models.ActionView))
	require.False(t, acl.Allows("admin", models.ResourceUsers, models.ActionDelete))
	require.False(t, acl.Allows("ghost", models.ResourceUsers, models.ActionView))
}

func TestPermissionsMapEmpty(t *testing.T) {
	db := newTestDB(t)

	acl, err := (&Permissions{DB: db}).Map(context.Background())
	require.NoError(t, err)
	require.Empty(t, acl)
}
