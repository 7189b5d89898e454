package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/medpoint/clinic_auth/internal/models"
)

type Permissions struct {
	DB *gorm.DB
}

// Map folds the roles/permissions/permissions_roles tables into the
// role -> resource -> actions structure the guard consults.
func (r *Permissions) Map(ctx context.Context) (models.AccessControlMap, error) {
	var rows []struct {
		Role     string
		Resource models.Resource
		Action   models.Action
	}

	err := r.DB.WithContext(ctx).Table("roles").
		Select("roles.name AS role, permissions.resource AS resource, permissions.action AS action").
		Joins("JOIN permissions_roles ON permissions_roles.role_id = roles.id").
		Joins("JOIN permissions ON permissions.id = permissions_roles.permission_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	acl := make(models.AccessControlMap)
	for _, row := range rows {
		acl.Grant(row.Role, row.Resource, row.Action)
	}
	return acl, nil
}
