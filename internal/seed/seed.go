package seed

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/medpoint/clinic_auth/internal/hash"
	"github.com/medpoint/clinic_auth/internal/models"
)

var allResources = []models.Resource{
	models.ResourcePatients,
	models.ResourceUsers,
	models.ResourceLab,
	models.ResourceReports,
}

var allActions = []models.Action{
	models.ActionCreate,
	models.ActionView,
	models.ActionEdit,
	models.ActionDelete,
}

// roleGrants is the default permission layout: admin gets the full grid,
// medstaff works with patients and lab results, plain users only see their
// own profile.
var roleGrants = map[string]map[models.Resource][]models.Action{
	"admin": nil, // nil means every (resource, action) pair
	"medstaff": {
		models.ResourcePatients: {models.ActionCreate, models.ActionView, models.ActionEdit},
		models.ResourceLab:      {models.ActionView, models.ActionEdit},
		models.ResourceReports:  {models.ActionView},
	},
	"user": {
		models.ResourceUsers: {models.ActionView},
	},
}

// Seed imports the closed permission grid, the default roles and, when
// adminPassword is set, an initial admin account. Every step uses
// FirstOrCreate, so re-running is harmless.
func Seed(ctx context.Context, db *gorm.DB, adminUsername, adminPassword string) error {
	permissions := make(map[[2]string]models.Permission)
	for _, resource := range allResources {
		for _, action := range allActions {
			p := models.Permission{Resource: resource, Action: action}
			err := db.WithContext(ctx).
				Where("resource = ? AND action = ?", resource, action).
				FirstOrCreate(&p).Error
			if err != nil {
				return fmt.Errorf("seed permission %s.%s: %w", resource, action, err)
			}
			permissions[[2]string{string(resource), string(action)}] = p
		}
	}

	for name, grants := range roleGrants {
		role := models.Role{Name: name}
		err := db.WithContext(ctx).Where("name = ?", name).FirstOrCreate(&role).Error
		if err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}

		var assign []models.Permission
		if grants == nil {
			for _, p := range permissions {
				assign = append(assign, p)
			}
		} else {
			for resource, actions := range grants {
				for _, action := range actions {
					assign = append(assign, permissions[[2]string{string(resource), string(action)}])
				}
			}
		}
		err = db.WithContext(ctx).Model(&role).Association("Permissions").Replace(assign)
		if err != nil {
			return fmt.Errorf("seed role %s permissions: %w", name, err)
		}
	}

	if adminPassword != "" {
		if err := seedAdmin(ctx, db, adminUsername, adminPassword); err != nil {
			return err
		}
	}
	return nil
}

func seedAdmin(ctx context.Context, db *gorm.DB, username, password string) error {
	var count int64
	err := db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", username).Count(&count).Error
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if count > 0 {
		return nil
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	var adminRole models.Role
	if err := db.WithContext(ctx).Where("name = ?", "admin").First(&adminRole).Error; err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	admin := models.User{
		Username:       username,
		HashedPassword: pwHash,
		IsActive:       true,
		Roles:          []models.Role{adminRole},
	}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	return nil
}
