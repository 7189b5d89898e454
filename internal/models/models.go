package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Resource is one of the protected nouns of the clinic API. The set is
// closed: permissions referencing anything else are never seeded.
type Resource string

const (
	ResourcePatients Resource = "patients"
	ResourceUsers    Resource = "users"
	ResourceLab      Resource = "lab"
	ResourceReports  Resource = "reports"
)

// Action is a verb performed on a Resource.
type Action string

const (
	ActionCreate Action = "create"
	ActionView   Action = "view"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"       json:"id"`
	Username       string    `gorm:"unique;not null"            json:"username"`
	HashedPassword string    `gorm:"not null"                   json:"-"`
	IsActive       bool      `gorm:"not null;default:true"      json:"is_active"`
	Roles          []Role    `gorm:"many2many:users_roles"      json:"roles"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// RoleNames returns the names of the user's roles, in assignment order.
// These are the role claims embedded into access tokens.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

type Role struct {
	ID          uint         `gorm:"primaryKey;autoIncrement"        json:"id"`
	Name        string       `gorm:"unique;not null"                 json:"name"`
	Permissions []Permission `gorm:"many2many:permissions_roles"     json:"-"`
}

type Permission struct {
	ID       uint     `gorm:"primaryKey;autoIncrement"                 json:"id"`
	Resource Resource `gorm:"not null;uniqueIndex:idx_resource_action" json:"resource"`
	Action   Action   `gorm:"not null;uniqueIndex:idx_resource_action" json:"action"`
}

// RefreshToken is a persisted refresh token row. IsUsed flips from false to
// true exactly once (logout or reuse detection) and never back.
type RefreshToken struct {
	ID     uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Token  string    `gorm:"unique;not null"          json:"token"`
	UserID uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	IsUsed bool      `gorm:"not null;default:false"   json:"is_used"`
}

func (RefreshToken) TableName() string { return "auth_tokens" }

// ActionSet is the set of actions a role may perform on one resource.
type ActionSet map[Action]struct{}

// AccessControlMap is the derived role -> resource -> actions structure the
// authorization guard consults. It is built from the roles, permissions and
// permissions_roles tables and cached by the resolver.
type AccessControlMap map[string]map[Resource]ActionSet

// Allows reports whether the role may perform action on resource.
func (m AccessControlMap) Allows(role string, resource Resource, action Action) bool {
	resources, ok := m[role]
	if !ok {
		return false
	}
	actions, ok := resources[resource]
	if !ok {
		return false
	}
	_, ok = actions[action]
	return ok
}

// Grant records that role may perform action on resource, creating the
// nested maps as needed.
func (m AccessControlMap) Grant(role string, resource Resource, action Action) {
	resources, ok := m[role]
	if !ok {
		resources = make(map[Resource]ActionSet)
		m[role] = resources
	}
	actions, ok := resources[resource]
	if !ok {
		actions = make(ActionSet)
		resources[resource] = actions
	}
	actions[action] = struct{}{}
}
