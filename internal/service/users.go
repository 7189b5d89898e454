package service

import (
	"context"

	"github.com/google/uuid"
)

// UserProfile is the public view of a user, without credential material.
type UserProfile struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	IsActive bool      `json:"is_active"`
	Roles    []string  `json:"roles"`
}

// UserInfo returns the profile for an authenticated subject id.
func (s *AuthService) UserInfo(ctx context.Context, id uuid.UUID) (*UserProfile, error) {
	user, err := s.Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &UserProfile{
		ID:       user.ID,
		Username: user.Username,
		IsActive: user.IsActive,
		Roles:    user.RoleNames(),
	}, nil
}
