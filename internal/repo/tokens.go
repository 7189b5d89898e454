package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medpoint/clinic_auth/internal/models"
)

// RefreshTokens persists issued refresh tokens and their single-use status.
// The store is the sole arbiter of refresh token validity; the codec never
// consults it.
type RefreshTokens struct {
	DB *gorm.DB
}

// Save inserts a new row with is_used=false. A duplicate token string is a
// conflict; with codec-generated tokens this should never happen in
// practice.
func (r *RefreshTokens) Save(ctx context.Context, token string, userID uuid.UUID) error {
	row := models.RefreshToken{
		Token:  token,
		UserID: userID,
	}
	err := r.DB.WithContext(ctx).Create(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (r *RefreshTokens) Lookup(ctx context.Context, token string) (*models.RefreshToken, error) {
	var row models.RefreshToken
	err := r.DB.WithContext(ctx).Where("token = ?", token).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// MarkUsed flips is_used to true with a single UPDATE, so there is no
// read-then-write window. Marking an already-used token again is not an
// error.
func (r *RefreshTokens) MarkUsed(ctx context.Context, token string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ?", token).
		Update("is_used", true).Error
}

// Drivers disagree on how they surface unique-constraint violations, so
// fall back to matching the message where gorm does not translate it.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
