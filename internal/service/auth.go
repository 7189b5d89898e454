package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/medpoint/clinic_auth/internal/audit"
	"github.com/medpoint/clinic_auth/internal/autherr"
	"github.com/medpoint/clinic_auth/internal/hash"
	"github.com/medpoint/clinic_auth/internal/logging"
	"github.com/medpoint/clinic_auth/internal/models"
	"github.com/medpoint/clinic_auth/internal/repo"
	"github.com/medpoint/clinic_auth/internal/tokens"
)

// UserStore is the slice of user persistence the orchestrators need.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// TokenStore is the refresh token store contract.
type TokenStore interface {
	Save(ctx context.Context, token string, userID uuid.UUID) error
	Lookup(ctx context.Context, token string) (*models.RefreshToken, error)
	MarkUsed(ctx context.Context, token string) error
}

// EventPublisher pushes auth domain events to the message broker.
type EventPublisher interface {
	PublishEvent(ctx context.Context, key string, event any) error
}

// AuditRecorder writes entries to the audit trail.
type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService composes hasher, codec and stores into the four auth flows.
// Events and Audit are optional; a nil publisher or sink disables that
// concern without touching the flows.
type AuthService struct {
	Users  UserStore
	Tokens TokenStore
	Codec  *tokens.Codec
	Events EventPublisher
	Audit  AuditRecorder
}

// Register hashes the password and creates an active user. Any persistence
// failure, including a taken username, surfaces as ErrUnauthorized so the
// endpoint does not leak which usernames exist.
func (s *AuthService) Register(ctx context.Context, username, password string) error {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_failed", "reason", "hash_error", "error", err)
		return autherr.ErrUnauthorized
	}

	user := models.User{
		Username:       username,
		HashedPassword: pwHash,
		IsActive:       true,
	}
	if err := s.Users.Create(ctx, &user); err != nil {
		l.Warn("register_failed", "reason", "persist_error", "error", err)
		s.record(ctx, audit.Entry{Event: "register", Username: username, Outcome: "denied"})
		return autherr.ErrUnauthorized
	}

	s.publish(ctx, user.ID.String(), map[string]any{
		"type":     "user_registered",
		"user_id":  user.ID,
		"username": user.Username,
	})
	s.record(ctx, audit.Entry{Event: "register", Username: username, UserID: user.ID.String(), Outcome: "ok"})
	l.Info("register_success", "user_id", user.ID)
	return nil
}

// Login verifies credentials and issues an access/refresh pair. The active
// check runs after password verification, so a disabled account with the
// right password reports ErrInactiveUser, not ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	user, err := s.Users.GetByUsername(ctx, username)
	if err != nil {
		l.Warn("login_failed", "reason", "unknown_user")
		s.record(ctx, audit.Entry{Event: "login", Username: username, Outcome: "denied", Detail: "unknown user"})
		return nil, autherr.ErrUnauthorized
	}

	if !hash.CheckPassword(user.HashedPassword, password) {
		l.Warn("login_failed", "reason", "bad_password")
		s.record(ctx, audit.Entry{Event: "login", Username: username, Outcome: "denied", Detail: "bad password"})
		return nil, autherr.ErrUnauthorized
	}

	if !user.IsActive {
		l.Warn("login_failed", "reason", "inactive_user")
		s.record(ctx, audit.Entry{Event: "login", Username: username, UserID: user.ID.String(), Outcome: "denied", Detail: "inactive"})
		return nil, autherr.ErrInactiveUser
	}

	accessToken, err := s.Codec.IssueAccess(user.ID.String(), user.RoleNames())
	if err != nil {
		l.Error("login_failed", "reason", "issue_access", "error", err)
		return nil, err
	}
	refreshToken, err := s.Codec.IssueRefresh(user.ID.String())
	if err != nil {
		l.Error("login_failed", "reason", "issue_refresh", "error", err)
		return nil, err
	}

	if err := s.Tokens.Save(ctx, refreshToken, user.ID); err != nil {
		l.Error("login_failed", "reason", "save_refresh", "error", err)
		return nil, err
	}

	s.publish(ctx, user.ID.String(), map[string]any{
		"type":     "user_logged_in",
		"user_id":  user.ID,
		"username": user.Username,
	})
	s.record(ctx, audit.Entry{Event: "login", Username: username, UserID: user.ID.String(), Outcome: "ok"})
	l.Info("login_success", "user_id", user.ID)

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh mints a new access token from a decoded refresh token. The stored
// row must exist and be unused; the refresh token itself is not rotated and
// not marked used here, only Logout retires it.
func (s *AuthService) Refresh(ctx context.Context, payload *tokens.Payload) (string, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if err := payload.RequireKind(tokens.KindRefresh); err != nil {
		return "", err
	}

	stored, err := s.Tokens.Lookup(ctx, payload.Raw)
	if err != nil {
		l.Warn("refresh_failed", "reason", "token_not_stored", "error", err)
		s.record(ctx, audit.Entry{Event: "refresh", UserID: payload.Subject, Outcome: "denied", Detail: "unknown token"})
		return "", autherr.ErrInvalidToken
	}
	if stored.IsUsed {
		l.Warn("refresh_failed", "reason", "token_used")
		s.record(ctx, audit.Entry{Event: "refresh", UserID: payload.Subject, Outcome: "denied", Detail: "token already used"})
		return "", autherr.ErrInvalidToken
	}

	userID, err := uuid.Parse(payload.Subject)
	if err != nil {
		return "", autherr.ErrInvalidToken
	}
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", autherr.ErrInvalidToken
		}
		return "", err
	}
	if !user.IsActive {
		l.Warn("refresh_failed", "reason", "inactive_user", "user_id", user.ID)
		return "", autherr.ErrInactiveUser
	}

	accessToken, err := s.Codec.IssueAccess(user.ID.String(), user.RoleNames())
	if err != nil {
		l.Error("refresh_failed", "reason", "issue_access", "error", err)
		return "", err
	}

	s.publish(ctx, user.ID.String(), map[string]any{
		"type":    "token_refreshed",
		"user_id": user.ID,
	})
	s.record(ctx, audit.Entry{Event: "refresh", UserID: user.ID.String(), Outcome: "ok"})
	l.Info("refresh_success", "user_id", user.ID)
	return accessToken, nil
}

// Logout marks the presented refresh token used. Marking twice is fine; the
// call reports success as long as the store answered.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	if err := s.Tokens.MarkUsed(ctx, token); err != nil {
		l.Error("logout_failed", "error", err)
		return err
	}

	s.record(ctx, audit.Entry{Event: "logout", Outcome: "ok"})
	l.Info("logout_success")
	return nil
}

func (s *AuthService) publish(ctx context.Context, key string, event map[string]any) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishEvent(ctx, key, event); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", event["type"], "error", err)
	}
}

func (s *AuthService) record(ctx context.Context, entry audit.Entry) {
	if s.Audit == nil {
		return
	}
	s.Audit.Record(ctx, entry)
}
