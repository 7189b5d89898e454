package tokens

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/medpoint/clinic_auth/internal/autherr"
)

// Kind distinguishes access tokens from refresh tokens inside the signed
// payload ("type" claim).
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the wire shape of every token this service signs. Roles is only
// present on access tokens.
type Claims struct {
	Kind  Kind     `json:"type"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Payload is the decoded, in-memory view of a verified token. It is never
// persisted.
type Payload struct {
	Raw       string
	Subject   string
	Kind      Kind
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RequireKind fails with ErrInvalidTokenType when the token is not of the
// expected kind (access token presented where refresh is required, or the
// other way round).
func (p *Payload) RequireKind(kind Kind) error {
	if p.Kind != kind {
		return fmt.Errorf("%w: got %q, expected %q", autherr.ErrInvalidTokenType, p.Kind, kind)
	}
	return nil
}

// Codec issues and verifies RS256-signed tokens. The private key signs,
// the public key verifies, so Decode works anywhere the public key is
// distributed. Decode is pure: it never consults the refresh token store.
type Codec struct {
	private    *rsa.PrivateKey
	public     *rsa.PublicKey
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewCodec(private *rsa.PrivateKey, public *rsa.PublicKey, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		private:    private,
		public:     public,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// LoadCodec builds a Codec from PEM key files on disk.
func LoadCodec(privatePath, publicPath string, accessTTL, refreshTTL time.Duration) (*Codec, error) {
	privateBytes, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("read private key %s: %w", privatePath, err)
	}
	private, err := jwt.ParseRSAPrivateKeyFromPEM(privateBytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	publicBytes, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("read public key %s: %w", publicPath, err)
	}
	public, err := jwt.ParseRSAPublicKeyFromPEM(publicBytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	return NewCodec(private, public, accessTTL, refreshTTL), nil
}

func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }
func (c *Codec) AccessTTL() time.Duration  { return c.accessTTL }

// IssueAccess signs a short-lived access token carrying the subject id and
// its role claims.
func (c *Codec) IssueAccess(subject string, roles []string) (string, error) {
	return c.sign(Claims{
		Kind:  KindAccess,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(c.accessTTL)),
		},
	})
}

// IssueRefresh signs a long-lived refresh token carrying only the subject id.
func (c *Codec) IssueRefresh(subject string) (string, error) {
	return c.sign(Claims{
		Kind: KindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(c.refreshTTL)),
		},
	})
}

func (c *Codec) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(c.private)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies signature and expiry and returns the token payload.
// Expiry past due maps to ErrExpiredToken, everything else that fails
// verification maps to ErrInvalidToken.
func (c *Codec) Decode(raw string) (*Payload, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.public, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, autherr.ErrExpiredToken
		}
		return nil, autherr.ErrInvalidToken
	}
	if !token.Valid {
		return nil, autherr.ErrInvalidToken
	}

	payload := &Payload{
		Raw:     raw,
		Subject: claims.Subject,
		Kind:    claims.Kind,
		Roles:   claims.Roles,
	}
	if claims.IssuedAt != nil {
		payload.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		payload.ExpiresAt = claims.ExpiresAt.Time
	}
	return payload, nil
}
