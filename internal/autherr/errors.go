package autherr

import "errors"

// Sentinel errors for every auth failure the service can report. Lower
// layers (store, codec) wrap their own failures into one of these at the
// service boundary, so handlers only ever see this taxonomy.
var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrInactiveUser         = errors.New("user inactive")
	ErrExpiredToken         = errors.New("token expired")
	ErrInvalidToken         = errors.New("invalid token")
	ErrInvalidTokenType     = errors.New("invalid token type")
	ErrNotEnoughPermissions = errors.New("not enough permissions")
)
