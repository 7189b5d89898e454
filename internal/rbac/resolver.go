package rbac

import (
	"context"
	"sync"
	"time"

	"github.com/medpoint/clinic_auth/internal/logging"
	"github.com/medpoint/clinic_auth/internal/models"
)

// Source produces a fresh access control map from persisted role and
// permission data.
type Source interface {
	Map(ctx context.Context) (models.AccessControlMap, error)
}

// Resolver caches the access control map. The map is built lazily on first
// use and rebuilt after the TTL elapses, so permission changes become
// visible without a process restart. The cached map is swapped as a whole:
// concurrent readers either see the previous complete map or the new one,
// never a partial build.
type Resolver struct {
	src Source
	ttl time.Duration

	mu      sync.RWMutex
	acl     models.AccessControlMap
	expires time.Time
}

const DefaultCacheTTL = 5 * time.Minute

func NewResolver(src Source, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Resolver{src: src, ttl: ttl}
}

// Map returns the cached access control map, rebuilding it when empty or
// stale. A rebuild failure with a previous map still cached falls back to
// the stale map rather than denying every request.
func (r *Resolver) Map(ctx context.Context) (models.AccessControlMap, error) {
	r.mu.RLock()
	acl, expires := r.acl, r.expires
	r.mu.RUnlock()

	if acl != nil && time.Now().Before(expires) {
		return acl, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another goroutine may have rebuilt while we waited for the lock.
	if r.acl != nil && time.Now().Before(r.expires) {
		return r.acl, nil
	}

	fresh, err := r.src.Map(ctx)
	if err != nil {
		if r.acl != nil {
			logging.FromContext(ctx).Warn("permission_map_rebuild_failed", "error", err)
			return r.acl, nil
		}
		return nil, err
	}

	r.acl = fresh
	r.expires = time.Now().Add(r.ttl)
	return r.acl, nil
}

// Invalidate drops the cached map so the next Map call rebuilds it. Called
// after seeding or administrative permission changes.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.acl = nil
	r.expires = time.Time{}
	r.mu.Unlock()
}
