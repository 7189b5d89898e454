package rbac

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/medpoint/clinic_auth/internal/models"
)

type fakeSource struct {
	mu    sync.Mutex
	calls int
	acl   models.AccessControlMap
	err   error
}

func (f *fakeSource) Map(ctx context.Context) (models.AccessControlMap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.acl, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func adminACL() models.AccessControlMap {
	acl := make(models.AccessControlMap)
	acl.Grant("admin", models.ResourceUsers, models.ActionView)
	acl.Grant("admin", models.ResourceUsers, models.ActionEdit)
	return acl
}

func TestResolverBuildsLazilyAndCaches(t *testing.T) {
	src := &fakeSource{acl: adminACL()}
	r := NewResolver(src, time.Minute)
	ctx := context.Background()

	require.Equal(t, 0, src.callCount())

	for i := 0; i < 5; i++ {
		acl, err := r.Map(ctx)
		require.NoError(t, err)
		require.True(t, acl.Allows("admin", models.ResourceUsers, models.ActionView))
	}
	require.Equal(t, 1, src.callCount())
}

func TestResolverRebuildsAfterTTL(t *testing.T) {
	src := &fakeSource{acl: adminACL()}
	r := NewResolver(src, 30*time.Millisecond)
	ctx := context.Background()

	_, err := r.Map(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, src.callCount())

	time.Sleep(50 * time.Millisecond)

	_, err = r.Map(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, src.callCount())
}

func TestResolverInvalidate(t *testing.T) {
	src := &fakeSource{acl: adminACL()}
	r := NewResolver(src, time.Minute)
	ctx := context.Background()

	_, err := r.Map(ctx)
	require.NoError(t, err)

	r.Invalidate()

	_, err = r.Map(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, src.callCount())
}

func TestResolverKeepsStaleMapOnRebuildFailure(t *testing.T) {
	src := &fakeSource{acl: adminACL()}
	r := NewResolver(src, 10*time.Millisecond)
	ctx := context.Background()

	acl, err := r.Map(ctx)
	require.NoError(t, err)
	require.True(t, acl.Allows("admin", models.ResourceUsers, models.ActionView))

	src.mu.Lock()
	src.err = errors.New("db down")
	src.mu.Unlock()
	time.Sleep(20 * time.Millisecond)

	acl, err = r.Map(ctx)
	require.NoError(t, err)
	require.True(t, acl.Allows("admin", models.ResourceUsers, models.ActionView))
}

func TestResolverErrorWithoutCache(t *testing.T) {
	src := &fakeSource{err: errors.New("db down")}
	r := NewResolver(src, time.Minute)

	_, err := r.Map(context.Background())
	require.Error(t, err)
}

func TestResolverConcurrentReaders(t *testing.T) {
	src := &fakeSource{acl: adminACL()}
	r := NewResolver(src, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acl, err := r.Map(context.Background())
			require.NoError(t, err)
			require.True(t, acl.Allows("admin", models.ResourceUsers, models.ActionEdit))
		}()
	}
	wg.Wait()
	require.Equal(t, 1, src.callCount())
}

func TestGuardFirstMatchingRoleWins(t *testing.T) {
	src := &fakeSource{acl: adminACL()}
	g := &Guard{Resolver: NewResolver(src, time.Minute)}
	ctx := context.Background()

	ok, err := g.Check(ctx, []string{"admin"}, models.ResourceUsers, models.ActionView)
	require.NoError(t, err)
	require.True(t, ok)

	// Roles without the grant are skipped until one matches.
	ok, err = g.Check(ctx, []string{"user", "admin"}, models.ResourceUsers, models.ActionEdit)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = g.Check(ctx, []string{"admin"}, models.ResourceUsers, models.ActionDelete)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = g.Check(ctx, nil, models.ResourceUsers, models.ActionView)
	require.NoError(t, err)
	require.False(t, ok)
}
