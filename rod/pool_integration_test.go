//go:build integration

package rod_test

import (
	"context"
	"testing"
	"time"

	"github.com/fwojciec/pagecache/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_AcquireRelease(t *testing.T) {
	t.Parallel()

	pool, err := rod.NewPool(rod.WithMaxContexts(2))
	require.NoError(t, err)
	defer pool.Close()

	ctx := context.Background()

	one, err := pool.Acquire(ctx)
	require.NoError(t, err)
	two, err := pool.Acquire(ctx)
	require.NoError(t, err)

	// Both leases share the same browser process.
	assert.Same(t, one.Browser(), two.Browser())

	// A third acquire blocks until a slot frees up.
	blocked, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = pool.Acquire(blocked)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	one.Release()
	three, err := pool.Acquire(ctx)
	require.NoError(t, err)
	three.Release()
	two.Release()
}

func TestPool_RestartsCrashedBrowser(t *testing.T) {
	t.Parallel()

	pool, err := rod.NewPool()
	require.NoError(t, err)
	defer pool.Close()

	ctx := context.Background()
	lease, err := pool.Acquire(ctx)
	require.NoError(t, err)

	// Kill the browser out from under the lease, then report the
	// resulting connection error.
	require.NoError(t, lease.Browser().Close())
	_, err = lease.Browser().Pages()
	require.Error(t, err)
	lease.ReportFailure(err)
	lease.Release()

	assert.Equal(t, int64(1), pool.Generation())

	// New leases see a working replacement browser.
	fresh, err := pool.Acquire(ctx)
	require.NoError(t, err)
	defer fresh.Release()
	_, err = fresh.Browser().Pages()
	assert.NoError(t, err)
}

func TestPool_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	pool, err := rod.NewPool()
	require.NoError(t, err)

	require.NoError(t, pool.Close())
	assert.NoError(t, pool.Close())
}
