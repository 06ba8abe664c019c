package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celerix-dev/celerix-builder/internal/tokenstore"
	"github.com/celerix-dev/celerix-builder/pkg/schema"
	"github.com/celerix-dev/celerix-builder/pkg/sdk"
)

func TestCheck(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		sess *schema.Session
		want Status
		left time.Duration
	}{
		{"no session", nil, Missing, 0},
		{"no expiry", &schema.Session{AccessToken: "t"}, Valid, 0},
		{"plenty left", &schema.Session{AccessToken: "t", ExpiresAt: now.Add(time.Hour)}, Valid, time.Hour},
		{"inside warning window", &schema.Session{AccessToken: "t", ExpiresAt: now.Add(4 * time.Minute)}, Expiring, 4 * time.Minute},
		{"at the window edge", &schema.Session{AccessToken: "t", ExpiresAt: now.Add(WarnBefore)}, Expiring, WarnBefore},
		{"at expiry", &schema.Session{AccessToken: "t", ExpiresAt: now}, Expired, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := sdk.NewMemoryTokenStore()
			if tt.sess != nil {
				require.NoError(t, store.Save(*tt.sess))
			}
			got, left := Check(store, now)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.left, left)
		})
	}
}

func TestEvaluateWarnsOnceAndClearsOnExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	store := sdk.NewMemoryTokenStore()
	require.NoError(t, store.Save(schema.Session{AccessToken: "t", ExpiresAt: now.Add(10 * time.Minute)}))

	var warnings, expiries int
	m := NewMonitor(store,
		withClock(func() time.Time { return clock }),
		WithOnWarning(func(time.Duration) { warnings++ }),
		WithOnExpired(func() { expiries++ }),
	)

	assert.Equal(t, Valid, m.Evaluate())
	clock = now.Add(6 * time.Minute)
	assert.Equal(t, Expiring, m.Evaluate())
	clock = now.Add(8 * time.Minute)
	assert.Equal(t, Expiring, m.Evaluate())
	assert.Equal(t, 1, warnings)

	clock = now.Add(10 * time.Minute)
	assert.Equal(t, Expired, m.Evaluate())
	assert.Equal(t, 1, expiries)
	_, err := store.Load()
	assert.True(t, errors.Is(err, sdk.ErrNoSession))

	assert.Equal(t, Missing, m.Evaluate())
	assert.Equal(t, 1, expiries)

	// A fresh login re-arms the warning.
	require.NoError(t, store.Save(schema.Session{AccessToken: "t2", ExpiresAt: clock.Add(time.Minute)}))
	assert.Equal(t, Expiring, m.Evaluate())
	assert.Equal(t, 2, warnings)
}

func TestMonitorReactsToSessionFile(t *testing.T) {
	dir := t.TempDir()
	store, err := tokenstore.New(dir, "")
	require.NoError(t, err)

	expired := make(chan struct{}, 1)
	m := NewMonitor(store,
		WithInterval(time.Hour),
		WithWatchDir(dir),
		WithOnExpired(func() { expired <- struct{}{} }),
	)
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	// Another process writes a session that is already stale.
	other, err := tokenstore.New(dir, "")
	require.NoError(t, err)
	require.NoError(t, other.Save(schema.Session{AccessToken: "eyJ.x.y", ExpiresAt: time.Now().Add(-time.Minute)}))

	select {
	case <-expired:
	case <-time.After(5 * time.Second):
		t.Fatal("expected the monitor to notice the expired session")
	}
	_, err = store.Load()
	assert.ErrorIs(t, err, schema.ErrNoSession)
}

func TestStopWaitsAndIsIdempotent(t *testing.T) {
	var ticks atomic.Int32
	store := sdk.NewMemoryTokenStore()
	m := NewMonitor(store, WithInterval(5*time.Millisecond), withClock(func() time.Time {
		ticks.Add(1)
		return time.Now()
	}))
	require.NoError(t, m.Start(context.Background()))
	time.Sleep(30 * time.Millisecond)
	m.Stop()
	after := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, ticks.Load())
	assert.GreaterOrEqual(t, after, int32(2))
	m.Stop()
}
