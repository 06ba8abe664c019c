// Package session tracks the lifetime of the persisted sign-in: how long
// the token has left, when to warn, and when to drop it.
package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/celerix-dev/celerix-builder/internal/tokenstore"
	"github.com/celerix-dev/celerix-builder/pkg/sdk"
)

// WarnBefore is how long before expiry a session counts as expiring.
const WarnBefore = 5 * time.Minute

// DefaultInterval is how often a Monitor re-checks the session.
const DefaultInterval = 30 * time.Second

type Status int

const (
	Missing Status = iota
	Valid
	Expiring
	Expired
)

func (s Status) String() string {
	switch s {
	case Valid:
		return "valid"
	case Expiring:
		return "expiring"
	case Expired:
		return "expired"
	}
	return "missing"
}

// Check loads the session and classifies it. A session without an expiry
// stays valid. The remaining lifetime is zero unless the status is Valid
// or Expiring with a known expiry.
func Check(store sdk.TokenStore, now time.Time) (Status, time.Duration) {
	sess, err := store.Load()
	if err != nil || sess.AccessToken == "" {
		return Missing, 0
	}
	if sess.ExpiresAt.IsZero() {
		return Valid, 0
	}
	left := sess.ExpiresAt.Sub(now)
	switch {
	case left <= 0:
		return Expired, 0
	case left <= WarnBefore:
		return Expiring, left
	}
	return Valid, left
}

type Option func(*Monitor)

func WithInterval(d time.Duration) Option {
	return func(m *Monitor) { m.interval = d }
}

// WithWatchDir makes the monitor react at once when the session file in
// dir changes, e.g. after a login or logout from another process.
func WithWatchDir(dir string) Option {
	return func(m *Monitor) { m.dir = dir }
}

// WithOnWarning is called once per session when it starts expiring.
func WithOnWarning(fn func(left time.Duration)) Option {
	return func(m *Monitor) { m.onWarning = fn }
}

// WithOnExpired is called after an expired session was cleared.
func WithOnExpired(fn func()) Option {
	return func(m *Monitor) { m.onExpired = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Monitor) { m.log = l }
}

func withClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// Monitor periodically checks a token store and fires callbacks on
// expiry.
type Monitor struct {
	store     sdk.TokenStore
	dir       string
	interval  time.Duration
	onWarning func(time.Duration)
	onExpired func()
	log       *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	warned  bool
	running bool
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewMonitor(store sdk.TokenStore, opts ...Option) *Monitor {
	m := &Monitor{
		store:     store,
		interval:  DefaultInterval,
		onWarning: func(time.Duration) {},
		onExpired: func() {},
		log:       zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Evaluate runs one check and fires whatever callback it calls for.
func (m *Monitor) Evaluate() Status {
	status, left := Check(m.store, m.now())

	m.mu.Lock()
	fireWarning := false
	switch status {
	case Expiring:
		fireWarning = !m.warned
		m.warned = true
	default:
		m.warned = false
	}
	m.mu.Unlock()

	switch status {
	case Expiring:
		if fireWarning {
			m.log.Info("session expiring", zap.Duration("left", left))
			m.onWarning(left)
		}
	case Expired:
		if err := m.store.Clear(); err != nil && !errors.Is(err, sdk.ErrNoSession) {
			m.log.Warn("failed to clear expired session", zap.Error(err))
		}
		m.log.Info("session expired")
		m.onExpired()
	}
	return status
}

// Start checks once and then keeps checking in a goroutine until Stop or
// ctx is done.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	if m.dir != "" {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			m.mu.Unlock()
			return err
		}
		if err := w.Add(m.dir); err != nil {
			_ = w.Close()
			m.mu.Unlock()
			return err
		}
		m.watcher = w
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	m.mu.Unlock()

	m.Evaluate()
	go m.run(ctx)
	return nil
}

// Stop ends the loop and waits for it.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	close(m.stopCh)
	<-m.doneCh

	if m.watcher != nil {
		if err := m.watcher.Close(); err != nil {
			m.log.Warn("closing session watcher", zap.Error(err))
		}
		m.watcher = nil
	}
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.doneCh)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	var (
		events <-chan fsnotify.Event
		errs   <-chan error
	)
	if m.watcher != nil {
		events, errs = m.watcher.Events, m.watcher.Errors
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.Evaluate()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Base(ev.Name) != tokenstore.FileName {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				m.log.Debug("session file changed", zap.String("op", ev.Op.String()))
				m.Evaluate()
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			m.log.Warn("session watcher error", zap.Error(err))
		}
	}
}
