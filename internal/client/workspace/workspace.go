// Package workspace assembles the client core for one signed-in device.
package workspace

import (
	"context"
	"errors"
	"sync"
	"time"

	"the-work-standard/internal/client/attendance"
	"the-work-standard/internal/client/directory"
	"the-work-standard/internal/client/rolegate"
	"the-work-standard/internal/client/session"

	"go.uber.org/zap"
)

type Option func(*options)

type options struct {
	logger   *zap.Logger
	now      func() time.Time
	debounce time.Duration
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithNotesDebounce(d time.Duration) Option {
	return func(o *options) { o.debounce = d }
}

type Workspace struct {
	Session    *session.Manager
	Gate       *rolegate.Gate
	Attendance *attendance.Tracker
	Directory  *directory.Directory

	logger *zap.Logger

	signedOut session.Subscription

	mu      sync.Mutex
	binding session.Subscription
	closed  bool
}

func New(auth session.AuthProvider, profiles session.ProfileStore, store attendance.Store, opts ...Option) *Workspace {
	o := options{logger: zap.L()}
	for _, opt := range opts {
		opt(&o)
	}

	manager := session.NewManager(auth, profiles, session.WithLogger(o.logger))

	trackerOpts := []attendance.Option{
		attendance.WithLogger(o.logger),
		attendance.WithNotesDebounce(o.debounce),
	}
	if o.now != nil {
		trackerOpts = append(trackerOpts, attendance.WithClock(o.now))
	}
	tracker := attendance.NewTracker(store, trackerOpts...)
	dir := directory.New(profiles, manager, o.logger)

	manager.OnSignOut(dir.Clear)
	manager.OnSignOut(tracker.Clear)
	// pushed sign-outs skip the cleaners
	signedOut := manager.Observe(func(v session.View) {
		if !v.IsAuthenticated() {
			dir.Clear()
		}
	})

	return &Workspace{
		Session:    manager,
		Gate:       rolegate.New(manager),
		Attendance: tracker,
		Directory:  dir,
		logger:     o.logger.Named("workspace"),
		signedOut:  signedOut,
	}
}

// Start restores the session and begins following it. ctx bounds every
// attendance load triggered by later session changes.
func (w *Workspace) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errors.New("workspace closed")
	}
	if w.binding != nil {
		return nil
	}

	if err := w.Session.Initialize(ctx); err != nil {
		return err
	}
	w.binding = w.Attendance.Bind(ctx, w.Session)
	return nil
}

// Close saves pending notes and stops listening for session events.
func (w *Workspace) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	binding := w.binding
	w.binding = nil
	w.mu.Unlock()

	if res := w.Attendance.FlushNotes(ctx); !res.OK() {
		w.logger.Warn("unsaved notes dropped", zap.String("reason", string(res.Reason)))
	}
	if binding != nil {
		_ = binding.Close()
	}
	_ = w.signedOut.Close()
	return w.Session.Teardown()
}
