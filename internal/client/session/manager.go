package session

import (
	"context"
	"sync"

	"the-work-standard/internal/shared/result"

	"go.uber.org/zap"
)

type Option func(*Manager)

func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger.Named("session")
		}
	}
}

// Manager drives the session lifecycle. Store calls run without any lock
// held; the result is applied only if the identity it was loaded for is
// still current. Views are published outside the lock, in the order they
// were applied, so observers may call stores (and trigger token refreshes)
// freely.
type Manager struct {
	auth     AuthProvider
	profiles ProfileStore
	logger   *zap.Logger

	// guards the decide-and-apply step of a transition, never a store call
	transition sync.Mutex
	gen        uint64

	viewMu  sync.RWMutex
	state   State
	session *Session
	profile *Profile

	observers Broadcaster[View]

	pubMu      sync.Mutex
	pending    []View
	publishing bool

	cleanMu  sync.Mutex
	cleaners []func()

	subMu    sync.Mutex
	sub      Subscription
	tornDown bool
}

func NewManager(auth AuthProvider, profiles ProfileStore, opts ...Option) *Manager {
	m := &Manager{
		auth:     auth,
		profiles: profiles,
		logger:   zap.L().Named("session"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// View returns a copy of the current state.
func (m *Manager) View() View {
	m.viewMu.RLock()
	defer m.viewMu.RUnlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() View {
	v := View{State: m.state}
	if m.session != nil {
		s := *m.session
		v.Session = &s
	}
	if m.profile != nil {
		p := *m.profile
		v.Profile = &p
	}
	return v
}

// Observe registers fn for every view published from now on. fn runs with no
// Manager lock held, possibly on another caller's goroutine.
func (m *Manager) Observe(fn Observer) Subscription {
	return m.observers.Add(fn)
}

// OnSignOut adds fn to the cleaners SignOut runs for session-scoped caches.
func (m *Manager) OnSignOut(fn func()) {
	m.cleanMu.Lock()
	m.cleaners = append(m.cleaners, fn)
	m.cleanMu.Unlock()
}

// Initialize restores an existing session and subscribes to the provider.
// Only the first call does anything.
func (m *Manager) Initialize(ctx context.Context) error {
	m.transition.Lock()
	if m.View().State != StateUninitialized {
		m.transition.Unlock()
		return nil
	}
	m.apply(StateInitializing, nil, nil)
	gen := m.gen
	m.transition.Unlock()
	m.flush()

	current, err := m.auth.CurrentSession(ctx)
	if err != nil {
		m.logger.Warn("restore session failed", zap.Error(err))
		current = nil
	}
	var p *Profile
	if current != nil {
		p = m.loadProfile(ctx, current.IdentityID)
	}

	m.transition.Lock()
	// a SignIn may have finished while the session was being restored
	if m.gen == gen {
		if current == nil {
			m.apply(StateUnauthenticated, nil, nil)
		} else {
			m.apply(StateAuthenticated, current, p)
		}
	}
	m.transition.Unlock()
	m.flush()

	// subscribing outside the lock lets a provider deliver INITIAL_SESSION
	// from inside Subscribe
	sub, err := m.auth.Subscribe(ctx, m.handle)
	if err != nil {
		m.logger.Error("subscribe to auth events failed", zap.Error(err))
		return err
	}

	m.subMu.Lock()
	defer m.subMu.Unlock()
	if m.tornDown {
		return sub.Close()
	}
	m.sub = sub
	return nil
}

// Teardown drops the provider subscription. Safe before Initialize.
func (m *Manager) Teardown() error {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.tornDown = true
	if m.sub == nil {
		return nil
	}
	err := m.sub.Close()
	m.sub = nil
	return err
}

func (m *Manager) SignIn(ctx context.Context, email, password string) result.Result {
	sess, err := m.auth.SignIn(ctx, email, password)
	if err != nil {
		m.logger.Info("sign in rejected", zap.String("email", email), zap.Error(err))
		return result.FromError(err)
	}

	m.establish(ctx, &sess)
	return result.Success("로그인되었습니다.")
}

// SignUp registers an identity. It never changes the session state; the
// account may have to be confirmed first.
func (m *Manager) SignUp(ctx context.Context, email, password, name, companyID string) result.Result {
	sess, err := m.auth.SignUp(ctx, email, password, SignUpMetadata{Name: name, CompanyID: companyID})
	if err != nil {
		m.logger.Info("sign up rejected", zap.String("email", email), zap.Error(err))
		return result.FromError(err)
	}
	if !sess.EmailVerified {
		return result.Success("가입 확인 메일을 확인해주세요.")
	}
	return result.Success("회원가입이 완료되었습니다.")
}

// SignOut asks the provider to end the session and clears local caches. The
// state itself changes when the provider's SIGNED_OUT event arrives.
func (m *Manager) SignOut(ctx context.Context) result.Result {
	if err := m.auth.SignOut(ctx); err != nil {
		m.logger.Warn("sign out failed", zap.Error(err))
	}

	m.cleanMu.Lock()
	cleaners := append([]func(){}, m.cleaners...)
	m.cleanMu.Unlock()
	for _, clean := range cleaners {
		clean()
	}
	return result.Success("로그아웃되었습니다.")
}

// RefreshProfile reloads the active identity's profile. A failed load keeps
// the previous profile.
func (m *Manager) RefreshProfile(ctx context.Context) result.Result {
	v := m.View()
	if !v.IsAuthenticated() {
		return result.Fail(result.ReasonUnauthenticated, "")
	}
	userID := v.Session.IdentityID

	p, err := m.profiles.GetProfile(ctx, userID)
	if err != nil {
		m.logger.Warn("refresh profile failed", zap.String("user_id", userID), zap.Error(err))
		return result.FromError(err)
	}
	m.applyProfile(userID, p, nil)
	return result.Success("")
}

func (m *Manager) handle(ev Event) {
	if ev.Kind == EventTokenRefreshed {
		return
	}
	log := m.logger.With(zap.String("event", string(ev.Kind)))
	ctx := context.Background()

	switch ev.Kind {
	case EventSignedOut, EventUserDeleted:
		m.transition.Lock()
		m.apply(StateUnauthenticated, nil, nil)
		m.transition.Unlock()
		m.flush()
	case EventSignedIn, EventInitialSession:
		if ev.Session == nil {
			return
		}
		m.establish(ctx, ev.Session)
	case EventUserUpdated:
		if ev.Session == nil || m.View().UserID() != ev.Session.IdentityID {
			return
		}
		userID := ev.Session.IdentityID
		p, err := m.profiles.GetProfile(ctx, userID)
		if err != nil {
			log.Warn("reload profile failed", zap.Error(err))
			return
		}
		verified := ev.Session.EmailVerified
		m.applyProfile(userID, p, &verified)
	default:
		log.Debug("ignore unknown auth event")
	}
}

// applyProfile installs p if userID is still the active identity.
func (m *Manager) applyProfile(userID string, p *Profile, emailVerified *bool) {
	m.transition.Lock()
	v := m.View()
	if !v.IsAuthenticated() || v.UserID() != userID {
		m.transition.Unlock()
		m.logger.Debug("drop profile loaded for an inactive identity", zap.String("user_id", userID))
		return
	}
	sess := *v.Session
	if emailVerified != nil {
		sess.EmailVerified = *emailVerified
	}
	m.apply(StateAuthenticated, &sess, m.matching(userID, p))
	m.transition.Unlock()
	m.flush()
}

// establish makes sess the active session unless it already is. Any
// transition applied while the profile loads supersedes this one.
func (m *Manager) establish(ctx context.Context, sess *Session) {
	m.transition.Lock()
	if m.View().UserID() == sess.IdentityID {
		m.transition.Unlock()
		return
	}
	gen := m.gen
	m.transition.Unlock()

	p := m.loadProfile(ctx, sess.IdentityID)

	m.transition.Lock()
	if m.gen != gen {
		m.transition.Unlock()
		m.logger.Debug("drop superseded sign in", zap.String("user_id", sess.IdentityID))
		return
	}
	m.apply(StateAuthenticated, sess, p)
	m.transition.Unlock()
	m.flush()
}

// loadProfile never fails the caller: authentication holds without a profile.
func (m *Manager) loadProfile(ctx context.Context, userID string) *Profile {
	p, err := m.profiles.GetProfile(ctx, userID)
	if err != nil {
		m.logger.Warn("load profile failed", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	return m.matching(userID, p)
}

func (m *Manager) matching(userID string, p *Profile) *Profile {
	if p == nil {
		return nil
	}
	if p.ID != userID {
		m.logger.Warn("discard profile for another identity",
			zap.String("user_id", userID),
			zap.String("profile_id", p.ID),
		)
		return nil
	}
	cp := *p
	return &cp
}

// apply installs the new state and queues its view. Callers hold the
// transition lock and call flush after releasing it.
func (m *Manager) apply(state State, sess *Session, p *Profile) {
	m.viewMu.Lock()
	m.state = state
	m.session = nil
	if sess != nil {
		s := *sess
		m.session = &s
	}
	m.profile = p
	v := m.snapshotLocked()
	m.viewMu.Unlock()
	m.gen++

	m.logger.Debug("session transition",
		zap.String("state", state.String()),
		zap.String("user_id", v.UserID()),
	)

	m.pubMu.Lock()
	m.pending = append(m.pending, v)
	m.pubMu.Unlock()
}

// flush publishes queued views. Whoever finds the queue idle drains it; a
// nested or concurrent call only leaves its views for that goroutine.
func (m *Manager) flush() {
	m.pubMu.Lock()
	if m.publishing {
		m.pubMu.Unlock()
		return
	}
	m.publishing = true
	for len(m.pending) > 0 {
		v := m.pending[0]
		m.pending = m.pending[1:]
		m.pubMu.Unlock()
		m.observers.Publish(v)
		m.pubMu.Lock()
	}
	m.publishing = false
	m.pubMu.Unlock()
}
