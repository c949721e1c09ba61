package remote

import (
	"context"
	"errors"
	"maps"
	"net/http"
	"slices"
	"sync"
	"time"

	"the-work-standard/internal/auth"
	"the-work-standard/internal/client/session"
	"the-work-standard/internal/events"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

var (
	errNoSession   = errors.New("no stored session")
	errStreamEnded = errors.New("session ended by server")
)

type rejectedTokenError struct {
	token string
}

func (e *rejectedTokenError) Error() string {
	return "event stream rejected the access token"
}

// AuthProvider is the session.AuthProvider backed by the API. Session events
// come from the API's websocket stream plus the provider's own sign-in,
// sign-out and refresh calls. Handlers run one at a time, in emit order, with
// no provider lock held. An event emitted while another is being delivered,
// by a handler or a token refresh it caused, is queued behind it rather than
// delivered on the caller's stack.
type AuthProvider struct {
	client *Client
	logger *zap.Logger

	backoffMin time.Duration
	backoffMax time.Duration

	mu       sync.Mutex
	handlers map[int]session.EventHandler
	nextID   int

	queueMu     sync.Mutex
	queue       []delivery
	dispatching bool

	streamMu     sync.Mutex
	streamCancel context.CancelFunc
	streamDone   chan struct{}
}

type delivery struct {
	event    session.Event
	handlers []session.EventHandler
}

func NewAuthProvider(client *Client) *AuthProvider {
	p := &AuthProvider{
		client:     client,
		logger:     client.logger.Named("auth"),
		backoffMin: time.Second,
		backoffMax: 30 * time.Second,
		handlers:   make(map[int]session.EventHandler),
	}
	client.onRefresh = func(t Tokens) {
		p.emit(session.EventTokenRefreshed, sessionFrom(t))
	}
	return p
}

func (p *AuthProvider) SignIn(ctx context.Context, email, password string) (session.Session, error) {
	var out auth.SessionResponse
	err := p.client.do(ctx, http.MethodPost, "/auth/sign-in",
		auth.SignInRequest{Email: email, Password: password}, &out, anonymous())
	if err != nil {
		return session.Session{}, err
	}

	tokens := tokensFrom(out)
	if err := p.client.tokens.Save(tokens); err != nil {
		return session.Session{}, err
	}

	s := sessionFrom(tokens)
	p.emit(session.EventSignedIn, s)
	p.startStream()
	return *s, nil
}

// SignUp registers the account without signing in.
func (p *AuthProvider) SignUp(ctx context.Context, email, password string, meta session.SignUpMetadata) (session.Session, error) {
	var out auth.SessionResponse
	err := p.client.do(ctx, http.MethodPost, "/auth/sign-up", auth.SignUpRequest{
		Email:     email,
		Password:  password,
		Name:      meta.Name,
		CompanyID: meta.CompanyID,
	}, &out, anonymous())
	if err != nil {
		return session.Session{}, err
	}

	return session.Session{
		IdentityID:    out.UserID,
		Email:         out.Email,
		EmailVerified: out.EmailVerified,
	}, nil
}

// SignOut always forgets the local session. The returned error only reports
// that the server could not be told.
func (p *AuthProvider) SignOut(ctx context.Context) error {
	p.stopStream()

	var serverErr error
	if p.client.currentUser() != "" {
		serverErr = p.client.do(ctx, http.MethodPost, "/auth/sign-out", nil, nil, withoutRefresh())
	}
	if err := p.client.tokens.Clear(); err != nil {
		p.logger.Warn("clear stored session failed", zap.Error(err))
	}

	p.emit(session.EventSignedOut, nil)
	return serverErr
}

// CurrentSession checks the stored tokens with the server. When the server
// cannot be reached the stored session is trusted.
func (p *AuthProvider) CurrentSession(ctx context.Context) (*session.Session, error) {
	stored, err := p.client.tokens.Load()
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, nil
	}

	var out auth.SessionResponse
	err = p.client.do(ctx, http.MethodGet, "/auth/session", nil, &out)
	switch {
	case err == nil:
	case isStatus(err, http.StatusUnauthorized), isStatus(err, http.StatusNotFound):
		p.logger.Info("stored session rejected", zap.Error(err))
		if cerr := p.client.tokens.Clear(); cerr != nil {
			p.logger.Warn("clear stored session failed", zap.Error(cerr))
		}
		return nil, nil
	default:
		p.logger.Warn("session check failed, using stored session", zap.Error(err))
		return sessionFrom(*stored), nil
	}

	// a refresh inside do may have replaced the tokens
	current, err := p.client.tokens.Load()
	if err != nil || current == nil {
		return nil, err
	}
	current.Email = out.Email
	current.EmailVerified = out.EmailVerified
	current.CompanyID = out.CompanyID
	if err := p.client.tokens.Save(*current); err != nil {
		p.logger.Warn("save stored session failed", zap.Error(err))
	}
	return sessionFrom(*current), nil
}

// Subscribe hands the current session to handler as INITIAL_SESSION ahead of
// any later event, and before returning unless another goroutine is
// delivering. Closing the last subscription stops the event stream; it must
// not be called from inside a handler.
func (p *AuthProvider) Subscribe(ctx context.Context, handler session.EventHandler) (session.Subscription, error) {
	stored, err := p.client.tokens.Load()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.handlers[id] = handler
	p.mu.Unlock()

	var current *session.Session
	if stored != nil {
		current = sessionFrom(*stored)
	}
	p.enqueue(session.Event{Kind: session.EventInitialSession, Session: current}, []session.EventHandler{handler})
	p.dispatch()

	if stored != nil {
		p.startStream()
	}

	return session.NewSubscription(func() {
		p.mu.Lock()
		delete(p.handlers, id)
		last := len(p.handlers) == 0
		p.mu.Unlock()
		if last {
			p.stopStream()
		}
	}), nil
}

// Close stops the event stream.
func (p *AuthProvider) Close() error {
	p.stopStream()
	return nil
}

func (p *AuthProvider) emit(kind session.EventKind, s *session.Session) {
	p.mu.Lock()
	handlers := make([]session.EventHandler, 0, len(p.handlers))
	for _, id := range slices.Sorted(maps.Keys(p.handlers)) {
		handlers = append(handlers, p.handlers[id])
	}
	p.mu.Unlock()

	p.enqueue(session.Event{Kind: kind, Session: s}, handlers)
	p.dispatch()
}

// enqueue fixes the recipients now, so a later subscriber never sees an
// event older than its INITIAL_SESSION.
func (p *AuthProvider) enqueue(ev session.Event, handlers []session.EventHandler) {
	if len(handlers) == 0 {
		return
	}
	p.queueMu.Lock()
	p.queue = append(p.queue, delivery{event: ev, handlers: handlers})
	p.queueMu.Unlock()
}

// dispatch drains the queue unless a goroutine is already doing so.
func (p *AuthProvider) dispatch() {
	p.queueMu.Lock()
	if p.dispatching {
		p.queueMu.Unlock()
		return
	}
	p.dispatching = true
	for len(p.queue) > 0 {
		d := p.queue[0]
		p.queue = p.queue[1:]
		p.queueMu.Unlock()

		for _, h := range d.handlers {
			ev := d.event
			if ev.Session != nil {
				c := *ev.Session
				ev.Session = &c
			}
			h(ev)
		}

		p.queueMu.Lock()
	}
	p.dispatching = false
	p.queueMu.Unlock()
}

func (p *AuthProvider) startStream() {
	p.streamMu.Lock()
	defer p.streamMu.Unlock()
	if p.streamCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.streamCancel = cancel
	p.streamDone = done

	go func() {
		defer close(done)
		p.runStream(ctx)

		p.streamMu.Lock()
		if p.streamDone == done {
			p.streamCancel = nil
			p.streamDone = nil
		}
		p.streamMu.Unlock()
		cancel()
	}()
}

func (p *AuthProvider) stopStream() {
	p.streamMu.Lock()
	cancel, done := p.streamCancel, p.streamDone
	p.streamCancel, p.streamDone = nil, nil
	p.streamMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// runStream keeps one websocket open, reconnecting with exponential backoff,
// until ctx ends or the session does.
func (p *AuthProvider) runStream(ctx context.Context) {
	backoff := p.backoffMin
	for {
		connected, err := p.streamOnce(ctx)
		if ctx.Err() != nil {
			return
		}

		var rejected *rejectedTokenError
		switch {
		case errors.Is(err, errNoSession), errors.Is(err, errStreamEnded):
			return
		case errors.As(err, &rejected):
			if rerr := p.client.refresh(ctx, rejected.token); rerr != nil {
				if ctx.Err() != nil {
					return
				}
				p.logger.Info("session expired", zap.Error(rerr))
				p.endSession(session.EventSignedOut)
				return
			}
			backoff = p.backoffMin
			continue
		}

		if connected {
			backoff = p.backoffMin
		}
		p.logger.Debug("event stream dropped", zap.Error(err), zap.Duration("retry_in", backoff))

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		backoff = min(backoff*2, p.backoffMax)
	}
}

func (p *AuthProvider) streamOnce(ctx context.Context) (bool, error) {
	tokens, err := p.client.tokens.Load()
	if err != nil {
		return false, err
	}
	if tokens == nil {
		return false, errNoSession
	}

	target, err := p.client.wsURL("/auth/events")
	if err != nil {
		return false, err
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+tokens.AccessToken)

	conn, resp, err := websocket.Dial(ctx, target, &websocket.DialOptions{
		HTTPClient: p.client.http.HTTPClient,
		HTTPHeader: header,
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return false, &rejectedTokenError{token: tokens.AccessToken}
		}
		return false, err
	}
	defer conn.CloseNow()

	for {
		var ev events.SessionEvent
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			return true, err
		}
		if ev.UserID != tokens.UserID {
			continue
		}
		if p.apply(ev) {
			conn.Close(websocket.StatusNormalClosure, "")
			return true, errStreamEnded
		}
	}
}

// apply forwards a server event and reports whether it ended the session.
func (p *AuthProvider) apply(ev events.SessionEvent) bool {
	switch ev.Kind {
	case events.SignedOut:
		p.endSession(session.EventSignedOut)
		return true
	case events.UserDeleted:
		p.endSession(session.EventUserDeleted)
		return true
	case events.InitialSession:
		// only ever produced locally
		return false
	}

	tokens, err := p.client.tokens.Load()
	if err != nil || tokens == nil {
		return false
	}
	if ev.Email != "" {
		tokens.Email = ev.Email
	}
	tokens.EmailVerified = ev.EmailVerified
	if err := p.client.tokens.Save(*tokens); err != nil {
		p.logger.Warn("save stored session failed", zap.Error(err))
	}
	p.emit(session.EventKind(ev.Kind), sessionFrom(*tokens))
	return false
}

func (p *AuthProvider) endSession(kind session.EventKind) {
	if err := p.client.tokens.Clear(); err != nil {
		p.logger.Warn("clear stored session failed", zap.Error(err))
	}
	p.emit(kind, nil)
}

func sessionFrom(t Tokens) *session.Session {
	return &session.Session{
		IdentityID:    t.UserID,
		Email:         t.Email,
		EmailVerified: t.EmailVerified,
	}
}
