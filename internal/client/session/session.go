// Package session owns the client's view of who is signed in. Manager is the
// only writer of that view; everything else reads snapshots.
package session

import (
	"context"
	"sync"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Session is a live grant from the identity provider. IdentityID never
// changes for the life of a Session.
type Session struct {
	IdentityID    string
	Email         string
	EmailVerified bool
}

type Profile struct {
	ID          string
	Name        string
	Email       string
	CompanyID   string
	CompanyName string
	Role        Role
	CreatedAt   time.Time
}

type ProfileUpdate struct {
	Name *string
}

type SignUpMetadata struct {
	Name      string
	CompanyID string
}

type EventKind string

const (
	EventTokenRefreshed EventKind = "TOKEN_REFRESHED"
	EventSignedIn       EventKind = "SIGNED_IN"
	EventSignedOut      EventKind = "SIGNED_OUT"
	EventUserDeleted    EventKind = "USER_DELETED"
	EventUserUpdated    EventKind = "USER_UPDATED"
	EventInitialSession EventKind = "INITIAL_SESSION"
)

type Event struct {
	Kind    EventKind
	Session *Session
}

type EventHandler func(Event)

// Subscription releases a listener. Close may be called any number of times.
type Subscription interface {
	Close() error
}

//go:generate mockgen -source=session.go -destination=mock/session_mock.go -package=mock

type AuthProvider interface {
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignUp(ctx context.Context, email, password string, meta SignUpMetadata) (Session, error)
	// SignOut errors are logged by the caller, never surfaced.
	SignOut(ctx context.Context) error
	// CurrentSession returns nil when nobody is signed in.
	CurrentSession(ctx context.Context) (*Session, error)
	Subscribe(ctx context.Context, handler EventHandler) (Subscription, error)
}

type ProfileStore interface {
	// GetProfile returns nil when the profile does not exist yet.
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	UpdateProfile(ctx context.Context, userID string, fields ProfileUpdate) (Profile, error)
	// ListProfiles is ordered newest first.
	ListProfiles(ctx context.Context, companyID string) ([]Profile, error)
	UpdateRole(ctx context.Context, userID string, role Role) (Profile, error)
}

type funcSubscription struct {
	once sync.Once
	fn   func()
}

// NewSubscription wraps fn so it runs at most once.
func NewSubscription(fn func()) Subscription {
	return &funcSubscription{fn: fn}
}

func (s *funcSubscription) Close() error {
	s.once.Do(func() {
		if s.fn != nil {
			s.fn()
		}
	})
	return nil
}
