package session

type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// View is a snapshot. Profile is only set once it belongs to Session.
type View struct {
	State   State
	Session *Session
	Profile *Profile
}

func (v View) IsAuthenticated() bool {
	return v.State == StateAuthenticated && v.Session != nil
}

// UserID is the active identity, or "" when signed out.
func (v View) UserID() string {
	if !v.IsAuthenticated() {
		return ""
	}
	return v.Session.IdentityID
}

// Role is "" until a matching profile is loaded.
func (v View) Role() Role {
	if !v.IsAuthenticated() || v.Profile == nil {
		return ""
	}
	return v.Profile.Role
}

func (v View) CompanyID() string {
	if !v.IsAuthenticated() || v.Profile == nil {
		return ""
	}
	return v.Profile.CompanyID
}

type Observer func(View)
