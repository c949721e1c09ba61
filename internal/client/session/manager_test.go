package session_test

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"testing"
	"time"

	"the-work-standard/internal/client/session"
	"the-work-standard/internal/client/session/mock"
	"the-work-standard/internal/shared/apperror"
	"the-work-standard/internal/shared/result"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type managerFixture struct {
	auth     *mock.MockAuthProvider
	profiles *mock.MockProfileStore
	sub      *mock.MockSubscription
	manager  *session.Manager
	handler  session.EventHandler
	views    []session.View
}

func newManagerFixture(t *testing.T) *managerFixture {
	ctrl := gomock.NewController(t)
	f := &managerFixture{
		auth:     mock.NewMockAuthProvider(ctrl),
		profiles: mock.NewMockProfileStore(ctrl),
		sub:      mock.NewMockSubscription(ctrl),
	}
	f.manager = session.NewManager(f.auth, f.profiles, session.WithLogger(zap.NewNop()))
	f.manager.Observe(func(v session.View) { f.views = append(f.views, v) })
	return f
}

// expectSubscribe captures the push handler.
func (f *managerFixture) expectSubscribe() {
	f.auth.EXPECT().
		Subscribe(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, h session.EventHandler) (session.Subscription, error) {
			f.handler = h
			return f.sub, nil
		}).
		Times(1)
}

func (f *managerFixture) initSignedIn(t *testing.T, id string, role session.Role) {
	f.auth.EXPECT().CurrentSession(gomock.Any()).Return(&session.Session{IdentityID: id, EmailVerified: true}, nil)
	f.profiles.EXPECT().GetProfile(gomock.Any(), id).Return(profileOf(id, role), nil)
	f.expectSubscribe()
	require.NoError(t, f.manager.Initialize(context.Background()))
}

func (f *managerFixture) initSignedOut(t *testing.T) {
	f.auth.EXPECT().CurrentSession(gomock.Any()).Return(nil, nil)
	f.expectSubscribe()
	require.NoError(t, f.manager.Initialize(context.Background()))
}

func profileOf(id string, role session.Role) *session.Profile {
	return &session.Profile{
		ID:          id,
		Name:        "name-" + id,
		Email:       id + "@example.com",
		CompanyID:   "company-1",
		CompanyName: "표준상사",
		Role:        role,
		CreatedAt:   time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestInitialize(t *testing.T) {
	t.Run("restores session and profile", func(t *testing.T) {
		f := newManagerFixture(t)
		f.initSignedIn(t, "u1", session.RoleAdmin)

		v := f.manager.View()
		assert.Equal(t, session.StateAuthenticated, v.State)
		assert.Equal(t, "u1", v.UserID())
		assert.Equal(t, session.RoleAdmin, v.Role())

		states := []session.State{}
		for _, seen := range f.views {
			states = append(states, seen.State)
		}
		assert.Equal(t, []session.State{session.StateInitializing, session.StateAuthenticated}, states)
	})

	t.Run("second call is a no-op", func(t *testing.T) {
		f := newManagerFixture(t)
		f.initSignedIn(t, "u1", session.RoleUser)

		assert.NoError(t, f.manager.Initialize(context.Background()))
		assert.Len(t, f.views, 2)
	})

	t.Run("profile failure keeps the session", func(t *testing.T) {
		f := newManagerFixture(t)
		f.auth.EXPECT().CurrentSession(gomock.Any()).Return(&session.Session{IdentityID: "u1"}, nil)
		f.profiles.EXPECT().GetProfile(gomock.Any(), "u1").Return(nil, errors.New("timeout"))
		f.expectSubscribe()

		require.NoError(t, f.manager.Initialize(context.Background()))

		v := f.manager.View()
		assert.True(t, v.IsAuthenticated())
		assert.Nil(t, v.Profile)
		assert.Equal(t, session.Role(""), v.Role())
	})

	t.Run("no session", func(t *testing.T) {
		f := newManagerFixture(t)
		f.initSignedOut(t)

		assert.Equal(t, session.StateUnauthenticated, f.manager.View().State)
	})

	t.Run("restore error still subscribes", func(t *testing.T) {
		f := newManagerFixture(t)
		f.auth.EXPECT().CurrentSession(gomock.Any()).Return(nil, errors.New("dial tcp: refused"))
		f.expectSubscribe()

		require.NoError(t, f.manager.Initialize(context.Background()))
		assert.Equal(t, session.StateUnauthenticated, f.manager.View().State)
		assert.NotNil(t, f.handler)
	})

	t.Run("subscribe error is returned", func(t *testing.T) {
		f := newManagerFixture(t)
		f.auth.EXPECT().CurrentSession(gomock.Any()).Return(nil, nil)
		f.auth.EXPECT().Subscribe(gomock.Any(), gomock.Any()).Return(nil, errors.New("ws down"))

		assert.Error(t, f.manager.Initialize(context.Background()))
		assert.Equal(t, session.StateUnauthenticated, f.manager.View().State)
	})

	t.Run("discards a profile for another identity", func(t *testing.T) {
		f := newManagerFixture(t)
		f.auth.EXPECT().CurrentSession(gomock.Any()).Return(&session.Session{IdentityID: "u1"}, nil)
		f.profiles.EXPECT().GetProfile(gomock.Any(), "u1").Return(profileOf("u2", session.RoleAdmin), nil)
		f.expectSubscribe()

		require.NoError(t, f.manager.Initialize(context.Background()))
		assert.Nil(t, f.manager.View().Profile)
		assert.Equal(t, session.Role(""), f.manager.View().Role())
	})
}

func TestTeardown(t *testing.T) {
	t.Run("before initialize", func(t *testing.T) {
		f := newManagerFixture(t)
		assert.NoError(t, f.manager.Teardown())
	})

	t.Run("closes the subscription once", func(t *testing.T) {
		f := newManagerFixture(t)
		f.initSignedOut(t)
		f.sub.EXPECT().Close().Return(nil).Times(1)

		assert.NoError(t, f.manager.Teardown())
		assert.NoError(t, f.manager.Teardown())
	})

	t.Run("subscription arriving after teardown is closed", func(t *testing.T) {
		f := newManagerFixture(t)
		require.NoError(t, f.manager.Teardown())

		f.auth.EXPECT().CurrentSession(gomock.Any()).Return(nil, nil)
		f.expectSubscribe()
		f.sub.EXPECT().Close().Return(nil).Times(1)

		assert.NoError(t, f.manager.Initialize(context.Background()))
	})
}

func TestSignIn(t *testing.T) {
	t.Run("invalid credentials leave state unchanged", func(t *testing.T) {
		f := newManagerFixture(t)
		f.initSignedOut(t)
		f.auth.EXPECT().SignIn(gomock.Any(), "kim@example.com", "wrong").
			Return(session.Session{}, apperror.New("INVALID_CREDENTIALS", "Invalid login credentials", http.StatusUnauthorized))

		res := f.manager.SignIn(context.Background(), "kim@example.com", "wrong")

		assert.Equal(t, result.ReasonInvalidCredentials, res.Reason)
		assert.Equal(t, "이메일 또는 비밀번호가 올바르지 않습니다.", res.Message)
		assert.Equal(t, session.StateUnauthenticated, f.manager.View().State)
	})

	t.Run("unconfirmed email", func(t *testing.T) {
		f := newManagerFixture(t)
		f.initSignedOut(t)
		f.auth.EXPECT().SignIn(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(session.Session{}, apperror.New("EMAIL_NOT_CONFIRMED", "Email not confirmed", http.StatusUnauthorized))

		res := f.manager.SignIn(context.Background(), "kim@example.com", "pw")

		assert.Equal(t, result.ReasonEmailNotConfirmed, res.Reason)
		assert.False(t, f.manager.View().IsAuthenticated())
	})

	t.Run("success loads the profile once despite the echo event", func(t *testing.T) {
		f := newManagerFixture(t)
		f.initSignedOut(t)
		sess := session.Session{IdentityID: "u1", EmailVerified: true}
		f.auth.EXPECT().SignIn(gomock.Any(), "kim@example.com", "pw").Return(sess, nil)
		f.profiles.EXPECT().GetProfile(gomock.Any(), "u1").Return(profileOf("u1", session.RoleUser), nil).Times(1)

		res := f.manager.SignIn(context.Background(), "kim@example.com", "pw")
		require.True(t, res.OK())

		f.handler(session.Event{Kind: session.EventSignedIn, Session: &sess})
		f.handler(session.Event{Kind: session.EventInitialSession, Session: &sess})

		v := f.manager.View()
		assert.Equal(t, "u1", v.UserID())
		assert.Equal(t, session.RoleUser, v.Role())
	})
}

func TestSignUp(t *testing.T) {
	f := newManagerFixture(t)
	f.initSignedOut(t)

	f.auth.EXPECT().
		SignUp(gomock.Any(), "new@example.com", "secret1", session.SignUpMetadata{Name: "신입", CompanyID: "company-1"}).
		Return(session.Session{IdentityID: "u9"}, nil)
	res := f.manager.SignUp(context.Background(), "new@example.com", "secret1", "신입", "company-1")
	assert.True(t, res.OK())
	assert.Equal(t, session.StateUnauthenticated, f.manager.View().State)

	f.auth.EXPECT().SignUp(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(session.Session{}, apperror.New("ALREADY_REGISTERED", "User already registered", http.StatusConflict))
	res = f.manager.SignUp(context.Background(), "new@example.com", "secret1", "신입", "company-1")
	assert.Equal(t, result.ReasonAlreadyRegistered, res.Reason)
	assert.Equal(t, "이미 등록된 이메일입니다.", res.Message)
}

func TestSignOut(t *testing.T) {
	f := newManagerFixture(t)
	f.initSignedIn(t, "u1", session.RoleUser)

	cleaned := 0
	f.manager.OnSignOut(func() { cleaned++ })
	f.auth.EXPECT().SignOut(gomock.Any()).Return(errors.New("network down"))

	res := f.manager.SignOut(context.Background())

	assert.True(t, res.OK())
	assert.Equal(t, 1, cleaned)
	// still authenticated until the provider says otherwise
	assert.True(t, f.manager.View().IsAuthenticated())

	f.handler(session.Event{Kind: session.EventSignedOut})
	v := f.manager.View()
	assert.Equal(t, session.StateUnauthenticated, v.State)
	assert.Nil(t, v.Session)
	assert.Nil(t, v.Profile)
}

func TestPushEvents(t *testing.T) {
	t.Run("user deleted revokes", func(t *testing.T) {
		f := newManagerFixture(t)
		f.initSignedIn(t, "u1", session.RoleAdmin)

		f.handler(session.Event{Kind: session.EventUserDeleted, Session: &session.Session{IdentityID: "someone-else"}})

		assert.Equal(t, session.StateUnauthenticated, f.manager.View().State)
	})

	t.Run("signed out then signed in as another user applies in order", func(t *testing.T) {
		f := newManagerFixture(t)
		f.initSignedIn(t, "u1", session.RoleAdmin)
		f.profiles.EXPECT().GetProfile(gomock.Any(), "u2").Return(profileOf("u2", session.RoleUser), nil)
		f.views = nil

		f.handler(session.Event{Kind: session.EventSignedOut})
		f.handler(session.Event{Kind: session.EventSignedIn, Session: &session.Session{IdentityID: "u2"}})

		require.Len(t, f.views, 2)
		assert.Equal(t, session.StateUnauthenticated, f.views[0].State)
		assert.Equal(t, "u2", f.views[1].UserID())
		assert.Equal(t, session.RoleUser, f.manager.View().Role())
	})

	t.Run("signed in for a different identity switches", func(t *testing.T) {
		f := newManagerFixture(t)
		f.initSignedIn(t, "u1", session.RoleAdmin)
		f.profiles.EXPECT().GetProfile(gomock.Any(), "u2").Return(profileOf("u2", session.RoleUser), nil)

		f.handler(session.Event{Kind: session.EventSignedIn, Session: &session.Session{IdentityID: "u2"}})

		assert.Equal(t, "u2", f.manager.View().UserID())
		assert.Equal(t, "u2", f.manager.View().Profile.ID)
	})

	t.Run("user updated reloads the active profile", func(t *testing.T) {
		f := newManagerFixture(t)
		f.initSignedIn(t, "u1", session.RoleUser)
		f.profiles.EXPECT().GetProfile(gomock.Any(), "u1").Return(profileOf("u1", session.RoleAdmin), nil)

		f.handler(session.Event{Kind: session.EventUserUpdated, Session: &session.Session{IdentityID: "u1", EmailVerified: true}})

		assert.Equal(t, session.RoleAdmin, f.manager.View().Role())
	})

	t.Run("user updated for someone else is ignored", func(t *testing.T) {
		f := newManagerFixture(t)
		f.initSignedIn(t, "u1", session.RoleUser)
		before := len(f.views)

		f.handler(session.Event{Kind: session.EventUserUpdated, Session: &session.Session{IdentityID: "u2"}})

		assert.Len(t, f.views, before)
	})

	t.Run("token refreshed never changes the view", func(t *testing.T) {
		f := newManagerFixture(t)
		f.initSignedIn(t, "u1", session.RoleUser)
		f.profiles.EXPECT().GetProfile(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, id string) (*session.Profile, error) {
				return profileOf(id, session.RoleUser), nil
			}).
			AnyTimes()

		kinds := []session.EventKind{
			session.EventSignedIn, session.EventSignedOut, session.EventUserDeleted,
			session.EventUserUpdated, session.EventInitialSession, session.EventTokenRefreshed,
		}
		ids := []string{"u1", "u2", "u3"}
		rng := rand.New(rand.NewSource(7))

		for i := 0; i < 300; i++ {
			kind := kinds[rng.Intn(len(kinds))]
			ev := session.Event{Kind: kind, Session: &session.Session{IdentityID: ids[rng.Intn(len(ids))]}}
			before := f.manager.View()
			seen := len(f.views)

			f.handler(ev)

			if kind == session.EventTokenRefreshed {
				assert.Equal(t, before, f.manager.View())
				assert.Len(t, f.views, seen)
			}
		}
	})
}

func TestRefreshProfile(t *testing.T) {
	t.Run("unauthenticated is a no-op", func(t *testing.T) {
		f := newManagerFixture(t)
		f.initSignedOut(t)

		res := f.manager.RefreshProfile(context.Background())
		assert.Equal(t, result.ReasonUnauthenticated, res.Reason)
	})

	t.Run("failure keeps the previous profile", func(t *testing.T) {
		f := newManagerFixture(t)
		f.initSignedIn(t, "u1", session.RoleAdmin)
		f.profiles.EXPECT().GetProfile(gomock.Any(), "u1").Return(nil, errors.New("502"))

		res := f.manager.RefreshProfile(context.Background())

		assert.Equal(t, result.ReasonFailed, res.Reason)
		assert.Equal(t, session.RoleAdmin, f.manager.View().Role())
	})

	t.Run("applies the new role", func(t *testing.T) {
		f := newManagerFixture(t)
		f.initSignedIn(t, "u1", session.RoleAdmin)
		f.profiles.EXPECT().GetProfile(gomock.Any(), "u1").Return(profileOf("u1", session.RoleUser), nil)

		assert.True(t, f.manager.RefreshProfile(context.Background()).OK())
		assert.Equal(t, session.RoleUser, f.manager.View().Role())
	})

	t.Run("token refresh during the reload does not block", func(t *testing.T) {
		f := newManagerFixture(t)
		f.initSignedIn(t, "u1", session.RoleAdmin)
		f.profiles.EXPECT().GetProfile(gomock.Any(), "u1").
			DoAndReturn(func(context.Context, string) (*session.Profile, error) {
				f.handler(session.Event{Kind: session.EventTokenRefreshed, Session: &session.Session{IdentityID: "u1"}})
				return profileOf("u1", session.RoleUser), nil
			})
		before := len(f.views)

		done := make(chan result.Result, 1)
		go func() { done <- f.manager.RefreshProfile(context.Background()) }()

		select {
		case res := <-done:
			assert.True(t, res.OK())
		case <-time.After(time.Second):
			t.Fatal("RefreshProfile blocked on a token refresh")
		}
		assert.Equal(t, session.RoleUser, f.manager.View().Role())
		assert.Len(t, f.views, before+1)
	})

	t.Run("observer may call back into the manager", func(t *testing.T) {
		f := newManagerFixture(t)
		f.initSignedIn(t, "u1", session.RoleAdmin)
		f.profiles.EXPECT().GetProfile(gomock.Any(), "u1").Return(profileOf("u1", session.RoleUser), nil).Times(2)

		nested := 0
		f.manager.Observe(func(v session.View) {
			if nested == 0 && v.Role() == session.RoleUser {
				nested++
				assert.True(t, f.manager.RefreshProfile(context.Background()).OK())
			}
		})

		assert.True(t, f.manager.RefreshProfile(context.Background()).OK())
		assert.Equal(t, 1, nested)
		assert.Equal(t, session.RoleUser, f.manager.View().Role())
	})
}

func TestObserve_Close(t *testing.T) {
	f := newManagerFixture(t)
	calls := 0
	sub := f.manager.Observe(func(session.View) { calls++ })
	assert.NoError(t, sub.Close())
	assert.NoError(t, sub.Close())

	f.initSignedOut(t)
	assert.Equal(t, 0, calls)
}

func TestView_IsACopy(t *testing.T) {
	f := newManagerFixture(t)
	f.initSignedIn(t, "u1", session.RoleUser)

	v := f.manager.View()
	v.Profile.Role = session.RoleAdmin
	v.Session.IdentityID = "forged"

	assert.Equal(t, session.RoleUser, f.manager.View().Role())
	assert.Equal(t, "u1", f.manager.View().UserID())
}
