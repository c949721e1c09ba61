package remote

import (
	"context"
	"net/http"
	"testing"
	"time"

	"the-work-standard/internal/client/session"
	"the-work-standard/internal/events"
	"the-work-standard/internal/shared/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, api *fakeAPI, tokens *memTokens) *AuthProvider {
	t.Helper()
	p := NewAuthProvider(newTestClient(api.baseURL(), tokens))
	p.backoffMin = 10 * time.Millisecond
	p.backoffMax = 50 * time.Millisecond
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestAuthProvider_SignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("Success saves tokens and emits SIGNED_IN", func(t *testing.T) {
		api := newFakeAPI(t)
		tokens := &memTokens{}
		p := newTestProvider(t, api, tokens)

		rec := &recorder{}
		_, err := p.Subscribe(ctx, rec.handle)
		require.NoError(t, err)

		s, err := p.SignIn(ctx, "kim@acme.test", "secret")
		require.NoError(t, err)
		assert.Equal(t, "u1", s.IdentityID)
		assert.True(t, s.EmailVerified)

		stored, _ := tokens.Load()
		require.NotNil(t, stored)
		assert.Equal(t, "access-1", stored.AccessToken)
		assert.Equal(t, "c1", stored.CompanyID)

		assert.Equal(t, []session.EventKind{session.EventInitialSession, session.EventSignedIn}, rec.kinds())
		assert.Eventually(t, func() bool { return api.streamCount() == 1 }, time.Second, 10*time.Millisecond)
	})

	t.Run("Invalid credentials", func(t *testing.T) {
		api := newFakeAPI(t)
		tokens := &memTokens{}
		p := newTestProvider(t, api, tokens)

		_, err := p.SignIn(ctx, "kim@acme.test", "wrong")
		require.Error(t, err)
		assert.Equal(t, "INVALID_CREDENTIALS", apperror.CodeOf(err))
		assert.True(t, isStatus(err, http.StatusUnauthorized))

		stored, _ := tokens.Load()
		assert.Nil(t, stored)
	})
}

func TestAuthProvider_SignUpDoesNotSignIn(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI(t)
	tokens := &memTokens{}
	p := newTestProvider(t, api, tokens)

	rec := &recorder{}
	listen(p, rec.handle)

	s, err := p.SignUp(ctx, "lee@acme.test", "secret", session.SignUpMetadata{Name: "Lee", CompanyID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "u2", s.IdentityID)
	assert.False(t, s.EmailVerified)

	stored, _ := tokens.Load()
	assert.Nil(t, stored)
	assert.Empty(t, rec.kinds())

	_, err = p.SignUp(ctx, "kim@acme.test", "secret", session.SignUpMetadata{Name: "Kim", CompanyID: "c1"})
	assert.Equal(t, "ALREADY_REGISTERED", apperror.CodeOf(err))
}

func TestAuthProvider_SignOut(t *testing.T) {
	ctx := context.Background()

	t.Run("Clears tokens and emits SIGNED_OUT", func(t *testing.T) {
		api := newFakeAPI(t)
		tokens := &memTokens{}
		p := newTestProvider(t, api, tokens)
		rec := &recorder{}
		listen(p, rec.handle)
		require.NoError(t, tokens.Save(api.tokens()))

		require.NoError(t, p.SignOut(ctx))

		stored, _ := tokens.Load()
		assert.Nil(t, stored)
		assert.Equal(t, []session.EventKind{session.EventSignedOut}, rec.kinds())
	})

	t.Run("Server failure still signs out locally", func(t *testing.T) {
		api := newFakeAPI(t)
		api.signOutFails = true
		tokens := &memTokens{}
		p := newTestProvider(t, api, tokens)
		rec := &recorder{}
		listen(p, rec.handle)
		require.NoError(t, tokens.Save(api.tokens()))

		err := p.SignOut(ctx)
		assert.Error(t, err)

		stored, _ := tokens.Load()
		assert.Nil(t, stored)
		assert.Equal(t, []session.EventKind{session.EventSignedOut}, rec.kinds())
	})
}

func TestAuthProvider_CurrentSession(t *testing.T) {
	ctx := context.Background()

	t.Run("No stored session", func(t *testing.T) {
		api := newFakeAPI(t)
		p := newTestProvider(t, api, &memTokens{})

		s, err := p.CurrentSession(ctx)
		require.NoError(t, err)
		assert.Nil(t, s)
	})

	t.Run("Stored session confirmed by server", func(t *testing.T) {
		api := newFakeAPI(t)
		tokens := &memTokens{}
		require.NoError(t, tokens.Save(api.tokens()))
		p := newTestProvider(t, api, tokens)

		s, err := p.CurrentSession(ctx)
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, "u1", s.IdentityID)
		assert.Equal(t, "kim@acme.test", s.Email)
	})

	t.Run("Rejected token clears the stored session", func(t *testing.T) {
		api := newFakeAPI(t)
		tokens := &memTokens{}
		stale := api.tokens()
		stale.AccessToken = "forged"
		require.NoError(t, tokens.Save(stale))
		p := newTestProvider(t, api, tokens)

		s, err := p.CurrentSession(ctx)
		require.NoError(t, err)
		assert.Nil(t, s)
		stored, _ := tokens.Load()
		assert.Nil(t, stored)
	})

	t.Run("Unreachable server trusts the stored session", func(t *testing.T) {
		api := newFakeAPI(t)
		tokens := &memTokens{}
		require.NoError(t, tokens.Save(api.tokens()))
		api.srv.Close()
		p := newTestProvider(t, api, tokens)

		s, err := p.CurrentSession(ctx)
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, "u1", s.IdentityID)
	})
}

func TestClient_RefreshesExpiredToken(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI(t)
	tokens := &memTokens{}
	require.NoError(t, tokens.Save(api.tokens()))
	api.expireAccess()

	p := newTestProvider(t, api, tokens)
	rec := &recorder{}
	listen(p, rec.handle)

	s, err := p.CurrentSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)

	stored, _ := tokens.Load()
	assert.Equal(t, "access-1", stored.AccessToken)
	assert.Equal(t, "refresh-1", stored.RefreshToken)
	assert.Equal(t, 1, api.refreshCalls)
	assert.Equal(t, []session.EventKind{session.EventTokenRefreshed}, rec.kinds())
}

func TestAuthProvider_EventStream(t *testing.T) {
	ctx := context.Background()

	t.Run("Server events are forwarded until sign-out", func(t *testing.T) {
		api := newFakeAPI(t)
		tokens := &memTokens{}
		require.NoError(t, tokens.Save(api.tokens()))
		p := newTestProvider(t, api, tokens)

		rec := &recorder{}
		_, err := p.Subscribe(ctx, rec.handle)
		require.NoError(t, err)
		require.Eventually(t, func() bool { return api.streamCount() == 1 }, time.Second, 10*time.Millisecond)

		api.events <- events.SessionEvent{Kind: events.UserUpdated, UserID: "someone-else"}
		api.events <- events.SessionEvent{Kind: events.UserUpdated, UserID: "u1", Email: "kim@acme.test", EmailVerified: true}
		api.events <- events.SessionEvent{Kind: events.SignedOut, UserID: "u1"}

		require.Eventually(t, func() bool { return len(rec.kinds()) == 3 }, time.Second, 10*time.Millisecond)
		assert.Equal(t, []session.EventKind{
			session.EventInitialSession,
			session.EventUserUpdated,
			session.EventSignedOut,
		}, rec.kinds())
		assert.Nil(t, rec.last().Session)

		stored, _ := tokens.Load()
		assert.Nil(t, stored)
	})

	t.Run("Rejected dial refreshes and reconnects", func(t *testing.T) {
		api := newFakeAPI(t)
		tokens := &memTokens{}
		require.NoError(t, tokens.Save(api.tokens()))
		api.expireAccess()
		p := newTestProvider(t, api, tokens)

		rec := &recorder{}
		_, err := p.Subscribe(ctx, rec.handle)
		require.NoError(t, err)

		require.Eventually(t, func() bool { return api.streamCount() == 1 }, time.Second, 10*time.Millisecond)
		assert.Contains(t, rec.kinds(), session.EventTokenRefreshed)
	})

	t.Run("Failed refresh ends the session", func(t *testing.T) {
		api := newFakeAPI(t)
		tokens := &memTokens{}
		stale := api.tokens()
		stale.AccessToken = "forged"
		stale.RefreshToken = "forged"
		require.NoError(t, tokens.Save(stale))
		p := newTestProvider(t, api, tokens)

		rec := &recorder{}
		_, err := p.Subscribe(ctx, rec.handle)
		require.NoError(t, err)

		require.Eventually(t, func() bool { return rec.last().Kind == session.EventSignedOut }, time.Second, 10*time.Millisecond)
		stored, _ := tokens.Load()
		assert.Nil(t, stored)
		assert.Zero(t, api.streamCount())
	})

	t.Run("Closing the last subscription stops the stream", func(t *testing.T) {
		api := newFakeAPI(t)
		tokens := &memTokens{}
		require.NoError(t, tokens.Save(api.tokens()))
		p := newTestProvider(t, api, tokens)

		sub, err := p.Subscribe(ctx, func(session.Event) {})
		require.NoError(t, err)
		require.Eventually(t, func() bool { return api.streamCount() == 1 }, time.Second, 10*time.Millisecond)

		require.NoError(t, sub.Close())
		p.streamMu.Lock()
		running := p.streamCancel != nil
		p.streamMu.Unlock()
		assert.False(t, running)
	})
}
