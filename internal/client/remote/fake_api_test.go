package remote

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	attendanceapi "the-work-standard/internal/attendance"
	attendanceerrors "the-work-standard/internal/attendance/errors"
	"the-work-standard/internal/auth"
	autherrors "the-work-standard/internal/auth/errors"
	"the-work-standard/internal/client/session"
	"the-work-standard/internal/company"
	"the-work-standard/internal/events"
	"the-work-standard/internal/profile"
	profileerrors "the-work-standard/internal/profile/errors"
	"the-work-standard/internal/shared/apperror"
	"the-work-standard/internal/shared/response"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// fakeAPI serves the subset of the API the client uses, for user u1 of
// company c1.
type fakeAPI struct {
	srv *httptest.Server

	mu           sync.Mutex
	issued       int
	access       string
	refresh      string
	expired      map[string]bool
	refreshCalls int
	signOutFails bool
	streams      int
	timezones    []string
	idemKeys     []string
	profiles     []profile.ProfileResponse
	today        *attendanceapi.RecordResponse

	events chan events.SessionEvent
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	a := &fakeAPI{
		access:  "access-0",
		refresh: "refresh-0",
		expired: map[string]bool{},
		events:  make(chan events.SessionEvent, 16),
	}

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.POST("/auth/sign-in", a.signIn)
	v1.POST("/auth/sign-up", a.signUp)
	v1.POST("/auth/refresh", a.refreshTokens)
	v1.GET("/companies/verify", a.verifyCode)

	authed := v1.Group("", a.authenticate)
	authed.GET("/auth/session", a.session)
	authed.POST("/auth/sign-out", a.signOut)
	authed.GET("/auth/events", a.stream)
	authed.GET("/profiles", a.listProfiles)
	authed.GET("/profiles/:id", a.getProfile)
	authed.PATCH("/profiles/:id/role", a.updateRole)
	authed.GET("/attendance", a.report)
	authed.GET("/attendance/today", a.getToday)
	authed.POST("/attendance/check-in", a.checkIn)
	authed.PUT("/attendance/notes", a.setNotes)

	a.srv = httptest.NewServer(r)
	t.Cleanup(a.srv.Close)
	return a
}

func (a *fakeAPI) baseURL() string {
	return a.srv.URL + "/api/v1"
}

// tokens returns a stored session holding the currently valid tokens.
func (a *fakeAPI) tokens() Tokens {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Tokens{
		UserID:        "u1",
		Email:         "kim@acme.test",
		EmailVerified: true,
		CompanyID:     "c1",
		AccessToken:   a.access,
		RefreshToken:  a.refresh,
	}
}

// expireAccess makes the current access token report TOKEN_EXPIRED.
func (a *fakeAPI) expireAccess() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.expired[a.access] = true
	a.access = "unused"
}

func (a *fakeAPI) streamCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.streams
}

func (a *fakeAPI) issueLocked() auth.SessionResponse {
	a.expired[a.access] = true
	a.issued++
	a.access = fmt.Sprintf("access-%d", a.issued)
	a.refresh = fmt.Sprintf("refresh-%d", a.issued)
	expires := time.Now().Add(15 * time.Minute).UTC()
	return auth.SessionResponse{
		UserID:        "u1",
		Email:         "kim@acme.test",
		EmailVerified: true,
		CompanyID:     "c1",
		AccessToken:   a.access,
		RefreshToken:  a.refresh,
		ExpiresAt:     &expires,
	}
}

func (a *fakeAPI) authenticate(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")

	a.mu.Lock()
	a.timezones = append(a.timezones, c.GetHeader(attendanceapi.TimezoneHeader))
	valid, expired := token == a.access, a.expired[token]
	a.mu.Unlock()

	switch {
	case valid:
		c.Set("user_id", "u1")
		c.Next()
	case expired:
		response.FromError(c, autherrors.ErrTokenExpired)
		c.Abort()
	default:
		response.FromError(c, autherrors.ErrInvalidToken)
		c.Abort()
	}
}

func (a *fakeAPI) signIn(c *gin.Context) {
	var req auth.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Password != "secret" {
		response.FromError(c, autherrors.ErrInvalidCredentials)
		return
	}

	a.mu.Lock()
	resp := a.issueLocked()
	a.mu.Unlock()
	response.Success(c, http.StatusOK, resp, nil)
}

func (a *fakeAPI) signUp(c *gin.Context) {
	var req auth.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, apperror.ErrInvalidInput)
		return
	}
	if req.Email == "kim@acme.test" {
		response.FromError(c, autherrors.ErrUserAlreadyRegistered)
		return
	}
	response.Success(c, http.StatusCreated, auth.SessionResponse{
		UserID:    "u2",
		Email:     req.Email,
		CompanyID: req.CompanyID,
	}, nil)
}

func (a *fakeAPI) refreshTokens(c *gin.Context) {
	var req auth.RefreshRequest
	_ = c.ShouldBindJSON(&req)

	a.mu.Lock()
	defer a.mu.Unlock()
	if req.RefreshToken != a.refresh {
		response.FromError(c, autherrors.ErrInvalidRefreshToken)
		return
	}
	a.refreshCalls++
	response.Success(c, http.StatusOK, a.issueLocked(), nil)
}

func (a *fakeAPI) session(c *gin.Context) {
	response.Success(c, http.StatusOK, auth.SessionResponse{
		UserID:        "u1",
		Email:         "kim@acme.test",
		EmailVerified: true,
		CompanyID:     "c1",
	}, nil)
}

func (a *fakeAPI) signOut(c *gin.Context) {
	a.mu.Lock()
	fails := a.signOutFails
	a.mu.Unlock()
	if fails {
		response.FromError(c, apperror.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"signed_out": true}, nil)
}

func (a *fakeAPI) stream(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.CloseNow()

	a.mu.Lock()
	a.streams++
	a.mu.Unlock()

	ctx := conn.CloseRead(c.Request.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-a.events:
			if err := wsjson.Write(ctx, conn, ev); err != nil {
				return
			}
		}
	}
}

func (a *fakeAPI) listProfiles(c *gin.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	response.Success(c, http.StatusOK, a.profiles, nil)
}

func (a *fakeAPI) getProfile(c *gin.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range a.profiles {
		if p.ID == c.Param("id") {
			response.Success(c, http.StatusOK, p, nil)
			return
		}
	}
	response.FromError(c, profileerrors.ErrProfileNotFound)
}

func (a *fakeAPI) updateRole(c *gin.Context) {
	var req profile.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, profileerrors.ErrInvalidRole)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for i, p := range a.profiles {
		if p.ID == c.Param("id") {
			a.profiles[i].Role = req.Role
			response.Success(c, http.StatusOK, a.profiles[i], nil)
			return
		}
	}
	response.FromError(c, profileerrors.ErrProfileNotFound)
}

func (a *fakeAPI) getToday(c *gin.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.today == nil {
		response.Success(c, http.StatusOK, nil, nil)
		return
	}
	response.Success(c, http.StatusOK, a.today, nil)
}

func (a *fakeAPI) report(c *gin.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rows := []attendanceapi.ReportResponse{}
	if a.today != nil && (c.Query("date") == "" || c.Query("date") == a.today.Date) {
		rows = append(rows, attendanceapi.ReportResponse{RecordResponse: *a.today, UserName: "Kim", UserEmail: "kim@acme.test"})
	}
	response.Success(c, http.StatusOK, rows, nil)
}

func (a *fakeAPI) checkIn(c *gin.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.idemKeys = append(a.idemKeys, c.GetHeader("Idempotency-Key"))
	if a.today != nil {
		response.FromError(c, attendanceerrors.ErrAlreadyCheckedIn)
		return
	}
	now := time.Now().UTC()
	a.today = &attendanceapi.RecordResponse{
		ID:          "r1",
		UserID:      "u1",
		Date:        now.Format(time.DateOnly),
		CheckInTime: &now,
		Status:      "present",
	}
	response.Success(c, http.StatusCreated, a.today, nil)
}

func (a *fakeAPI) setNotes(c *gin.Context) {
	var req attendanceapi.NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, apperror.ErrInvalidInput)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.today == nil {
		response.FromError(c, attendanceerrors.ErrNoRecordForNotes)
		return
	}
	a.today.Notes = *req.Notes
	response.Success(c, http.StatusOK, a.today, nil)
}

func (a *fakeAPI) verifyCode(c *gin.Context) {
	if c.Query("code") != "ACME" {
		response.Success(c, http.StatusOK, company.VerifyCodeResponse{IsValid: false}, nil)
		return
	}
	response.Success(c, http.StatusOK, company.VerifyCodeResponse{
		IsValid:     true,
		CompanyID:   "c1",
		CompanyName: "Acme",
	}, nil)
}

type memTokens struct {
	mu sync.Mutex
	t  *Tokens
}

func (m *memTokens) Load() (*Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.t == nil {
		return nil, nil
	}
	c := *m.t
	return &c, nil
}

func (m *memTokens) Save(t Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t = &t
	return nil
}

func (m *memTokens) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t = nil
	return nil
}

func newTestClient(baseURL string, tokens TokenStore) *Client {
	return NewClient(Config{
		BaseURL:  baseURL,
		Timezone: "Asia/Seoul",
		RetryMax: 0,
		Tokens:   tokens,
		Logger:   zap.NewNop(),
	})
}

type recorder struct {
	mu     sync.Mutex
	events []session.Event
}

func (r *recorder) handle(ev session.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []session.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]session.EventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

func (r *recorder) last() session.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return session.Event{}
	}
	return r.events[len(r.events)-1]
}

// listen registers a handler without starting the event stream.
func listen(p *AuthProvider, fn session.EventHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[p.nextID] = fn
	p.nextID++
}
