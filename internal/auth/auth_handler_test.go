package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"the-work-standard/internal/auth"
	autherrors "the-work-standard/internal/auth/errors"
	authMock "the-work-standard/internal/auth/mock"
	"the-work-standard/internal/events"
	"the-work-standard/internal/shared/response"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func withUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("company_id", "c-1")
		c.Next()
	}
}

func TestHandler_SignIn(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := authMock.NewMockService(ctrl)
	handler := auth.NewHandler(mockService, false)

	r := gin.New()
	r.POST("/auth/sign-in", handler.SignIn)

	post := func(body any) *httptest.ResponseRecorder {
		jsonReq, _ := json.Marshal(body)
		req, _ := http.NewRequest(http.MethodPost, "/auth/sign-in", bytes.NewBuffer(jsonReq))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("Success Sets Cookies", func(t *testing.T) {
		mockService.EXPECT().
			SignIn(gomock.Any(), auth.SignInRequest{Email: "kim@example.com", Password: "password123"}).
			Return(auth.SessionResponse{UserID: "u-1", AccessToken: "a", RefreshToken: "r", EmailVerified: true}, nil)

		w := post(auth.SignInRequest{Email: "kim@example.com", Password: "password123"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, w.Result().Cookies(), 2)

		var res response.Envelope[auth.SessionResponse]
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.True(t, res.Ok)
		assert.Equal(t, "u-1", res.Data.UserID)
	})

	t.Run("Invalid Credentials Carry Their Code", func(t *testing.T) {
		mockService.EXPECT().SignIn(gomock.Any(), gomock.Any()).Return(auth.SessionResponse{}, autherrors.ErrInvalidCredentials)

		w := post(auth.SignInRequest{Email: "kim@example.com", Password: "nope"})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		var res response.ApiEnvelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, "INVALID_CREDENTIALS", res.Error.Code)
	})

	t.Run("Validation Error", func(t *testing.T) {
		w := post(map[string]string{"email": "not-an-email"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_SignUp(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := authMock.NewMockService(ctrl)
	handler := auth.NewHandler(mockService, false)

	r := gin.New()
	r.POST("/auth/sign-up", handler.SignUp)

	reqBody := auth.SignUpRequest{
		Email:     "kim@example.com",
		Password:  "password123",
		Name:      "김민준",
		CompanyID: "5f0c7c1e-3b1e-4a53-9d0b-0b3c2f1f4a10",
	}
	mockService.EXPECT().SignUp(gomock.Any(), reqBody).Return(auth.SessionResponse{UserID: "u-1"}, nil)

	jsonReq, _ := json.Marshal(reqBody)
	req, _ := http.NewRequest(http.MethodPost, "/auth/sign-up", bytes.NewBuffer(jsonReq))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestHandler_SignOut(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := authMock.NewMockService(ctrl)
	handler := auth.NewHandler(mockService, false)

	r := gin.New()
	r.POST("/auth/sign-out", withUser("u-1"), handler.SignOut)

	mockService.EXPECT().SignOut(gomock.Any(), "u-1").Return(nil)

	req, _ := http.NewRequest(http.MethodPost, "/auth/sign-out", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	for _, c := range w.Result().Cookies() {
		assert.Equal(t, -1, c.MaxAge, c.Name)
	}
}

func TestHandler_Refresh_FromCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := authMock.NewMockService(ctrl)
	handler := auth.NewHandler(mockService, false)

	r := gin.New()
	r.POST("/auth/refresh", handler.Refresh)

	mockService.EXPECT().Refresh(gomock.Any(), "cookie-token").Return(auth.SessionResponse{UserID: "u-1", AccessToken: "a"}, nil)

	req, _ := http.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "cookie-token"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

type chanStream struct {
	ch     chan events.SessionEvent
	closed chan struct{}
}

func (s *chanStream) Events() <-chan events.SessionEvent { return s.ch }
func (s *chanStream) Close() error {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
	return nil
}

func TestHandler_Events(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := authMock.NewMockService(ctrl)
	handler := auth.NewHandler(mockService, false)

	stream := &chanStream{ch: make(chan events.SessionEvent, 1), closed: make(chan struct{})}
	mockService.EXPECT().Subscribe(gomock.Any(), "u-1").Return(stream, nil)

	r := gin.New()
	r.GET("/auth/events", withUser("u-1"), handler.Events)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/auth/events", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	stream.ch <- events.SessionEvent{Kind: events.SignedOut, UserID: "u-1"}

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var got events.SessionEvent
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, events.SignedOut, got.Kind)

	conn.Close(websocket.StatusNormalClosure, "")

	select {
	case <-stream.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("stream was not closed after the client left")
	}
}
