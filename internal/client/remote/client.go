// Package remote talks to the work-standard API on behalf of the client
// core. Every call goes through one retrying HTTP client and decodes the
// API envelope into apperror values.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	attendanceapi "the-work-standard/internal/attendance"
	"the-work-standard/internal/auth"
	"the-work-standard/internal/shared/apperror"
	"the-work-standard/internal/shared/response"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const maxResponseBytes = 1 << 20

type Config struct {
	BaseURL  string
	Timezone string
	RetryMax int
	Tokens   TokenStore
	Logger   *zap.Logger
	// HTTPClient replaces the transport, mainly for tests.
	HTTPClient *http.Client
}

type Client struct {
	baseURL  string
	timezone string
	http     *retryablehttp.Client
	tokens   TokenStore
	logger   *zap.Logger

	// concurrent refreshes share one call; refresh tokens rotate
	refreshes singleflight.Group
	// called after a successful token refresh
	onRefresh func(Tokens)
}

func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.L()
	}
	logger = logger.Named("remote")

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = leveledLogger{logger.Sugar()}
	// hand the last response back so its envelope can be decoded
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if cfg.HTTPClient != nil {
		rc.HTTPClient = cfg.HTTPClient
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		timezone: cfg.Timezone,
		http:     rc,
		tokens:   cfg.Tokens,
		logger:   logger,
	}
}

type requestOptions struct {
	anonymous bool
	noRefresh bool
	header    http.Header
}

type requestOption func(*requestOptions)

func anonymous() requestOption {
	return func(o *requestOptions) { o.anonymous = true }
}

func withoutRefresh() requestOption {
	return func(o *requestOptions) { o.noRefresh = true }
}

func withHeader(key, value string) requestOption {
	return func(o *requestOptions) {
		if o.header == nil {
			o.header = http.Header{}
		}
		o.header.Set(key, value)
	}
}

// do sends the request and decodes data into out. An expired access token is
// refreshed once and the request replayed.
func (c *Client) do(ctx context.Context, method, path string, body, out any, opts ...requestOption) error {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}

	bearer, err := c.bearer(o)
	if err != nil {
		return err
	}
	err = c.send(ctx, method, path, body, out, o, bearer)
	if o.anonymous || o.noRefresh || !isCode(err, apperror.CodeTokenExpired) {
		return err
	}
	if rerr := c.refresh(ctx, bearer); rerr != nil {
		c.logger.Info("token refresh failed", zap.Error(rerr))
		return err
	}

	if bearer, err = c.bearer(o); err != nil {
		return err
	}
	return c.send(ctx, method, path, body, out, o, bearer)
}

func (c *Client) bearer(o requestOptions) (string, error) {
	if o.anonymous {
		return "", nil
	}
	tokens, err := c.tokens.Load()
	if err != nil || tokens == nil {
		return "", err
	}
	return tokens.AccessToken, nil
}

func (c *Client) send(ctx context.Context, method, path string, body, out any, o requestOptions, bearer string) error {
	var raw any
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		raw = payload
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, raw)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.timezone != "" {
		req.Header.Set(attendanceapi.TimezoneHeader, c.timezone)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for k, v := range o.header {
		req.Header[k] = v
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	return decode(resp, out)
}

func decode(resp *http.Response, out any) error {
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env response.Envelope[json.RawMessage]
	if err := json.Unmarshal(data, &env); err != nil {
		return apperror.Wrap(err, apperror.CodeInternalError, http.StatusText(resp.StatusCode), resp.StatusCode)
	}
	if !env.Ok || resp.StatusCode >= http.StatusBadRequest {
		if env.Error != nil {
			return apperror.New(env.Error.Code, env.Error.Message, resp.StatusCode)
		}
		return apperror.New(apperror.CodeInternalError, http.StatusText(resp.StatusCode), resp.StatusCode)
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

// refresh replaces the rejected access token stale. Nothing is sent when
// another caller already replaced it.
func (c *Client) refresh(ctx context.Context, stale string) error {
	_, err, _ := c.refreshes.Do("refresh", func() (any, error) {
		return nil, c.refreshTokens(ctx, stale)
	})
	return err
}

func (c *Client) refreshTokens(ctx context.Context, stale string) error {
	current, err := c.tokens.Load()
	if err != nil {
		return err
	}
	if current == nil || current.RefreshToken == "" {
		return errors.New("no refresh token")
	}
	if current.AccessToken != stale {
		return nil
	}

	var out auth.SessionResponse
	err = c.send(ctx, http.MethodPost, "/auth/refresh",
		auth.RefreshRequest{RefreshToken: current.RefreshToken}, &out,
		requestOptions{anonymous: true}, "",
	)
	if err != nil {
		return err
	}

	next := tokensFrom(out)
	if err := c.tokens.Save(next); err != nil {
		return err
	}
	if c.onRefresh != nil {
		c.onRefresh(next)
	}
	return nil
}

// currentUser is the signed-in user id, or "" when there is none.
func (c *Client) currentUser() string {
	t, err := c.tokens.Load()
	if err != nil || t == nil {
		return ""
	}
	return t.UserID
}

// requireUser rejects calls made for someone other than the token owner.
func (c *Client) requireUser(userID string) error {
	current := c.currentUser()
	if current == "" {
		return apperror.New(apperror.CodeUnauthorized, "not signed in", http.StatusUnauthorized)
	}
	if current != userID {
		return apperror.New(apperror.CodeForbidden, "user does not match the session", http.StatusForbidden)
	}
	return nil
}

func (c *Client) wsURL(path string) (string, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String(), nil
}

func tokensFrom(s auth.SessionResponse) Tokens {
	t := Tokens{
		UserID:        s.UserID,
		Email:         s.Email,
		EmailVerified: s.EmailVerified,
		CompanyID:     s.CompanyID,
		AccessToken:   s.AccessToken,
		RefreshToken:  s.RefreshToken,
	}
	if s.ExpiresAt != nil {
		t.ExpiresAt = *s.ExpiresAt
	}
	return t
}

func isCode(err error, code string) bool {
	var appErr *apperror.AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func isStatus(err error, status int) bool {
	var appErr *apperror.AppError
	return errors.As(err, &appErr) && appErr.HTTPStatus == status
}

// leveledLogger adapts zap to retryablehttp.LeveledLogger.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
