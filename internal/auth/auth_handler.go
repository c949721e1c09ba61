package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"the-work-standard/internal/shared/apperror"
	"the-work-standard/internal/shared/response"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 5 * time.Second
)

type Handler struct {
	service Service
	logger  *zap.Logger
	secure  bool
}

func NewHandler(s Service, secureCookies bool) *Handler {
	return &Handler{service: s, logger: zap.L().Named("auth.handler"), secure: secureCookies}
}

func (h *Handler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, apperror.MapValidationError(err))
		return
	}

	session, err := h.service.SignIn(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	h.setTokenCookies(c, session)
	response.Success(c, http.StatusOK, session, nil)
}

func (h *Handler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, apperror.MapValidationError(err))
		return
	}

	session, err := h.service.SignUp(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, session, nil)
}

func (h *Handler) SignOut(c *gin.Context) {
	if err := h.service.SignOut(c.Request.Context(), c.GetString("user_id")); err != nil {
		h.logger.Warn("sign out broadcast failed", zap.Error(err))
		response.FromError(c, err)
		return
	}

	h.clearTokenCookies(c)
	response.Success(c, http.StatusOK, gin.H{"signed_out": true}, nil)
}

func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		cookie, cookieErr := c.Cookie("refresh_token")
		if cookieErr != nil || cookie == "" {
			response.FromError(c, apperror.RequiredField("refresh_token"))
			return
		}
		req.RefreshToken = cookie
	}

	session, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.FromError(c, err)
		return
	}

	h.setTokenCookies(c, session)
	response.Success(c, http.StatusOK, session, nil)
}

func (h *Handler) Session(c *gin.Context) {
	session, err := h.service.GetSession(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, session, nil)
}

func (h *Handler) ConfirmEmail(c *gin.Context) {
	var req ConfirmEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, apperror.RequiredField("token"))
		return
	}

	session, err := h.service.ConfirmEmail(c.Request.Context(), req.Token)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, session, nil)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	if err := h.service.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Events streams the caller's session events over a websocket until either
// side closes.
func (h *Handler) Events(c *gin.Context) {
	userID := c.GetString("user_id")
	log := h.logger.With(zap.String("user_id", userID))

	stream, err := h.service.Subscribe(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	defer stream.Close()

	// the server's read/write timeouts would otherwise cut the stream
	rc := http.NewResponseController(c.Writer)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	// discards client frames and cancels ctx when the peer goes away
	ctx := conn.CloseRead(c.Request.Context())

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-stream.Events():
			if !ok {
				conn.Close(websocket.StatusGoingAway, "event stream closed")
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				log.Error("encode session event failed", zap.Error(err))
				continue
			}
			if err := writeWithTimeout(ctx, conn, payload); err != nil {
				log.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func writeWithTimeout(ctx context.Context, conn *websocket.Conn, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}

func (h *Handler) setTokenCookies(c *gin.Context, session SessionResponse) {
	if session.AccessToken == "" {
		return
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     "access_token",
		Value:    session.AccessToken,
		Path:     "/",
		MaxAge:   15 * 60,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     "refresh_token",
		Value:    session.RefreshToken,
		Path:     "/",
		MaxAge:   3600 * 24 * 7,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearTokenCookies(c *gin.Context) {
	for _, name := range []string{"access_token", "refresh_token"} {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
