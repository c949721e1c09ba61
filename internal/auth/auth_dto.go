package auth

import "time"

type SignUpRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	Name      string `json:"name" binding:"required"`
	CompanyID string `json:"company_id" binding:"required,uuid"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type ConfirmEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

// SessionResponse carries tokens only when the session is usable.
type SessionResponse struct {
	UserID        string     `json:"user_id"`
	Email         string     `json:"email"`
	EmailVerified bool       `json:"email_verified"`
	CompanyID     string     `json:"company_id"`
	AccessToken   string     `json:"access_token,omitempty"`
	RefreshToken  string     `json:"refresh_token,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}
