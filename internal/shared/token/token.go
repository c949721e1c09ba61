package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
	TypeConfirm = "confirm"
)

var (
	ErrInvalid = errors.New("token is invalid")
	ErrExpired = errors.New("token is expired")
	ErrType    = errors.New("token has the wrong type")
)

type Claims struct {
	UserID    string
	CompanyID string
	Role      string
	Type      string
	ExpiresAt time.Time
}

// Issuer signs and verifies HS256 tokens for every token type the API hands out.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	confirmTTL time.Duration
	now        func() time.Time
}

func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		confirmTTL: 24 * time.Hour,
		now:        time.Now,
	}
}

// WithClock returns a copy of the issuer reading time from now.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	cp := *i
	cp.now = now
	return &cp
}

func (i *Issuer) ttl(typ string) time.Duration {
	switch typ {
	case TypeRefresh:
		return i.refreshTTL
	case TypeConfirm:
		return i.confirmTTL
	default:
		return i.accessTTL
	}
}

func (i *Issuer) Issue(userID, companyID, role, typ string) (string, time.Time, error) {
	expiresAt := i.now().Add(i.ttl(typ))
	claims := jwt.MapClaims{
		"user_id":    userID,
		"company_id": companyID,
		"role":       role,
		"typ":        typ,
		"exp":        expiresAt.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, expiresAt, nil
}

// Parse verifies tokenString and checks that it carries the expected type.
func (i *Issuer) Parse(tokenString, typ string) (Claims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpired
		}
		return Claims{}, ErrInvalid
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrInvalid
	}

	claims := Claims{
		UserID:    stringClaim(mc, "user_id"),
		CompanyID: stringClaim(mc, "company_id"),
		Role:      stringClaim(mc, "role"),
		Type:      stringClaim(mc, "typ"),
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}

	if claims.UserID == "" {
		return Claims{}, ErrInvalid
	}
	if claims.Type != typ {
		return Claims{}, ErrType
	}
	return claims, nil
}

func stringClaim(mc jwt.MapClaims, key string) string {
	v, _ := mc[key].(string)
	return v
}
