package chatserver

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/anatolykoptev/go_alfred/internal/toolutil"
)

const (
	adminRole   = "admin"
	tokenTTL    = 24 * time.Hour
	tokenIssuer = "go_alfred"
	minPassword = 8
	maxPassword = 128
)

var (
	ErrAdminDisabled   = errors.New("admin API disabled")
	ErrInvalidPassword = errors.New("invalid password")
)

type adminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Auth issues and checks admin bearer tokens (HS256).
type Auth struct {
	password []byte
	secret   []byte
	now      func() time.Time
}

// NewAuth creates an authenticator. An empty password disables the admin
// API; an empty secret gets a random per-process key, so tokens do not
// survive restarts.
func NewAuth(password, secret string) *Auth {
	a := &Auth{password: []byte(password), secret: []byte(secret), now: time.Now}
	if len(a.secret) == 0 {
		a.secret = make([]byte, 32)
		_, _ = rand.Read(a.secret)
		if password != "" {
			slog.Warn("ADMIN_JWT_SECRET not set, using a random key; admin tokens reset on restart")
		}
	}
	return a
}

// Enabled reports whether an admin password is configured.
func (a *Auth) Enabled() bool { return len(a.password) > 0 }

// Login checks password and returns a signed token.
func (a *Auth) Login(password string) (string, error) {
	if !a.Enabled() {
		return "", ErrAdminDisabled
	}
	if subtle.ConstantTimeCompare([]byte(password), a.password) != 1 {
		return "", ErrInvalidPassword
	}
	now := a.now()
	claims := adminClaims{
		Role: adminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   adminRole,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Verify parses token and checks the admin role.
func (a *Auth) Verify(token string) error {
	var claims adminClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return fmt.Errorf("verify token: %w", err)
	}
	if claims.Role != adminRole {
		return errors.New("verify token: not an admin token")
	}
	return nil
}

// Require wraps h with bearer-token admin authentication.
func (a *Auth) Require(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			toolutil.WriteError(w, http.StatusServiceUnavailable, "Admin API disabled")
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			toolutil.WriteError(w, http.StatusUnauthorized, "Admin authentication required")
			return
		}
		if err := a.Verify(token); err != nil {
			slog.Debug("admin token rejected", slog.Any("error", err))
			toolutil.WriteError(w, http.StatusUnauthorized, "Invalid admin credentials")
			return
		}
		h.ServeHTTP(w, r)
	})
}
