// Package auth implements account credentials and tokens: bcrypt password
// hashing, HS256 access tokens, and the Google OAuth login flow.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Config holds the secrets and endpoints the auth service needs. Google
// fields may be empty, which disables the OAuth login routes.
type Config struct {
	JWTSecret          string
	TokenExpiry        time.Duration
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	FrontendURL        string
}

// Service issues and verifies credentials.
type Service struct {
	secret      []byte
	tokenExpiry time.Duration
	frontendURL string
	oauth       *oauth2.Config
}

// NewService builds a Service from config. TokenExpiry defaults to one hour.
func NewService(cfg Config) *Service {
	expiry := cfg.TokenExpiry
	if expiry == 0 {
		expiry = time.Hour
	}

	s := &Service{
		secret:      []byte(cfg.JWTSecret),
		tokenExpiry: expiry,
		frontendURL: cfg.FrontendURL,
	}
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		s.oauth = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}
	return s
}

// FrontendURL returns the configured frontend base URL for OAuth redirects.
func (s *Service) FrontendURL() string { return s.frontendURL }

// CreateAccessToken issues a signed token carrying the subject email and
// role claims.
func (s *Service) CreateAccessToken(email, role string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  email,
		"role": role,
		"exp":  jwt.NewNumericDate(time.Now().Add(s.tokenExpiry)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies a token and returns its email and role claims.
func (s *Service) ParseAccessToken(tokenString string) (email, role string, err error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", fmt.Errorf("invalid token claims")
	}
	email, _ = claims["sub"].(string)
	role, _ = claims["role"].(string)
	return email, role, nil
}

// HashPassword returns the bcrypt hash of a password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GoogleEnabled reports whether the Google OAuth flow is configured.
func (s *Service) GoogleEnabled() bool { return s.oauth != nil }

// GoogleAuthURL returns the Google consent page URL for the given state.
func (s *Service) GoogleAuthURL(state string) string {
	return s.oauth.AuthCodeURL(state)
}

// GoogleUser is the subset of the userinfo response the service consumes.
type GoogleUser struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// ExchangeGoogleCode trades an authorization code for the user's profile.
func (s *Service) ExchangeGoogleCode(ctx context.Context, code string) (*GoogleUser, error) {
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	resp, err := s.oauth.Client(ctx, token).Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("userinfo request failed: %s: %s", resp.Status, body)
	}

	var user GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	if user.Email == "" {
		return nil, fmt.Errorf("userinfo response missing email")
	}
	return &user, nil
}
