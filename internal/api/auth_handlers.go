package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/synapse-data/product.intel/internal/auth"
	"github.com/synapse-data/product.intel/internal/db"
)

// signupRequest is the body of POST /api/auth/signup.
type signupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// tokenResponse is the success shape for signup and login.
type tokenResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	User        *db.User `json:"user"`
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to process password")
		return
	}

	user := &db.User{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  hash,
		Role:      "user",
	}
	if err := s.db.CreateUser(user); err != nil {
		if errors.Is(err, db.ErrUserExists) {
			s.writeJSONError(w, http.StatusConflict, "Email already registered")
			return
		}
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to create user: %v", err))
		return
	}

	s.issueToken(w, user)
}

// loginRequest is the body of POST /api/auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	user, err := s.db.GetUserByEmail(req.Email)
	if err == sql.ErrNoRows {
		s.writeJSONError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to look up user: %v", err))
		return
	}

	// OAuth-created users have no password hash and cannot password-login.
	if user.Password == "" || !auth.VerifyPassword(req.Password, user.Password) {
		s.writeJSONError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	s.issueToken(w, user)
}

func (s *Server) issueToken(w http.ResponseWriter, user *db.User) {
	token, err := s.auth.CreateAccessToken(user.Email, user.Role)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	s.writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	})
}

func (s *Server) googleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !s.auth.GoogleEnabled() {
		s.writeJSONError(w, http.StatusNotImplemented, "Google login is not configured")
		return
	}

	http.Redirect(w, r, s.auth.GoogleAuthURL("state"), http.StatusTemporaryRedirect)
}

// googleCallback completes the OAuth flow: exchanges the code, upserts the
// account, and redirects to the frontend with the access token attached.
func (s *Server) googleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !s.auth.GoogleEnabled() {
		s.writeJSONError(w, http.StatusNotImplemented, "Google login is not configured")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing authorization code")
		return
	}

	info, err := s.auth.ExchangeGoogleCode(r.Context(), code)
	if err != nil {
		s.writeJSONError(w, http.StatusUnauthorized, fmt.Sprintf("Google login failed: %v", err))
		return
	}

	email := strings.ToLower(info.Email)
	user, err := s.db.GetUserByEmail(email)
	if err == sql.ErrNoRows {
		first, last := splitName(info.Name)
		user = &db.User{
			Email:     email,
			FirstName: first,
			LastName:  last,
			Avatar:    info.Picture,
			Role:      "user",
		}
		if err := s.db.CreateUser(user); err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to create user: %v", err))
			return
		}
	} else if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to look up user: %v", err))
		return
	}

	token, err := s.auth.CreateAccessToken(user.Email, user.Role)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	redirect := s.auth.FrontendURL()
	if redirect == "" {
		s.writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer", User: user})
		return
	}
	http.Redirect(w, r, redirect+"?token="+url.QueryEscape(token), http.StatusTemporaryRedirect)
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// requireAuth verifies the bearer token on protected routes and returns the
// authenticated email, writing the error response itself on failure.
func (s *Server) requireAuth(w http.ResponseWriter, r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		s.writeJSONError(w, http.StatusUnauthorized, "Missing bearer token")
		return "", false
	}
	email, _, err := s.auth.ParseAccessToken(token)
	if err != nil {
		s.writeJSONError(w, http.StatusUnauthorized, "Invalid or expired token")
		return "", false
	}
	return email, true
}
