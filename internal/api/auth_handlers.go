package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"magazyn-plikow/internal/auth"
	"magazyn-plikow/internal/database"
)

type RegisterRequest struct {
	Username string `json:"username" example:"alice"`
	Password string `json:"password,omitempty" example:"password123"`
}

type AuthUser struct {
	ID       int64  `json:"id" example:"42"`
	Username string `json:"username" example:"alice"`
}

type AuthResponse struct {
	Success bool     `json:"success" example:"true"`
	User    AuthUser `json:"user"`
	Token   string   `json:"token" example:"V1StGXR8_Z5jdHi6B-myT78qAbcDefGhIjKlMnOpQrs"`
}

func (s *Server) newSession(r *http.Request, userID int64) (string, error) {
	token, err := auth.NewSessionToken()
	if err != nil {
		return "", err
	}

	params := database.CreateSessionParams{
		ID:           uuid.New(),
		UserID:       userID,
		SessionToken: token,
		UserAgent:    r.UserAgent(),
		ClientIP:     r.RemoteAddr,
		ExpiresAt:    time.Now().Add(auth.SessionDuration),
	}
	if err := s.store.CreateSession(r.Context(), params); err != nil {
		return "", err
	}

	return token, nil
}

// @Summary      Register a new account
// @Description  Creates a user (password optional) and returns an initial session token. The reserved admin name is rejected.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        registerRequest  body      RegisterRequest  true  "Credentials"
// @Success      200              {object}  AuthResponse
// @Failure      400              {object}  FailureResponse
// @Failure      409              {object}  FailureResponse
// @Router       /auth [post]
func (s *Server) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		respondError(w, http.StatusBadRequest, "Username is required")
		return
	}
	if auth.IsReservedUsername(username) {
		respondError(w, http.StatusBadRequest, "Username is reserved")
		return
	}

	var passwordHash *string
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			log.Printf("ERROR: password hashing failed: %v", err)
			respondError(w, http.StatusInternalServerError, "Registration failed")
			return
		}
		passwordHash = &hash
	}

	user, err := s.store.CreateUser(r.Context(), database.CreateUserParams{
		Username:     username,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if errors.Is(err, database.ErrUsernameTaken) {
			respondError(w, http.StatusConflict, "Username already taken")
			return
		}
		log.Printf("ERROR: user creation failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	token, err := s.newSession(r, user.ID)
	if err != nil {
		log.Printf("ERROR: failed to create session for user %d: %v", user.ID, err)
		respondError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	respondJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		User:    AuthUser{ID: user.ID, Username: user.Username},
		Token:   token,
	})
}

type LoginRequest struct {
	Username string `json:"username" example:"alice"`
	Password string `json:"password,omitempty" example:"password123"`
}

// @Summary      Log in
// @Description  Authenticates a user and issues a new session token. Accounts without a password log in with the username alone. Sessions accumulate; earlier tokens stay valid.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        loginRequest  body      LoginRequest  true  "Credentials"
// @Success      200           {object}  AuthResponse
// @Failure      400           {object}  FailureResponse
// @Failure      401           {object}  FailureResponse
// @Failure      404           {object}  FailureResponse
// @Router       /auth [post]
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		respondError(w, http.StatusBadRequest, "Username is required")
		return
	}

	user, err := s.store.GetUserByUsername(r.Context(), username)
	if err != nil {
		log.Printf("ERROR: user lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	if user.HasPassword() {
		if req.Password == "" {
			respondError(w, http.StatusBadRequest, "Password required")
			return
		}
		if !auth.CheckPasswordHash(req.Password, *user.PasswordHash) {
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
	}

	token, err := s.newSession(r, user.ID)
	if err != nil {
		log.Printf("ERROR: failed to create session for user %d: %v", user.ID, err)
		respondError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	respondJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		User:    AuthUser{ID: user.ID, Username: user.Username},
		Token:   token,
	})
}

// @Summary      Log out
// @Description  Deletes the session matching the bearer token. Idempotent; an unknown token is not an error.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  MessageResponse
// @Router       /auth [post]
func (s *Server) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		if err := s.store.DeleteSessionByToken(r.Context(), token); err != nil {
			log.Printf("ERROR: session delete failed: %v", err)
		}
	}

	respondJSON(w, http.StatusOK, MessageResponse{Success: true})
}

type VerifiedUser struct {
	ID          int64  `json:"id" example:"42"`
	Username    string `json:"username" example:"alice"`
	StorageUsed int64  `json:"storage_used" example:"1048576"`
}

type VerifyResponse struct {
	Success bool         `json:"success" example:"true"`
	User    VerifiedUser `json:"user"`
}

// @Summary      Verify a session token
// @Description  Resolves the bearer token to the owning user and their storage usage.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  VerifyResponse
// @Failure      401  {object}  FailureResponse
// @Router       /auth [get]
func (s *Server) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		respondError(w, http.StatusUnauthorized, "No token provided")
		return
	}

	user, err := s.store.GetUserBySessionToken(r.Context(), token)
	if err != nil {
		log.Printf("ERROR: session lookup failed: %v", err)
		respondError(w, http.StatusInternalServerError, "Session verification failed")
		return
	}
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	respondJSON(w, http.StatusOK, VerifyResponse{
		Success: true,
		User: VerifiedUser{
			ID:          user.ID,
			Username:    user.Username,
			StorageUsed: user.StorageUsedBytes,
		},
	})
}
