package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterHandler(t *testing.T) {
	userID, token := registerTestUser(t, "rejestracja_user", "secret123")
	require.NotZero(t, userID)

	// Token z rejestracji od razu działa
	user, err := testServer.store.GetUserBySessionToken(context.Background(), token)
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, "rejestracja_user", user.Username)
}

func TestRegisterHandler_EmptyUsername(t *testing.T) {
	body, _ := json.Marshal(RegisterRequest{Username: "   "})
	rr := doRequest(t, "POST", "/auth?action=register", "", body)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "Username is required")
}

func TestRegisterHandler_ReservedUsername(t *testing.T) {
	// Zarezerwowana nazwa odpada niezależnie od wielkości liter
	for _, name := range []string{"csjjpfp", "CSJJPFP", "CsJjPfP"} {
		body, _ := json.Marshal(RegisterRequest{Username: name})
		rr := doRequest(t, "POST", "/auth?action=register", "", body)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		require.Contains(t, rr.Body.String(), "Username is reserved")
	}
}

func TestRegisterHandler_DuplicateUsername(t *testing.T) {
	registerTestUser(t, "duplikat_user", "")

	body, _ := json.Marshal(RegisterRequest{Username: "Duplikat_User"})
	rr := doRequest(t, "POST", "/auth?action=register", "", body)

	require.Equal(t, http.StatusConflict, rr.Code)
	require.Contains(t, rr.Body.String(), "Username already taken")
}

func TestLoginHandler(t *testing.T) {
	registerTestUser(t, "login_user", "haslo123")

	body, _ := json.Marshal(LoginRequest{Username: "login_user", Password: "haslo123"})
	rr := doRequest(t, "POST", "/auth?action=login", "", body)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.Token)
}

func TestLoginHandler_Passwordless(t *testing.T) {
	registerTestUser(t, "login_bez_hasla", "")

	// Konto bez hasła loguje się samą nazwą
	body, _ := json.Marshal(LoginRequest{Username: "login_bez_hasla"})
	rr := doRequest(t, "POST", "/auth?action=login", "", body)

	require.Equal(t, http.StatusOK, rr.Code)
}

func TestLoginHandler_WrongPassword(t *testing.T) {
	registerTestUser(t, "login_zle_haslo", "dobre_haslo")

	body, _ := json.Marshal(LoginRequest{Username: "login_zle_haslo", Password: "zle_haslo"})
	rr := doRequest(t, "POST", "/auth?action=login", "", body)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Contains(t, rr.Body.String(), "Invalid credentials")

	// Brak hasła na koncie, które go wymaga
	body, _ = json.Marshal(LoginRequest{Username: "login_zle_haslo"})
	rr = doRequest(t, "POST", "/auth?action=login", "", body)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "Password required")
}

func TestLoginHandler_UnknownUser(t *testing.T) {
	body, _ := json.Marshal(LoginRequest{Username: "nie_ma_takiego"})
	rr := doRequest(t, "POST", "/auth?action=login", "", body)

	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), "User not found")
}

func TestLoginHandler_SessionsAccumulate(t *testing.T) {
	userID, firstToken := registerTestUser(t, "login_wiele_sesji", "")

	body, _ := json.Marshal(LoginRequest{Username: "login_wiele_sesji"})
	rr := doRequest(t, "POST", "/auth?action=login", "", body)
	require.Equal(t, http.StatusOK, rr.Code)

	// Nowe logowanie nie unieważnia wcześniejszego tokena
	user, err := testServer.store.GetUserBySessionToken(context.Background(), firstToken)
	require.NoError(t, err)
	require.NotNil(t, user)

	sessions, err := testServer.store.ListSessionsForUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
}

func TestVerifyHandler(t *testing.T) {
	userID, token := registerTestUser(t, "verify_user", "")

	rr := doRequest(t, "GET", "/auth?action=verify", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp VerifyResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, userID, resp.User.ID)
	require.Equal(t, "verify_user", resp.User.Username)
	require.Zero(t, resp.User.StorageUsed)
}

func TestVerifyHandler_NoToken(t *testing.T) {
	rr := doRequest(t, "GET", "/auth?action=verify", "", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Contains(t, rr.Body.String(), "No token provided")
}

func TestVerifyHandler_InvalidToken(t *testing.T) {
	rr := doRequest(t, "GET", "/auth?action=verify", "zmyslony-token", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Contains(t, rr.Body.String(), "Invalid or expired token")
}

func TestLogoutHandler(t *testing.T) {
	_, token := registerTestUser(t, "logout_user", "")

	rr := doRequest(t, "POST", "/auth?action=logout", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	// Token przestaje działać
	rr = doRequest(t, "GET", "/auth?action=verify", token, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	// Wylogowanie jest idempotentne
	rr = doRequest(t, "POST", "/auth?action=logout", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestUnknownAction(t *testing.T) {
	req := httptest.NewRequest("POST", "/auth?action=frobnicate", bytes.NewReader(nil))
	rr := httptest.NewRecorder()
	testRouter.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), "Unknown action")
}
