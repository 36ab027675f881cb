package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdminEndpoint_RequiresAdmin(t *testing.T) {
	_, token := registerTestUser(t, "zwykly_user", "")

	rr := doRequest(t, "GET", "/admin?action=stats", token, nil)
	require.Equal(t, http.StatusForbidden, rr.Code)
	require.Contains(t, rr.Body.String(), "Admin access required")

	// To samo dla akcji adminowych pod /files
	rr = doRequest(t, "GET", "/files?action=admin-users", token, nil)
	require.Equal(t, http.StatusForbidden, rr.Code)

	// Bez tokena w ogóle
	rr = doRequest(t, "GET", "/admin?action=stats", "", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestStatsHandler(t *testing.T) {
	adminToken := createAdminSession(t)

	_, userToken := registerTestUser(t, "stats_api_user", "")
	rr := uploadTestFile(t, userToken, "statystyka.bin", strings.Repeat("x", 1500))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doRequest(t, "GET", "/admin?action=stats", adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp StatsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotNil(t, resp.Stats)
	require.GreaterOrEqual(t, resp.Stats.TotalUsers, int64(1))
	require.GreaterOrEqual(t, resp.Stats.TotalFiles, int64(1))
	require.GreaterOrEqual(t, resp.Stats.TotalStorageUsed, int64(1500))
	require.GreaterOrEqual(t, resp.Stats.ActiveSessions, int64(2))
}

func TestAdminListUsersHandler(t *testing.T) {
	adminToken := createAdminSession(t)
	userID, userToken := registerTestUser(t, "admin_widzi_usera", "")
	rr := uploadTestFile(t, userToken, "widoczny.bin", strings.Repeat("y", 800))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doRequest(t, "GET", "/files?action=admin-users", adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp AdminUsersResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.Success)

	var found bool
	for _, u := range resp.Users {
		require.NotEqual(t, "csjjpfp", u.Username, "the admin must not list itself")
		if u.ID == userID {
			found = true
			require.Equal(t, int64(1), u.FileCount)
			require.Equal(t, int64(800), u.StorageUsedBytes)
		}
	}
	require.True(t, found)
}

func TestAdminListUserFilesHandler(t *testing.T) {
	adminToken := createAdminSession(t)
	userID, userToken := registerTestUser(t, "admin_widzi_pliki", "")
	rr := uploadTestFile(t, userToken, "cudzy_plik.txt", "zawartość")
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doRequest(t, "GET", fmt.Sprintf("/files?action=admin-user-files&user_id=%d", userID), adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp AdminFilesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Len(t, resp.Files, 1)
	require.Equal(t, "cudzy_plik.txt", resp.Files[0].OriginalName)
	require.Equal(t, "admin_widzi_pliki", resp.Files[0].Username)

	// Brak user_id
	rr = doRequest(t, "GET", "/files?action=admin-user-files", adminToken, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "User ID required")
}

func TestAdminDeleteUserHandler(t *testing.T) {
	adminToken := createAdminSession(t)
	userID, userToken := registerTestUser(t, "user_do_skasowania", "")
	rr := uploadTestFile(t, userToken, "znika.txt", "dane")
	require.Equal(t, http.StatusCreated, rr.Code)
	payloadKey := listTestFiles(t, userToken).Files[0].Filename

	rr = doRequest(t, "DELETE", fmt.Sprintf("/admin?action=user&user_id=%d", userID), adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "User deleted successfully")

	// Konto, sesje i payloady znikają
	user, err := testServer.store.GetUserByID(context.Background(), userID)
	require.NoError(t, err)
	require.Nil(t, user)

	rr = doRequest(t, "GET", "/files?action=list", userToken, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	_, err = testServer.storage.Get(payloadKey)
	require.Error(t, err)

	// Powtórka
	rr = doRequest(t, "DELETE", fmt.Sprintf("/admin?action=user&user_id=%d", userID), adminToken, nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), "User not found or cannot delete admin")
}

func TestAdminDeleteUserHandler_RefusesAdmin(t *testing.T) {
	adminToken := createAdminSession(t)

	admin, err := testServer.store.GetUserBySessionToken(context.Background(), adminToken)
	require.NoError(t, err)
	require.NotNil(t, admin)

	rr := doRequest(t, "DELETE", fmt.Sprintf("/admin?action=user&user_id=%d", admin.ID), adminToken, nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), "User not found or cannot delete admin")
}

func TestAdminDeleteFileHandler(t *testing.T) {
	adminToken := createAdminSession(t)
	userID, userToken := registerTestUser(t, "user_traci_plik", "")
	rr := uploadTestFile(t, userToken, "zabrany.txt", "123456")
	require.Equal(t, http.StatusCreated, rr.Code)
	fileID := listTestFiles(t, userToken).Files[0].ID

	rr = doRequest(t, "DELETE", fmt.Sprintf("/admin?action=file&file_id=%d", fileID), adminToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "File deleted successfully")

	// Kwota wraca do właściciela
	user, err := testServer.store.GetUserByID(context.Background(), userID)
	require.NoError(t, err)
	require.Zero(t, user.StorageUsedBytes)

	rr = doRequest(t, "DELETE", fmt.Sprintf("/admin?action=file&file_id=%d", fileID), adminToken, nil)
	require.Equal(t, http.StatusNotFound, rr.Code)

	// Brak file_id
	rr = doRequest(t, "DELETE", "/admin?action=file", adminToken, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "File ID required")
}
