package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"magazyn-plikow/internal/auth"
	"magazyn-plikow/internal/config"
	"magazyn-plikow/internal/database"
	"magazyn-plikow/internal/storage"
	"magazyn-plikow/internal/websocket"
)

var testServer *Server
var testRouter *chi.Mux

func TestMain(m *testing.M) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:14-alpine",
		postgres.WithDatabase("test_api_db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		),
	)
	if err != nil {
		log.Fatalf("Could not start postgres: %s", err)
	}
	defer pgContainer.Terminate(ctx)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("Could not get connection string: %s", err)
	}

	if err := database.RunMigrations(ctx, connStr); err != nil {
		log.Fatalf("Could not apply migrations: %s", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("Could not connect to database: %s", err)
	}

	tempDir, err := os.MkdirTemp("", "api-storage-test")
	if err != nil {
		log.Fatalf("Could not create temp dir: %s", err)
	}
	defer os.RemoveAll(tempDir)

	localStorage, err := storage.NewLocalStorage(tempDir)
	if err != nil {
		log.Fatalf("Could not create local storage: %s", err)
	}

	wsHub := websocket.NewHub()
	go wsHub.Run()

	store := database.NewStore(pool, wsHub)
	testServer = NewServer(&config.Config{}, store, localStorage, wsHub)

	// Ten sam układ tras co w cmd/server
	testRouter = chi.NewRouter()
	testRouter.HandleFunc("/auth", testServer.AuthEndpoint())
	testRouter.Group(func(r chi.Router) {
		r.Use(testServer.AuthMiddleware)
		r.HandleFunc("/files", testServer.FilesEndpoint())
		r.Get("/events", testServer.GetEventsHandler)
	})
	testRouter.Group(func(r chi.Router) {
		r.Use(testServer.AuthMiddleware)
		r.Use(testServer.AdminMiddleware)
		r.HandleFunc("/admin", testServer.AdminEndpoint())
	})

	os.Exit(m.Run())
}

// registerTestUser rejestruje użytkownika przez endpoint i zwraca jego
// id oraz token sesji.
func registerTestUser(t *testing.T, username, password string) (int64, string) {
	body, _ := json.Marshal(RegisterRequest{Username: username, Password: password})
	req := httptest.NewRequest("POST", "/auth?action=register", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	testRouter.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, "register failed: %s", rr.Body.String())

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.Token)
	return resp.User.ID, resp.Token
}

// createAdminSession wstawia konto admina bezpośrednio do bazy;
// rejestracja przez API odrzuca zarezerwowaną nazwę.
func createAdminSession(t *testing.T) string {
	ctx := context.Background()
	pool := testServer.store.GetPool()

	var adminID int64
	err := pool.QueryRow(ctx,
		`INSERT INTO users (username) VALUES ($1)
		 ON CONFLICT DO NOTHING
		 RETURNING id`,
		auth.ReservedAdminUsername).Scan(&adminID)
	if err != nil {
		admin, lookupErr := testServer.store.GetUserByUsername(ctx, auth.ReservedAdminUsername)
		require.NoError(t, lookupErr)
		require.NotNil(t, admin)
		adminID = admin.ID
	}

	token, err := auth.NewSessionToken()
	require.NoError(t, err)
	err = testServer.store.CreateSession(ctx, database.CreateSessionParams{
		ID:           uuid.New(),
		UserID:       adminID,
		SessionToken: token,
		UserAgent:    "test-agent",
		ClientIP:     "127.0.0.1:1234",
		ExpiresAt:    time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, method, target, token string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	testRouter.ServeHTTP(rr, req)
	return rr
}
