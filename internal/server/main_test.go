package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"socialhub/internal/cache"
	"socialhub/internal/config"
	"socialhub/internal/database"
	"socialhub/internal/middleware"
	"socialhub/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testServer struct {
	srv *Server
	app *fiber.App
	db  *gorm.DB
	mr  *miniredis.Miniredis
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Env:                  "test",
		AppName:              "Social Media App",
		Port:                 "3006",
		JWTSecret:            "test-secret-that-is-long-enough-123456",
		JWTIssuer:            "socialhub-api",
		JWTAudience:          "socialhub-client",
		AllowedOrigins:       "http://localhost:5173",
		StorageDriver:        "local",
		ImageUploadDir:       t.TempDir(),
		ImageMaxUploadSizeMB: 5,
	}
}

// newTestServer builds the full application over in-memory SQLite and miniredis.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithConfig(t, testConfig(t))
}

func newTestServerWithConfig(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := database.SQLiteDSN(fmt.Sprintf("file:srv_%s?mode=memory&cache=shared", name))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	mr := miniredis.RunT(t)
	rdb, err := cache.NewClient(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)
	return &testServer{srv: srv, app: srv.App(), db: db, mr: mr}
}

// do sends a JSON request (body may be nil) with an optional session cookie.
func (ts *testServer) do(t *testing.T, method, path string, body any, session string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if session != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: session})
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

type session struct {
	token string
	user  models.PublicUser
}

// signup registers username through the API and returns its session.
func (ts *testServer) signup(t *testing.T, username string) session {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/auth/register", registerRequest{
		Email:    username + "@example.com",
		Password: "secret123",
		Name:     "Test " + username,
		Username: username,
	}, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	body := decodeBody[struct {
		User models.PublicUser `json:"user"`
	}](t, resp)
	return session{token: cookie.Value, user: body.User}
}

func (ts *testServer) createPost(t *testing.T, s session, title string) models.Post {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/posts", map[string]any{"title": title, "content": "body"}, s.token)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return decodeBody[models.Post](t, resp)
}

func errorBody(t *testing.T, resp *http.Response) models.ErrorResponse {
	t.Helper()
	return decodeBody[models.ErrorResponse](t, resp)
}

func randomID() string {
	return uuid.New().String()
}

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}
