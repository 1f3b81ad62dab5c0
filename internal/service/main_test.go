package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"socialhub/internal/cache"
	"socialhub/internal/config"
	"socialhub/internal/database"
	"socialhub/internal/models"
	"socialhub/internal/notifications"
	"socialhub/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires real repositories over an in-memory SQLite database and a
// miniredis instance.
type testEnv struct {
	db    *gorm.DB
	mr    *miniredis.Miniredis
	rdb   *redis.Client
	users repository.UserRepository
	posts repository.PostRepository
	comms repository.CommentRepository
	notes repository.NotificationRepository
	codes repository.ResetCodeRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := database.SQLiteDSN(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name))
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
	store := cache.NewStore(rdb)

	return &testEnv{
		db:    db,
		mr:    mr,
		rdb:   rdb,
		users: repository.NewUserRepository(db, store),
		posts: repository.NewPostRepository(db, store),
		comms: repository.NewCommentRepository(db, store),
		notes: repository.NewNotificationRepository(db),
		codes: repository.NewResetCodeRepository(db),
	}
}

func (e *testEnv) notificationService() *NotificationService {
	return NewNotificationService(e.notes, notifications.NewNotifier(e.rdb))
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                  "test",
		AppName:              "Social Media App",
		JWTSecret:            "test-secret-that-is-long-enough-123456",
		JWTIssuer:            "socialhub-api",
		JWTAudience:          "socialhub-client",
		ImageMaxUploadSizeMB: 5,
	}
}

// register creates a user through the real account path so the password is hashed.
func (e *testEnv) register(t *testing.T, username string) *models.User {
	t.Helper()
	user, err := createAccount(context.Background(), e.users, RegisterInput{
		Email:    username + "@example.com",
		Password: "secret123",
		Name:     "Test " + username,
		Username: username,
	})
	require.NoError(t, err)
	return user
}

type sentMail struct {
	To      string
	Subject string
	HTML    string
}

// mailerStub records messages and reports the configured outcome.
type mailerStub struct {
	mu   sync.Mutex
	ok   bool
	sent []sentMail
}

func (m *mailerStub) Send(_ context.Context, to, subject, html string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, HTML: html})
	return m.ok
}

func (m *mailerStub) messages() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

// imageRemoverStub records DeleteImage calls.
type imageRemoverStub struct {
	mu      sync.Mutex
	deleted []string
}

func (r *imageRemoverStub) DeleteImage(_ context.Context, url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, url)
}

func (r *imageRemoverStub) urls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.deleted...)
}

func assertAppCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected *models.AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}

func strPtr(s string) *string { return &s }
