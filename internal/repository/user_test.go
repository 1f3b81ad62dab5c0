package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"socialhub/internal/cache"
	"socialhub/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CaseInsensitiveLookup(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db, nil)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Username: "Alice", Email: "Alice@Example.com", Password: "h"}))

	byEmail, err := repo.GetByEmail(ctx, "alice@example.COM")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, "Alice", byEmail.Username)

	byName, err := repo.GetByUsername(ctx, "ALICE")
	require.NoError(t, err)
	require.NotNil(t, byName)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepository_CreateDuplicateIsConflict(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db, nil)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Username: "bob", Email: "bob@example.com", Password: "h"}))
	err := repo.Create(ctx, &models.User{Username: "bob2", Email: "bob@example.com", Password: "h"})
	require.Error(t, err)
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))
}

func TestUserRepository_GetByIDUsesCache(t *testing.T) {
	db := newTestDB(t)
	mr, store := newTestStore(t)
	repo := NewUserRepository(db, store)
	ctx := context.Background()

	u := seedUser(t, db, "carol")

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "carol", got.Username)
	assert.Empty(t, got.Password, "password hash is not part of the cached form")
	assert.True(t, mr.Exists(cache.UserKey(u.ID)))

	bio := "hello"
	got.Bio = &bio
	require.NoError(t, repo.Update(ctx, got))
	assert.False(t, mr.Exists(cache.UserKey(u.ID)), "update invalidates the cache entry")

	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", u.ID).Error)
	assert.Equal(t, "hash", stored.Password, "profile update must not clear the password")
	assert.Equal(t, "hello", *stored.Bio)
}

func TestUserRepository_GetByIDNotFound(t *testing.T) {
	repo := NewUserRepository(newTestDB(t), nil)
	_, err := repo.GetByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db, nil)
	ctx := context.Background()

	u := seedUser(t, db, "dave")
	p := seedPost(t, db, u, "bye")
	require.NoError(t, db.Create(&models.Like{UserID: u.ID, PostID: p.ID}).Error)

	require.NoError(t, repo.Delete(ctx, u.ID))

	var posts, likes int64
	db.Model(&models.Post{}).Count(&posts)
	db.Model(&models.Like{}).Count(&likes)
	assert.Zero(t, posts)
	assert.Zero(t, likes)

	err := repo.Delete(ctx, u.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db, nil)
	ctx := context.Background()
	u := seedUser(t, db, "erin")

	require.NoError(t, repo.UpdatePassword(ctx, u.ID, "newhash"))
	var stored models.User
	require.NoError(t, db.First(&stored, "id = ?", u.ID).Error)
	assert.Equal(t, "newhash", stored.Password)

	err := repo.UpdatePassword(ctx, uuid.New(), "x")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestUserRepository_List(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db, nil)
	for _, name := range []string{"u1", "u2", "u3"} {
		seedUser(t, db, name)
	}

	all, err := repo.List(context.Background(), Page{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	some, err := repo.List(context.Background(), Page{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, some, 1)
}

func TestUserRepository_DatabaseErrorIsInternal(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE LOWER(email) = LOWER($1)`)).
		WithArgs("x@example.com", 1).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.GetByEmail(context.Background(), "x@example.com")
	require.Error(t, err)
	assert.Equal(t, models.CodeInternal, models.ErrorCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
