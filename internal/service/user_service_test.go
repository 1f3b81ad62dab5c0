package service

import (
	"context"
	"testing"

	"socialhub/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	images := &imageRemoverStub{}
	svc := NewUserService(env.users, images)
	mia := env.register(t, "mia")
	noah := env.register(t, "noah")

	t.Run("missing user is not found", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{SubjectID: mia.ID, UserID: uuid.New(), Name: strPtr("Mia")})
		assertAppCode(t, err, models.CodeNotFound)
	})

	t.Run("other users are forbidden", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{SubjectID: noah.ID, UserID: mia.ID, Name: strPtr("Hacked")})
		assertAppCode(t, err, models.CodeForbidden)
	})

	t.Run("taken email conflicts", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{SubjectID: mia.ID, UserID: mia.ID, Email: strPtr("NOAH@example.com")})
		assertAppCode(t, err, models.CodeConflict)
	})

	t.Run("taken username conflicts", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{SubjectID: mia.ID, UserID: mia.ID, Username: strPtr("noah")})
		assertAppCode(t, err, models.CodeConflict)
	})

	t.Run("keeping your own email is fine", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{SubjectID: mia.ID, UserID: mia.ID, Email: strPtr("MIA@example.com")})
		require.NoError(t, err)
	})

	t.Run("bio too long", func(t *testing.T) {
		long := make([]byte, 501)
		for i := range long {
			long[i] = 'a'
		}
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{SubjectID: mia.ID, UserID: mia.ID, Bio: strPtr(string(long))})
		assertAppCode(t, err, models.CodeValidation)
	})

	t.Run("applies fields and keeps the password", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{SubjectID: mia.ID, UserID: mia.ID, ImageURL: strPtr("/images/users/one.png")})
		require.NoError(t, err)

		pub, err := svc.UpdateProfile(ctx, UpdateProfileInput{
			SubjectID: mia.ID,
			UserID:    mia.ID,
			Name:      strPtr("Mia Wallace"),
			Bio:       strPtr("hello"),
			ImageURL:  strPtr("/images/users/two.png"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Mia Wallace", *pub.Name)
		assert.Equal(t, "/images/users/two.png", *pub.ImageURL)
		assert.Equal(t, []string{"/images/users/one.png"}, images.urls())

		cleared, err := svc.UpdateProfile(ctx, UpdateProfileInput{SubjectID: mia.ID, UserID: mia.ID, ImageURL: strPtr(""), Bio: strPtr("")})
		require.NoError(t, err)
		assert.Nil(t, cleared.ImageURL)
		assert.Nil(t, cleared.Bio)
		assert.Equal(t, []string{"/images/users/one.png", "/images/users/two.png"}, images.urls())

		// Profile updates go through the cache and must never touch the hash.
		_, err = NewAuthService(env.users, NewTokenManager(testConfig(), env.rdb)).Login(ctx, "mia@example.com", "secret123")
		require.NoError(t, err)
	})
}

func TestUserService_CreateListGetDelete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewUserService(env.users, nil)

	created, err := svc.CreateUser(ctx, RegisterInput{Email: "olive@example.com", Password: "secret123", Name: "Olive", Username: "olive"})
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, RegisterInput{Email: "olive@example.com", Password: "secret123", Name: "Olive", Username: "olive2"})
	assertAppCode(t, err, models.CodeConflict)

	got, err := svc.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "olive", got.Username)

	list, err := svc.ListUsers(ctx, PageRequest{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteByEmail(ctx, "OLIVE@example.com"))
	_, err = svc.GetUserByID(ctx, created.ID)
	assertAppCode(t, err, models.CodeNotFound)

	assertAppCode(t, svc.DeleteByEmail(ctx, "olive@example.com"), models.CodeNotFound)
	assertAppCode(t, svc.DeleteByEmail(ctx, " "), models.CodeValidation)
}
