package database

import (
	"testing"

	modelspkg "socialhub/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPersistentModels_IncludesPasswordResetCode(t *testing.T) {
	found := false
	for _, model := range PersistentModels() {
		if _, ok := model.(*modelspkg.PasswordResetCode); ok {
			found = true
			break
		}
	}
	require.True(t, found, "PersistentModels should include PasswordResetCode")
}

func TestPersistentModels_UsersFirst(t *testing.T) {
	all := PersistentModels()
	require.NotEmpty(t, all)
	_, ok := all[0].(*modelspkg.User)
	require.True(t, ok, "users must be migrated before tables referencing them")
}
