package db

import (
	"bitwise74/learning-api/config"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SQLite(t *testing.T) {
	db, err := New(config.DB{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)

	for _, table := range []string{"users", "password_resets", "chat_history", "learning_progress"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(config.DB{Driver: "mongo", DSN: "x"})
	assert.Error(t, err)
}

func TestIsFileDSN(t *testing.T) {
	assert.True(t, isFileDSN("learning_platform.db"))
	assert.False(t, isFileDSN(":memory:"))
	assert.False(t, isFileDSN("file:test?mode=memory&cache=shared"))
}
