package stamp

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizrally/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDBCatalog_HeadStartWithoutDatabase(t *testing.T) {
	catalog := NewDBCatalog(nil, discardLogger())

	allowed := catalog.AllowedKeys(42)

	assert.Len(t, allowed, len(HeadStartKeys))
	for _, key := range HeadStartKeys {
		assert.True(t, allowed[key], "missing head-start key %q", key)
	}
}

func TestDBCatalog_GuestsAndBotsGetHeadStartOnly(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()
	catalog := NewDBCatalog(db, discardLogger())

	assert.Len(t, catalog.AllowedKeys(0), len(HeadStartKeys))
	assert.Len(t, catalog.AllowedKeys(-100001), len(HeadStartKeys))
}

func TestDBCatalog_MergesOwnedKeys(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
        INSERT INTO characters (id, code, name, sprite_key) VALUES (1, 'okami', 'Okami', 'okami.png');
        INSERT INTO user_characters (user_id, character_id) VALUES (42, 1);
    `)
	require.NoError(t, err)

	catalog := NewDBCatalog(db, discardLogger())
	allowed := catalog.AllowedKeys(42)

	assert.True(t, allowed["okami.png"])
	for _, key := range HeadStartKeys {
		assert.True(t, allowed[key])
	}

	other := catalog.AllowedKeys(7)
	assert.False(t, other["okami.png"], "ownership is per user")
}
