package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenEnablesForeignKeys(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, &Config{Path: filepath.Join(t.TempDir(), "nested", "test.sqlite")})
	require.NoError(t, err)
	defer db.Close()

	var fk int
	require.NoError(t, db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	_, err = db.ExecContext(ctx, `CREATE TABLE parent (id INTEGER PRIMARY KEY);
		CREATE TABLE child (id INTEGER PRIMARY KEY, parent_id INTEGER NOT NULL REFERENCES parent(id))`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, "INSERT INTO child (id, parent_id) VALUES (1, 99)")
	assert.Error(t, err)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), &Config{})
	assert.Error(t, err)
}
