package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptm/backend/internal/db"
)

func newSQLiteGateway(t *testing.T, capacity int) *Gateway {
	t.Helper()
	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "ptm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.RunMigrations(database))
	return New(NewSQLiteMedium(database, capacity), "ptm")
}

func TestSQLiteMediumRoundTrip(t *testing.T) {
	g := newSQLiteGateway(t, 0)

	require.NoError(t, g.Save("item", sample{A: 7, B: "ü"}))
	out, err := LoadAs[sample](g, "item")
	require.NoError(t, err)
	assert.Equal(t, sample{A: 7, B: "ü"}, out)

	_, err = LoadAs[sample](g, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, g.Clear())
	assert.Equal(t, 0, g.UsedSpace())
}

func TestSQLiteMediumEnforcesCapacity(t *testing.T) {
	g := newSQLiteGateway(t, 64)

	require.NoError(t, g.Save("small", "x"))
	err := g.Save("large", string(make([]byte, 100)))
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	probe := len("ptm:__probe__")
	assert.Equal(t, 64-g.UsedSpace()-probe, g.AvailableSpace(1024))
}
