package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseBackend runs the same round trip against every backend.
func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, b.Ensure(ctx))
	require.NoError(t, b.Ensure(ctx), "Ensure must be repeatable")

	rows, err := b.ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)

	first := concat(rowsFor("2024-01-01", "AAA"), rowsFor("2024-01-02", "BBB", "CCC"))
	require.NoError(t, b.ReplaceAll(ctx, first))
	rows, err = b.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, rows)

	second := rowsFor("2024-01-03", "DDD")
	require.NoError(t, b.ReplaceAll(ctx, second))
	rows, err = b.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, rows)

	require.NoError(t, b.ReplaceAll(ctx, nil))
	rows, err = b.ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSQLiteBackend(t *testing.T) {
	b, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "screener.db"), "rsi_scanner_us")
	require.NoError(t, err)
	defer b.Close()

	exerciseBackend(t, b)
}

func TestSQLiteBackend_RejectsBadTableName(t *testing.T) {
	_, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "x.db"), "rows; DROP TABLE x")
	assert.Error(t, err)
}

func TestRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	b := NewRedisBackend(client, "screener:rolling")
	defer b.Close()

	exerciseBackend(t, b)
}

func TestRedisBackend_MissingKeyReadsEmpty(t *testing.T) {
	mr := miniredis.RunT(t)
	b := NewRedisBackend(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "absent")
	defer b.Close()

	rows, err := b.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCSVBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rolling.csv")
	exerciseBackend(t, NewCSVBackend(path))
}

func TestCSVBackend_WritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rolling.csv")
	b := NewCSVBackend(path)
	ctx := context.Background()

	require.NoError(t, b.Ensure(ctx))
	require.NoError(t, b.ReplaceAll(ctx, rowsFor("2024-01-02", "ACME")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "date,ticker,name\n2024-01-02,ACME,ACME Inc\n", string(data))

	matches, err := filepath.Glob(path + ".*.tmp")
	require.NoError(t, err)
	assert.Empty(t, matches, "temp files must not be left behind")
}

func TestManager_SQLiteEndToEnd(t *testing.T) {
	ctx := context.Background()
	b, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "screener.db"), "rolling")
	require.NoError(t, err)
	m := NewManager(b, 3)
	defer m.Close()

	for _, d := range []string{"2024-01-01", "2024-01-02", "2024-01-03"} {
		_, err := m.Update(ctx, d, results("X"+d[len(d)-1:]))
		require.NoError(t, err)
	}
	_, err = m.Update(ctx, "2024-01-04", results("ACME"))
	require.NoError(t, err)
	_, err = m.Update(ctx, "2024-01-04", results("ACME"))
	require.NoError(t, err)

	rows, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-04", "2024-01-03", "2024-01-02"}, Dates(rows))
	assert.Len(t, rows, 3)
}
