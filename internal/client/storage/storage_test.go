package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func countRows(t *testing.T, s *SQLiteStore) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM metadata`).Scan(&n))
	return n
}

func TestSQLiteStore_SaveLoad(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	want := Credentials{Token: []byte("abc"), User: []byte(`{"id":"u1"}`)}
	require.NoError(t, s.SaveCredentials(ctx, want))

	got, err := s.LoadCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSQLiteStore_LoadEmpty(t *testing.T) {
	s := openMemory(t)

	got, err := s.LoadCredentials(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got.Token)
	assert.Nil(t, got.User)
}

func TestSQLiteStore_LoadPartial(t *testing.T) {
	s := openMemory(t)
	_, err := s.db.Exec(`INSERT INTO metadata (key, value) VALUES ('token', 'tok')`)
	require.NoError(t, err)

	got, err := s.LoadCredentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("tok"), got.Token)
	assert.Nil(t, got.User)
}

func TestSQLiteStore_SaveReplaces(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCredentials(ctx, Credentials{Token: []byte("old"), User: []byte("u-old")}))
	require.NoError(t, s.SaveCredentials(ctx, Credentials{Token: []byte("new"), User: []byte("u-new")}))

	got, err := s.LoadCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, Credentials{Token: []byte("new"), User: []byte("u-new")}, got)
	assert.Equal(t, 2, countRows(t, s))
}

func TestSQLiteStore_SaveIsAtomic(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	previous := Credentials{Token: []byte("old"), User: []byte("u-old")}
	require.NoError(t, s.SaveCredentials(ctx, previous))

	// Make the second row of the pair fail to write.
	_, err := s.db.Exec(`
		CREATE TRIGGER reject_user BEFORE UPDATE ON metadata
		WHEN NEW.key = 'user'
		BEGIN SELECT RAISE(ABORT, 'user row rejected'); END
	`)
	require.NoError(t, err)

	err = s.SaveCredentials(ctx, Credentials{Token: []byte("new"), User: []byte("u-new")})
	require.Error(t, err)

	got, err := s.LoadCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, previous, got)
}

func TestSQLiteStore_Clear(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCredentials(ctx, Credentials{Token: []byte{0x01}, User: []byte{0x02}}))
	require.NoError(t, s.ClearCredentials(ctx))
	require.NoError(t, s.ClearCredentials(ctx))

	got, err := s.LoadCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, Credentials{}, got)
	assert.Equal(t, 0, countRows(t, s))
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.SaveCredentials(ctx, Credentials{Token: []byte("kept"), User: []byte("u")}))
	require.NoError(t, s.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.LoadCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("kept"), got.Token)
}
