package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rishimanjunath15/acquisitions/core"
)

func testUser() core.User {
	return core.User{ID: "u-1", Name: "Alice", Email: "alice@example.com"}
}

func TestSessionStore_EmptyAtFirstLoad(t *testing.T) {
	s, err := NewSessionStore(t.TempDir())
	require.NoError(t, err)
	require.False(t, s.IsAuthenticated())
	require.Nil(t, s.User())
	require.Empty(t, s.Token())
}

func TestSessionStore_SetAuthAndRehydrate(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSessionStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.SetAuth("tok-abc", testUser()))
	require.True(t, s.IsAuthenticated())
	require.Equal(t, "tok-abc", s.Token())
	require.Equal(t, "alice@example.com", s.User().Email)

	// A fresh store over the same directory restores the pair.
	s2, err := NewSessionStore(dir)
	require.NoError(t, err)
	require.True(t, s2.IsAuthenticated())
	require.Equal(t, "tok-abc", s2.Token())
	require.Equal(t, "u-1", s2.User().ID)
}

func TestSessionStore_ClearAuthIdempotent(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSessionStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.SetAuth("tok", testUser()))

	s.ClearAuth()
	require.False(t, s.IsAuthenticated())
	s.ClearAuth()
	require.False(t, s.IsAuthenticated())

	_, err = os.Stat(filepath.Join(dir, "authToken"))
	require.True(t, os.IsNotExist(err), "token file must be gone")
	_, err = os.Stat(filepath.Join(dir, "currentUser"))
	require.True(t, os.IsNotExist(err), "user file must be gone")
}

func TestSessionStore_CorruptUserTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "authToken"), []byte("tok"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "currentUser"), []byte("{not json"), 0o600))

	s, err := NewSessionStore(dir)
	require.NoError(t, err)
	require.False(t, s.IsAuthenticated())
}

func TestSessionStore_PartialPairTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "authToken"), []byte("tok"), 0o600))

	s, err := NewSessionStore(dir)
	require.NoError(t, err)
	require.False(t, s.IsAuthenticated())

	// User without token is equally not a session.
	dir2 := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir2, "currentUser"), []byte(`{"id":"u-1","email":"a@b.co"}`), 0o600))
	s2, err := NewSessionStore(dir2)
	require.NoError(t, err)
	require.False(t, s2.IsAuthenticated())
}

func TestSessionStore_UserShapeValidated(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "authToken"), []byte("tok"), 0o600))
	// Valid JSON but missing required identity fields.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "currentUser"), []byte(`{"name":"x"}`), 0o600))

	s, err := NewSessionStore(dir)
	require.NoError(t, err)
	require.False(t, s.IsAuthenticated())
}

func TestSessionStore_SetAuthAtomicOnFailure(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSessionStore(dir)
	require.NoError(t, err)

	// Force the token write to fail: a directory squats on the token path.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "authToken"), 0o700))

	err = s.SetAuth("tok", testUser())
	require.Error(t, err)
	require.False(t, s.IsAuthenticated(), "failed SetAuth must not leave partial state in memory")

	// Neither half of the pair is readable afterwards.
	_, statErr := os.Stat(filepath.Join(dir, "currentUser"))
	require.True(t, os.IsNotExist(statErr), "user file must not survive a failed SetAuth")
}

func TestSessionStore_RefusesPartialInput(t *testing.T) {
	s, err := NewSessionStore(t.TempDir())
	require.NoError(t, err)

	require.Error(t, s.SetAuth("", testUser()))
	require.Error(t, s.SetAuth("tok", core.User{}))
	require.False(t, s.IsAuthenticated())
}

func TestSessionStore_LastWriteWins(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSessionStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.SetAuth("tok-1", core.User{ID: "u-1", Email: "one@example.com"}))
	require.NoError(t, s.SetAuth("tok-2", core.User{ID: "u-2", Email: "two@example.com"}))

	require.Equal(t, "tok-2", s.Token())
	require.Equal(t, "u-2", s.User().ID)

	s2, err := NewSessionStore(dir)
	require.NoError(t, err)
	require.Equal(t, "tok-2", s2.Token())
	require.Equal(t, "u-2", s2.User().ID)
}

func TestSessionStore_AuthHeaders(t *testing.T) {
	s, err := NewSessionStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.SetAuth("tok-abc", testUser()))

	headers := s.AuthHeaders()
	require.Equal(t, "Bearer tok-abc", headers["Authorization"])
	require.Equal(t, "application/json", headers["Content-Type"])
}
