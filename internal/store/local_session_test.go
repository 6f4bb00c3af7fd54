package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(filepath.Join(t.TempDir(), "renoplan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreSessionTurn(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.StoreSessionTurn(ctx, Turn{SessionID: "sess-1", Number: 1, UserInput: "hello", Destination: "INFO", Response: "hi"}))
	// Duplicate turn is ignored.
	require.NoError(t, s.StoreSessionTurn(ctx, Turn{SessionID: "sess-1", Number: 1, UserInput: "hello2", Destination: "INFO", Response: "hi2"}))
	require.NoError(t, s.StoreSessionTurn(ctx, Turn{SessionID: "sess-1", Number: 2, UserInput: "make it blue", Destination: "EDIT", Response: "done"}))

	history, err := s.GetSessionHistory(ctx, "sess-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "hello", history[0].UserInput)
	assert.Equal(t, "EDIT", history[1].Destination)
	assert.Equal(t, 2, history[1].Number)

	empty, err := s.GetSessionHistory(ctx, "other", 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListSessions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.StoreSessionTurn(ctx, Turn{SessionID: "a", Number: i, UserInput: "q", Destination: "INFO", Response: "r"}))
	}
	require.NoError(t, s.StoreSessionTurn(ctx, Turn{SessionID: "b", Number: 1, UserInput: "q", Destination: "PLAN", Response: "r"}))

	sessions, err := s.ListSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	turns := map[string]int{}
	for _, info := range sessions {
		turns[info.ID] = info.Turns
		assert.False(t, info.UpdatedAt.IsZero(), "updated time for %s", info.ID)
	}
	assert.Equal(t, map[string]int{"a": 3, "b": 1}, turns)
}

func TestListSessions_SnapshotOnly(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.StoreSessionTurn(ctx, Turn{SessionID: "a", Number: 1, UserInput: "q", Destination: "INFO", Response: "r"}))
	require.NoError(t, s.SaveSnapshot(ctx, "a", []byte(`{}`)))
	require.NoError(t, s.SaveSnapshot(ctx, "uploads-only", []byte(`{}`)))

	sessions, err := s.ListSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	turns := map[string]int{}
	for _, info := range sessions {
		turns[info.ID] = info.Turns
	}
	assert.Equal(t, map[string]int{"a": 1, "uploads-only": 0}, turns)
}

func TestSnapshots_SQLite(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.LoadSnapshot(ctx, "missing")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	require.NoError(t, s.SaveSnapshot(ctx, "sess-1", []byte(`{"v":1}`)))
	require.NoError(t, s.SaveSnapshot(ctx, "sess-1", []byte(`{"v":2}`)))

	data, err := s.LoadSnapshot(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(data))
}

func TestNewLocalStore_PureGoDriver(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStoreWithDriver(DriverPureGo, filepath.Join(t.TempDir(), "pure.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SaveSnapshot(ctx, "sess", []byte("state")))
	data, err := s.LoadSnapshot(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, "state", string(data))
}

func TestOpenSQLite_RejectsUnknownDriver(t *testing.T) {
	_, err := OpenSQLite("postgres", filepath.Join(t.TempDir(), "x.db"))
	assert.Error(t, err)
}
