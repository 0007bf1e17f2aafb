package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/scanbridge/internal/domain/ident"
	"github.com/ahrav/scanbridge/internal/domain/scanning"
)

func setupSessionTest(t *testing.T) (context.Context, *SessionStore) {
	t.Helper()
	return context.Background(), NewSessionStore()
}

func newTestSession(t *testing.T) *scanning.Session {
	t.Helper()
	session, err := scanning.NewSession("front-desk", ident.SourceFlatbed, ident.ColorModeColor, ident.FormatJPEG, 300)
	require.NoError(t, err)
	return session
}

func TestSessionStore_CreateAndGet(t *testing.T) {
	t.Parallel()

	ctx, store := setupSessionTest(t)
	session := newTestSession(t)

	err := store.CreateSession(ctx, session)
	require.NoError(t, err)

	loaded, err := store.GetSession(ctx, session.ID())
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, session.ID(), loaded.ID())
	assert.Equal(t, session.Device(), loaded.Device())
	assert.Equal(t, session.Source(), loaded.Source())
	assert.Equal(t, session.ColorMode(), loaded.ColorMode())
	assert.Equal(t, session.Format(), loaded.Format())
	assert.Equal(t, session.Phase(), loaded.Phase())
}

func TestSessionStore_CreateDuplicate(t *testing.T) {
	t.Parallel()

	ctx, store := setupSessionTest(t)
	session := newTestSession(t)

	require.NoError(t, store.CreateSession(ctx, session))

	err := store.CreateSession(ctx, session)
	assert.ErrorContains(t, err, "already exists")
}

func TestSessionStore_GetMissing(t *testing.T) {
	t.Parallel()

	ctx, store := setupSessionTest(t)

	loaded, err := store.GetSession(ctx, uuid.New())
	assert.ErrorIs(t, err, scanning.ErrSessionNotFound)
	assert.Nil(t, loaded)
}

func TestSessionStore_Update(t *testing.T) {
	t.Parallel()

	ctx, store := setupSessionTest(t)
	session := newTestSession(t)
	require.NoError(t, store.CreateSession(ctx, session))

	require.NoError(t, session.AdvanceTo(ident.ProtoOpScan))
	require.NoError(t, store.UpdateSession(ctx, session))

	loaded, err := store.GetSession(ctx, session.ID())
	require.NoError(t, err)
	assert.Equal(t, ident.ProtoOpScan, loaded.Phase())
}

func TestSessionStore_UpdateMissing(t *testing.T) {
	t.Parallel()

	ctx, store := setupSessionTest(t)
	session := newTestSession(t)

	err := store.UpdateSession(ctx, session)
	assert.ErrorIs(t, err, scanning.ErrSessionNotFound)
}

func TestSessionStore_CopiesOnReadAndWrite(t *testing.T) {
	t.Parallel()

	ctx, store := setupSessionTest(t)
	session := newTestSession(t)
	require.NoError(t, store.CreateSession(ctx, session))

	// Mutating the caller's aggregate must not leak into the store.
	require.NoError(t, session.AdvanceTo(ident.ProtoOpScan))

	loaded, err := store.GetSession(ctx, session.ID())
	require.NoError(t, err)
	assert.Equal(t, ident.ProtoOpNone, loaded.Phase())

	// Nor must mutating a loaded copy.
	require.NoError(t, loaded.AdvanceTo(ident.ProtoOpPrecheck))

	reloaded, err := store.GetSession(ctx, session.ID())
	require.NoError(t, err)
	assert.Equal(t, ident.ProtoOpNone, reloaded.Phase())
}

func TestSessionStore_ListMostRecentFirst(t *testing.T) {
	t.Parallel()

	ctx, store := setupSessionTest(t)

	sessions := make([]*scanning.Session, 3)
	for i := range sessions {
		sessions[i] = newTestSession(t)
		require.NoError(t, store.CreateSession(ctx, sessions[i]))
	}

	listed, err := store.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 3)

	for i := 1; i < len(listed); i++ {
		assert.False(t, listed[i-1].StartedAt().Before(listed[i].StartedAt()),
			"sessions should be ordered most recently started first")
	}
}

func TestSessionStore_ConcurrentOperations(t *testing.T) {
	t.Parallel()

	ctx, store := setupSessionTest(t)
	const goroutines = 10
	done := make(chan bool)

	for i := 0; i < goroutines; i++ {
		go func() {
			session := newTestSession(t)

			err := store.CreateSession(ctx, session)
			assert.NoError(t, err)

			_, err = store.GetSession(ctx, session.ID())
			assert.NoError(t, err)

			done <- true
		}()
	}

	for i := 0; i < goroutines; i++ {
		<-done
	}
}
