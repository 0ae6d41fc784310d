package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jfmyers9/lastfm-auth/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestStore creates an in-memory SQLite store for testing
func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLite(":memory:")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

func richardJones() identity.Canonical {
	return identity.Canonical{
		ExternalID: "1000002",
		Username:   "RJ",
		FullName:   "Richard Jones",
		FirstName:  "Richard",
		LastName:   "Jones",
		Extra:      map[string]string{"id": "1000002", "access_token": "FAKETOKEN"},
	}
}

func TestNewSQLite_FileBased(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)

	// Reopening must not fail on the existing schema
	s, err = NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestCreateOrUpdate_NewUser(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	u, created, err := s.CreateOrUpdate(ctx, identity.Provider, "1000002", richardJones())
	require.NoError(t, err)

	assert.True(t, created)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "RJ", u.Username)
	assert.Equal(t, "Richard", u.FirstName)
	assert.Equal(t, "Jones", u.LastName)
	assert.Equal(t, "Richard Jones", u.FullName)
	assert.Equal(t, "", u.Email)
	assert.Equal(t, identity.Provider, u.Provider)
	assert.Equal(t, "1000002", u.UID)
	assert.Equal(t, "FAKETOKEN", u.Extra["access_token"])

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCreateOrUpdate_ExistingUser(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, created, err := s.CreateOrUpdate(ctx, identity.Provider, "1000002", richardJones())
	require.NoError(t, err)
	require.True(t, created)

	updated := richardJones()
	updated.Username = "RichardJ"
	updated.FullName = "Rich Jones"
	updated.FirstName = "Rich"
	updated.Extra["access_token"] = "NEWTOKEN"

	second, created, err := s.CreateOrUpdate(ctx, identity.Provider, "1000002", updated)
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "RJ", second.Username, "existing users keep their username")
	assert.Equal(t, "Rich", second.FirstName)
	assert.Equal(t, "NEWTOKEN", second.Extra["access_token"])

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCreateOrUpdate_UsernameCollision(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, _, err := s.CreateOrUpdate(ctx, identity.Provider, "1", richardJones())
	require.NoError(t, err)

	u, created, err := s.CreateOrUpdate(ctx, identity.Provider, "2", richardJones())
	require.NoError(t, err)

	assert.True(t, created)
	assert.NotEqual(t, "RJ", u.Username)
	assert.True(t, strings.HasPrefix(u.Username, "RJ-"), "got %q", u.Username)
}

func TestCreateOrUpdate_EmptyUsername(t *testing.T) {
	s := createTestStore(t)

	c := richardJones()
	c.Username = ""
	c.Extra = nil

	u, _, err := s.CreateOrUpdate(context.Background(), identity.Provider, "9", c)
	require.NoError(t, err)

	assert.Equal(t, identity.Provider, u.Username)
	assert.Empty(t, u.Extra)
}

func TestFindByExternalID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.FindByExternalID(ctx, identity.Provider, "1000002")
	assert.ErrorIs(t, err, identity.ErrUserNotFound)

	created, _, err := s.CreateOrUpdate(ctx, identity.Provider, "1000002", richardJones())
	require.NoError(t, err)

	found, err := s.FindByExternalID(ctx, identity.Provider, "1000002")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = s.FindByExternalID(ctx, "other", "1000002")
	assert.ErrorIs(t, err, identity.ErrUserNotFound)
}

func TestGetUser(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	created, _, err := s.CreateOrUpdate(ctx, identity.Provider, "1000002", richardJones())
	require.NoError(t, err)

	got, err := s.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "RJ", got.Username)

	_, err = s.GetUser(ctx, "100")
	assert.ErrorIs(t, err, identity.ErrUserNotFound)
}

func TestList(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	clock := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return clock }

	_, _, err := s.CreateOrUpdate(ctx, identity.Provider, "1", richardJones())
	require.NoError(t, err)

	clock = clock.Add(time.Minute)
	cher := identity.Canonical{ExternalID: "2", Username: "cher", FullName: "Cher", FirstName: "Cher"}
	_, _, err = s.CreateOrUpdate(ctx, identity.Provider, "2", cher)
	require.NoError(t, err)

	users, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "RJ", users[0].Username)
	assert.Equal(t, "cher", users[1].Username)
	assert.Equal(t, clock.Unix(), users[1].CreatedAt.Unix())
}
