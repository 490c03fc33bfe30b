package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"welfare-advisor/internal/domain"
)

// readOnlyStore loads from the wrapped store and fails every save.
type readOnlyStore struct {
	*MemoryStore
	err error
}

func (s readOnlyStore) SaveUserID(context.Context, domain.UserID) error { return s.err }

func (s readOnlyStore) SaveProfile(context.Context, domain.Profile) error { return s.err }

func TestLoad_NilStore(t *testing.T) {
	_, err := Load(context.Background(), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be nil")
}

func TestLoad_EmptyStore(t *testing.T) {
	sc, err := Load(context.Background(), NewMemoryStore("", nil))
	require.NoError(t, err)
	require.False(t, sc.Authenticated())
	require.Equal(t, domain.Profile{BaseTags: []string{}}, sc.Profile())
}

func TestLoad_StoredSession(t *testing.T) {
	store := NewMemoryStore(" 42 ", &domain.Profile{UserName: "민지", Residence: "대구", BaseTags: []string{"대학생"}})
	sc, err := Load(context.Background(), store)
	require.NoError(t, err)
	require.True(t, sc.Authenticated())
	require.Equal(t, domain.UserID("42"), sc.UserID())
	require.Equal(t, "대구", sc.Profile().Residence)
}

func TestSignIn_PersistsIDAndProfile(t *testing.T) {
	store := NewMemoryStore("", nil)
	sc, err := Load(context.Background(), store)
	require.NoError(t, err)

	err = sc.SignIn(context.Background(), domain.User{ID: "7", Name: "민지", Residence: "대구", BaseTags: domain.TagList{"청년"}})
	require.NoError(t, err)
	require.Equal(t, domain.UserID("7"), sc.UserID())

	id, _ := store.LoadUserID(context.Background())
	require.Equal(t, domain.UserID("7"), id)
	p, ok, _ := store.LoadProfile(context.Background())
	require.True(t, ok)
	require.Equal(t, domain.Profile{UserName: "민지", Residence: "대구", BaseTags: []string{"청년"}}, p)
}

func TestSignIn_EmptyID(t *testing.T) {
	sc, err := Load(context.Background(), NewMemoryStore("", nil))
	require.NoError(t, err)
	require.Error(t, sc.SignIn(context.Background(), domain.User{Name: "x"}))
	require.False(t, sc.Authenticated())
}

func TestSignIn_StoreFailureKeepsPreviousSession(t *testing.T) {
	store := readOnlyStore{MemoryStore: NewMemoryStore("1", nil), err: errors.New("disk full")}
	sc, err := Load(context.Background(), store)
	require.NoError(t, err)

	err = sc.SignIn(context.Background(), domain.User{ID: "2"})
	require.ErrorContains(t, err, "disk full")
	require.Equal(t, domain.UserID("1"), sc.UserID())
}

func TestSignOut(t *testing.T) {
	store := NewMemoryStore("1", &domain.Profile{UserName: "민지"})
	sc, err := Load(context.Background(), store)
	require.NoError(t, err)

	require.NoError(t, sc.SignOut(context.Background()))
	require.False(t, sc.Authenticated())
	require.Empty(t, sc.Profile().UserName)
	id, _ := store.LoadUserID(context.Background())
	require.Empty(t, id)
}

func TestMergeProfile(t *testing.T) {
	store := NewMemoryStore("1", &domain.Profile{UserName: "민지", Residence: "대구", BaseTags: []string{"대학생"}})
	sc, err := Load(context.Background(), store)
	require.NoError(t, err)

	p, changed, err := sc.MergeProfile(context.Background(), ProfileUpdate{})
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, "민지", p.UserName)

	p, changed, err = sc.MergeProfile(context.Background(), ProfileUpdate{Residence: "부산"})
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, domain.Profile{UserName: "민지", Residence: "부산", BaseTags: []string{"대학생"}}, p)

	p, _, err = sc.MergeProfile(context.Background(), ProfileUpdate{BaseTags: []string{}})
	require.NoError(t, err)
	require.Empty(t, p.BaseTags)

	stored, ok, _ := store.LoadProfile(context.Background())
	require.True(t, ok)
	require.Equal(t, "부산", stored.Residence)
	require.Empty(t, stored.BaseTags)
}

func TestMergeProfile_SaveFailureStillUpdatesMemory(t *testing.T) {
	store := readOnlyStore{MemoryStore: NewMemoryStore("1", nil), err: errors.New("read-only")}
	sc, err := Load(context.Background(), store)
	require.NoError(t, err)

	p, changed, err := sc.MergeProfile(context.Background(), ProfileUpdate{UserName: "민지"})
	require.Error(t, err)
	require.True(t, changed)
	require.Equal(t, "민지", p.UserName)
	require.Equal(t, "민지", sc.Profile().UserName)
}

func TestProfile_ReturnsCopy(t *testing.T) {
	sc, err := Load(context.Background(), NewMemoryStore("1", &domain.Profile{BaseTags: []string{"a"}}))
	require.NoError(t, err)
	p := sc.Profile()
	p.BaseTags[0] = "b"
	require.Equal(t, "a", sc.Profile().BaseTags[0])
}
