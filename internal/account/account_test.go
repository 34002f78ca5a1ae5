package account_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"focusmate/internal/account"
	"focusmate/internal/localstore"
)

func newStore(t *testing.T) (*account.Store, *localstore.Store) {
	t.Helper()
	ls, err := localstore.Open(t.TempDir())
	require.NoError(t, err)
	return account.NewStore(ls), ls
}

func TestSessionLifecycle(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.LoadSession()
	assert.ErrorIs(t, err, account.ErrNoSession)

	sess := account.Session{Token: "abc.def.ghi", ServerURL: "http://localhost:8080"}
	require.NoError(t, store.SaveSession(sess))
	require.NoError(t, store.SaveProfile(account.Profile{ID: "u1", Name: "Ada", Email: "ada@example.com"}))

	got, err := store.LoadSession()
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	require.NoError(t, store.Clear())
	_, err = store.LoadSession()
	assert.ErrorIs(t, err, account.ErrNoSession)
	_, err = store.LoadProfile()
	assert.ErrorIs(t, err, account.ErrNoSession)

	require.NoError(t, store.Clear(), "clearing twice is fine")
}

func TestCorruptSessionIsSignedOut(t *testing.T) {
	store, ls := newStore(t)
	require.NoError(t, ls.Set(account.SessionKey, []byte("{broken")))

	_, err := store.LoadSession()
	assert.ErrorIs(t, err, account.ErrNoSession)

	require.NoError(t, ls.Set(account.SessionKey, []byte(`{"token":"","serverUrl":"http://x"}`)))
	_, err = store.LoadSession()
	assert.ErrorIs(t, err, account.ErrNoSession)
}

func TestProfileRoundTrip(t *testing.T) {
	store, _ := newStore(t)
	rapid.Check(t, func(t *rapid.T) {
		p := account.Profile{
			ID:    rapid.StringMatching(`[a-f0-9-]{36}`).Draw(t, "id"),
			Name:  rapid.String().Draw(t, "name"),
			Email: rapid.StringMatching(`[a-z]{1,10}@[a-z]{1,10}\.com`).Draw(t, "email"),
			Image: rapid.String().Draw(t, "image"),
		}
		if err := store.SaveProfile(p); err != nil {
			t.Fatalf("save: %v", err)
		}
		got, err := store.LoadProfile()
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if got != p {
			t.Fatalf("got %+v want %+v", got, p)
		}
	})
}
