package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lebelle-app/agenda-api/internal/auth"
)

type fakeCredentials struct {
	user *auth.User
	err  error
}

func (f fakeCredentials) SignIn(context.Context, string, string) (*auth.User, error) {
	return f.user, f.err
}

func TestSessionSignInSetsCurrentUser(t *testing.T) {
	session := auth.NewSession(fakeCredentials{user: &auth.User{UID: "uid-1", Email: "a@b.com"}})

	u, err := session.SignIn(context.Background(), "a@b.com", "senha123")
	require.NoError(t, err)
	require.Equal(t, "uid-1", u.UID)

	current := session.CurrentUser()
	require.NotNil(t, current)
	require.Equal(t, "uid-1", current.UID)
}

func TestSessionSignInFailureLeavesStateUntouched(t *testing.T) {
	session := auth.NewSession(fakeCredentials{err: auth.ErrWrongPassword})

	_, err := session.SignIn(context.Background(), "a@b.com", "errada")
	require.ErrorIs(t, err, auth.ErrWrongPassword)
	require.Nil(t, session.CurrentUser())
}

func TestSessionSignOut(t *testing.T) {
	session := auth.NewSession(fakeCredentials{user: &auth.User{UID: "uid-1"}})
	_, err := session.SignIn(context.Background(), "a@b.com", "senha123")
	require.NoError(t, err)

	session.SignOut()
	require.Nil(t, session.CurrentUser())
}

func TestOnAuthStateChangedFiresImmediately(t *testing.T) {
	session := auth.NewSession(fakeCredentials{user: &auth.User{UID: "uid-1"}})

	var got []*auth.User
	unsub := session.OnAuthStateChanged(func(u *auth.User) { got = append(got, u) })
	defer unsub()

	require.Len(t, got, 1)
	require.Nil(t, got[0])
}

func TestOnAuthStateChangedFollowsTransitions(t *testing.T) {
	session := auth.NewSession(fakeCredentials{user: &auth.User{UID: "uid-1"}})

	var got []*auth.User
	unsub := session.OnAuthStateChanged(func(u *auth.User) { got = append(got, u) })
	defer unsub()

	_, err := session.SignIn(context.Background(), "a@b.com", "senha123")
	require.NoError(t, err)
	session.SignOut()

	require.Len(t, got, 3)
	require.Nil(t, got[0])
	require.Equal(t, "uid-1", got[1].UID)
	require.Nil(t, got[2])
}

func TestOnAuthStateChangedUnsubscribe(t *testing.T) {
	session := auth.NewSession(fakeCredentials{user: &auth.User{UID: "uid-1"}})

	calls := 0
	unsub := session.OnAuthStateChanged(func(*auth.User) { calls++ })
	unsub()
	unsub() // idempotent

	_, err := session.SignIn(context.Background(), "a@b.com", "senha123")
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestSessionReturnsCopies(t *testing.T) {
	session := auth.NewSession(fakeCredentials{user: &auth.User{UID: "uid-1", DisplayName: "Maria"}})
	_, err := session.SignIn(context.Background(), "a@b.com", "senha123")
	require.NoError(t, err)

	session.CurrentUser().DisplayName = "mutated"
	require.Equal(t, "Maria", session.CurrentUser().DisplayName)
}

func TestSessionSignInPropagatesProviderError(t *testing.T) {
	providerErr := errors.New("provider unavailable")
	session := auth.NewSession(fakeCredentials{err: providerErr})

	_, err := session.SignIn(context.Background(), "a@b.com", "senha123")
	require.ErrorIs(t, err, providerErr)
}
