package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lebelle-app/agenda-api/internal/auth"
)

func TestGateStartsPublic(t *testing.T) {
	session := auth.NewSession(fakeCredentials{user: &auth.User{UID: "uid-1"}})
	gate := auth.NewGate(session)
	defer gate.Close()

	require.Equal(t, auth.AreaPublic, gate.Area())
}

func TestGateFollowsSignInAndOut(t *testing.T) {
	session := auth.NewSession(fakeCredentials{user: &auth.User{UID: "uid-1"}})
	gate := auth.NewGate(session)
	defer gate.Close()

	_, err := session.SignIn(context.Background(), "a@b.com", "senha123")
	require.NoError(t, err)
	require.Equal(t, auth.AreaProtected, gate.Area())

	session.SignOut()
	require.Equal(t, auth.AreaPublic, gate.Area())
}

func TestGateOnChangeFiresImmediatelyAndOnTransition(t *testing.T) {
	session := auth.NewSession(fakeCredentials{user: &auth.User{UID: "uid-1"}})
	gate := auth.NewGate(session)
	defer gate.Close()

	var got []auth.Area
	unsub := gate.OnChange(func(a auth.Area) { got = append(got, a) })
	defer unsub()

	require.Equal(t, []auth.Area{auth.AreaPublic}, got)

	_, err := session.SignIn(context.Background(), "a@b.com", "senha123")
	require.NoError(t, err)
	require.Equal(t, []auth.Area{auth.AreaPublic, auth.AreaProtected}, got)
}

func TestGateSkipsNoOpTransitions(t *testing.T) {
	session := auth.NewSession(fakeCredentials{user: &auth.User{UID: "uid-1"}})
	gate := auth.NewGate(session)
	defer gate.Close()

	calls := 0
	unsub := gate.OnChange(func(auth.Area) { calls++ })
	defer unsub()

	// already public; signing out again must not re-notify
	session.SignOut()
	require.Equal(t, 1, calls)
}

func TestGateCloseDetaches(t *testing.T) {
	session := auth.NewSession(fakeCredentials{user: &auth.User{UID: "uid-1"}})
	gate := auth.NewGate(session)
	gate.Close()

	_, err := session.SignIn(context.Background(), "a@b.com", "senha123")
	require.NoError(t, err)
	require.Equal(t, auth.AreaPublic, gate.Area())
}
