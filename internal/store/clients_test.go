package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lebelle-app/agenda-api/internal/auth"
	"github.com/lebelle-app/agenda-api/internal/contacts"
	"github.com/lebelle-app/agenda-api/internal/docstore"
	"github.com/lebelle-app/agenda-api/internal/store"
)

const waitFor = 2 * time.Second

func seedProfile(docs *fakeDocs, uid, salonID string) {
	docs.seed(docstore.Users, uid, map[string]any{"uid": uid, "salonId": salonID})
}

func TestClientsStoreAddWithoutScopeIsNoOp(t *testing.T) {
	docs := newFakeDocs()
	s := store.NewClientsStore(&fakeAuth{}, docs, zap.NewNop())
	defer s.Close()

	err := s.Add(context.Background(), store.ClientInput{Name: "Maria", Phone: "11987654321"})
	require.NoError(t, err)
	require.Zero(t, docs.createCount())
}

func TestClientsStoreAddValidatesInput(t *testing.T) {
	docs := newFakeDocs()
	s := store.NewClientsStore(&fakeAuth{}, docs, zap.NewNop())
	defer s.Close()

	require.Error(t, s.Add(context.Background(), store.ClientInput{Name: "", Phone: "11987654321"}))
	require.Error(t, s.Add(context.Background(), store.ClientInput{Name: "Maria", Phone: "  "}))
}

func TestClientsStoreWatchesAfterSignIn(t *testing.T) {
	docs := newFakeDocs()
	seedProfile(docs, "uid-1", "salon-1")
	authState := &fakeAuth{}

	s := store.NewClientsStore(authState, docs, zap.NewNop())
	defer s.Close()

	authState.setUser(&auth.User{UID: "uid-1"})

	require.Eventually(t, func() bool {
		return docs.lastSub() != nil
	}, waitFor, 10*time.Millisecond)

	docs.lastSub().push([]docstore.Document{
		{ID: "c2", Data: map[string]any{"name": "Zilda", "phone": "1133334444"}},
		{ID: "c1", Data: map[string]any{"name": "Ágata", "phone": "11987654321"}},
	})

	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		// sorted accent-insensitively, so Ágata comes first
		return len(snap) == 2 && snap[0].Name == "Ágata" && snap[1].Name == "Zilda"
	}, waitFor, 10*time.Millisecond)
}

func TestClientsStoreAddStampsScope(t *testing.T) {
	docs := newFakeDocs()
	seedProfile(docs, "uid-1", "salon-1")
	authState := &fakeAuth{}

	s := store.NewClientsStore(authState, docs, zap.NewNop())
	defer s.Close()

	authState.setUser(&auth.User{UID: "uid-1"})
	require.Eventually(t, func() bool { return docs.lastSub() != nil }, waitFor, 10*time.Millisecond)
	// the subscription being up means the salon is resolved
	require.Eventually(t, func() bool {
		if err := s.Add(context.Background(), store.ClientInput{Name: "Maria", Phone: "11987654321"}); err != nil {
			return false
		}
		return docs.createCount() > 0
	}, waitFor, 10*time.Millisecond)

	docs.mu.Lock()
	call := docs.creates[len(docs.creates)-1]
	docs.mu.Unlock()
	require.Equal(t, docstore.Clients, call.collection)
	require.Equal(t, "uid-1", call.data["userId"])
	require.Equal(t, "salon-1", call.data["salonId"])
	require.NotEmpty(t, call.data["createdAt"])
}

func TestClientsStoreSignOutClearsList(t *testing.T) {
	docs := newFakeDocs()
	seedProfile(docs, "uid-1", "salon-1")
	authState := &fakeAuth{}

	s := store.NewClientsStore(authState, docs, zap.NewNop())
	defer s.Close()

	authState.setUser(&auth.User{UID: "uid-1"})
	require.Eventually(t, func() bool { return docs.lastSub() != nil }, waitFor, 10*time.Millisecond)

	docs.lastSub().push([]docstore.Document{
		{ID: "c1", Data: map[string]any{"name": "Maria", "phone": "11987654321"}},
	})
	require.Eventually(t, func() bool { return len(s.Snapshot()) == 1 }, waitFor, 10*time.Millisecond)

	sub := docs.lastSub()
	authState.setUser(nil)

	require.Empty(t, s.Snapshot())
	require.True(t, sub.isClosed())
}

func TestClientsStoreUserSwitchReplacesSubscription(t *testing.T) {
	docs := newFakeDocs()
	seedProfile(docs, "uid-1", "salon-1")
	seedProfile(docs, "uid-2", "salon-2")
	authState := &fakeAuth{}

	s := store.NewClientsStore(authState, docs, zap.NewNop())
	defer s.Close()

	authState.setUser(&auth.User{UID: "uid-1"})
	require.Eventually(t, func() bool { return docs.subCount() == 1 }, waitFor, 10*time.Millisecond)
	first := docs.lastSub()

	authState.setUser(&auth.User{UID: "uid-2"})
	require.Eventually(t, func() bool { return docs.subCount() == 2 }, waitFor, 10*time.Millisecond)
	require.True(t, first.isClosed())
}

func TestClientsStoreFilter(t *testing.T) {
	docs := newFakeDocs()
	seedProfile(docs, "uid-1", "salon-1")
	authState := &fakeAuth{}

	s := store.NewClientsStore(authState, docs, zap.NewNop())
	defer s.Close()

	authState.setUser(&auth.User{UID: "uid-1"})
	require.Eventually(t, func() bool { return docs.lastSub() != nil }, waitFor, 10*time.Millisecond)

	docs.lastSub().push([]docstore.Document{
		{ID: "c1", Data: map[string]any{"name": "José Silva", "phone": "11987654321"}},
		{ID: "c2", Data: map[string]any{"name": "Maria", "phone": "1133334444"}},
	})
	require.Eventually(t, func() bool { return len(s.Snapshot()) == 2 }, waitFor, 10*time.Millisecond)

	byName := s.Filter("jose")
	require.Len(t, byName, 1)
	require.Equal(t, "José Silva", byName[0].Name)

	byPhone := s.Filter("3333")
	require.Len(t, byPhone, 1)
	require.Equal(t, "Maria", byPhone[0].Name)

	require.Len(t, s.Filter(""), 2)
}

func TestClientsStoreSubscribeNotifies(t *testing.T) {
	docs := newFakeDocs()
	seedProfile(docs, "uid-1", "salon-1")
	authState := &fakeAuth{}

	s := store.NewClientsStore(authState, docs, zap.NewNop())
	defer s.Close()

	notified := make(chan struct{}, 8)
	unsub := s.Subscribe(func() { notified <- struct{}{} })
	defer unsub()

	authState.setUser(&auth.User{UID: "uid-1"})
	require.Eventually(t, func() bool { return docs.lastSub() != nil }, waitFor, 10*time.Millisecond)
	docs.lastSub().push([]docstore.Document{
		{ID: "c1", Data: map[string]any{"name": "Maria", "phone": "11987654321"}},
	})

	select {
	case <-notified:
	case <-time.After(waitFor):
		t.Fatal("no change notification")
	}
}

func TestClientsStoreBatchAddPreservesCandidateIDs(t *testing.T) {
	docs := newFakeDocs()
	seedProfile(docs, "uid-1", "salon-1")
	authState := &fakeAuth{}

	s := store.NewClientsStore(authState, docs, zap.NewNop())
	defer s.Close()

	authState.setUser(&auth.User{UID: "uid-1"})
	require.Eventually(t, func() bool { return docs.lastSub() != nil }, waitFor, 10*time.Millisecond)

	cands := []contacts.Candidate{
		{ID: "local-1", Name: "Maria", Phone: "11987654321"},
		{ID: "local-2", Name: "Ana", Phone: "11900001111"},
	}
	require.Eventually(t, func() bool {
		if err := s.BatchAdd(context.Background(), cands); err != nil {
			return false
		}
		docs.mu.Lock()
		defer docs.mu.Unlock()
		return len(docs.batches) > 0
	}, waitFor, 10*time.Millisecond)

	docs.mu.Lock()
	batch := docs.batches[len(docs.batches)-1]
	docs.mu.Unlock()
	require.Equal(t, docstore.Clients, batch.collection)
	require.Len(t, batch.docs, 2)
	require.Equal(t, "local-1", batch.docs[0].ID)
	require.Equal(t, "salon-1", batch.docs[0].Data["salonId"])
}
