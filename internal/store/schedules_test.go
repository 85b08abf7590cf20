package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lebelle-app/agenda-api/internal/auth"
	"github.com/lebelle-app/agenda-api/internal/docstore"
	"github.com/lebelle-app/agenda-api/internal/store"
)

func validScheduleInput() store.ScheduleInput {
	return store.ScheduleInput{
		Date:       "2024-01-05",
		Title:      "Corte",
		ClientID:   "c1",
		ClientName: "Maria",
		ValueCents: 4550,
		Payment:    "Pix",
		StartTime:  "09:00",
	}
}

func TestScheduleInputValidate(t *testing.T) {
	in := validScheduleInput()
	require.NoError(t, in.Validate())

	missingClient := in
	missingClient.ClientID = " "
	require.ErrorIs(t, missingClient.Validate(), store.ErrMissingClient)

	missingTitle := in
	missingTitle.Title = ""
	require.ErrorIs(t, missingTitle.Validate(), store.ErrMissingTitle)

	shortStart := in
	shortStart.StartTime = "9:0"
	require.ErrorIs(t, shortStart.Validate(), store.ErrMissingStartTime)

	badPayment := in
	badPayment.Payment = "Cheque"
	require.ErrorIs(t, badPayment.Validate(), store.ErrBadPayment)

	noPayment := in
	noPayment.Payment = ""
	require.NoError(t, noPayment.Validate())
}

func TestScheduleInputValueConversion(t *testing.T) {
	in := store.ScheduleInput{ValueCents: 4550}
	require.InDelta(t, 45.50, in.Value(), 0.0001)

	zero := store.ScheduleInput{}
	require.Zero(t, zero.Value())
}

func TestSchedulesStoreAddWithoutScopeIsNoOp(t *testing.T) {
	docs := newFakeDocs()
	s := store.NewSchedulesStore(&fakeAuth{}, docs, zap.NewNop())
	defer s.Close()

	require.NoError(t, s.Add(context.Background(), validScheduleInput()))
	require.Zero(t, docs.createCount())
}

func TestSchedulesStoreAddStampsScopeAndValue(t *testing.T) {
	docs := newFakeDocs()
	seedProfile(docs, "uid-1", "salon-1")
	authState := &fakeAuth{}

	s := store.NewSchedulesStore(authState, docs, zap.NewNop())
	defer s.Close()

	authState.setUser(&auth.User{UID: "uid-1"})
	require.Eventually(t, func() bool { return docs.lastSub() != nil }, waitFor, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		if err := s.Add(context.Background(), validScheduleInput()); err != nil {
			return false
		}
		return docs.createCount() > 0
	}, waitFor, 10*time.Millisecond)

	docs.mu.Lock()
	call := docs.creates[len(docs.creates)-1]
	docs.mu.Unlock()
	require.Equal(t, docstore.Schedules, call.collection)
	require.Equal(t, "salon-1", call.data["salonId"])
	require.InDelta(t, 45.50, call.data["value"].(float64), 0.0001)
	require.Equal(t, "Pix", call.data["payment"])
	// no end time entered, so none stored
	require.NotContains(t, call.data, "endTime")
}

func TestSchedulesStoreSnapshotFollowsSubscription(t *testing.T) {
	docs := newFakeDocs()
	seedProfile(docs, "uid-1", "salon-1")
	authState := &fakeAuth{}

	s := store.NewSchedulesStore(authState, docs, zap.NewNop())
	defer s.Close()

	authState.setUser(&auth.User{UID: "uid-1"})
	require.Eventually(t, func() bool { return docs.lastSub() != nil }, waitFor, 10*time.Millisecond)

	docs.lastSub().push([]docstore.Document{
		{ID: "s1", Data: map[string]any{
			"date": "2024-01-05", "title": "Corte", "clientName": "Maria",
			"value": 45.5, "startTime": "09:00",
		}},
	})

	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return len(snap) == 1 && snap[0].Title == "Corte" && snap[0].Value == 45.5
	}, waitFor, 10*time.Millisecond)
}

func TestSchedulesStoreSignOutClearsList(t *testing.T) {
	docs := newFakeDocs()
	seedProfile(docs, "uid-1", "salon-1")
	authState := &fakeAuth{}

	s := store.NewSchedulesStore(authState, docs, zap.NewNop())
	defer s.Close()

	authState.setUser(&auth.User{UID: "uid-1"})
	require.Eventually(t, func() bool { return docs.lastSub() != nil }, waitFor, 10*time.Millisecond)
	docs.lastSub().push([]docstore.Document{
		{ID: "s1", Data: map[string]any{"date": "2024-01-05", "startTime": "09:00"}},
	})
	require.Eventually(t, func() bool { return len(s.Snapshot()) == 1 }, waitFor, 10*time.Millisecond)

	sub := docs.lastSub()
	authState.setUser(nil)
	require.Empty(t, s.Snapshot())
	require.True(t, sub.isClosed())
}
