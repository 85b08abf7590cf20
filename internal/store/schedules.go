package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lebelle-app/agenda-api/internal/auth"
	"github.com/lebelle-app/agenda-api/internal/docstore"
)

// SchedulesStore is the live appointment list for the signed-in
// professional's salon. Same shape as ClientsStore; day filtering and
// per-day counts are derived by the agenda package, not server-side.
type SchedulesStore struct {
	docs   DocStore
	logger *zap.Logger

	mu        sync.Mutex
	schedules []Schedule
	user      *auth.User
	salonID   string
	sub       docstore.Subscription
	gen       int
	listeners map[int]func()
	nextID    int

	unsubAuth func()
}

func NewSchedulesStore(authState AuthState, docs DocStore, logger *zap.Logger) *SchedulesStore {
	s := &SchedulesStore{docs: docs, logger: logger, listeners: map[int]func(){}}
	s.unsubAuth = authState.OnAuthStateChanged(s.onAuthChange)
	return s
}

func (s *SchedulesStore) Close() {
	s.unsubAuth()
	s.mu.Lock()
	s.stopWatchLocked()
	s.mu.Unlock()
}

func (s *SchedulesStore) Snapshot() []Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Schedule, len(s.schedules))
	copy(out, s.schedules)
	return out
}

func (s *SchedulesStore) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Add books an appointment. The same no-scope guard as ClientsStore.Add
// applies; validation runs before any remote call.
func (s *SchedulesStore) Add(ctx context.Context, in ScheduleInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	user, salonID := s.user, s.salonID
	s.mu.Unlock()
	if user == nil || salonID == "" {
		s.logger.Warn("schedule add skipped: no authenticated salon scope")
		return nil
	}

	_, err := s.docs.Create(ctx, docstore.Schedules, scheduleData(in, user.UID, salonID))
	return err
}

func (s *SchedulesStore) Update(ctx context.Context, id string, patch map[string]any) error {
	return s.docs.Update(ctx, docstore.Schedules, id, patch)
}

// Remove cancels an appointment.
func (s *SchedulesStore) Remove(ctx context.Context, id string) error {
	return s.docs.Delete(ctx, docstore.Schedules, id)
}

func scheduleData(in ScheduleInput, uid, salonID string) map[string]any {
	data := map[string]any{
		"date":       in.Date,
		"title":      in.Title,
		"clientId":   in.ClientID,
		"clientName": in.ClientName,
		"value":      in.Value(),
		"startTime":  in.StartTime,
		"userId":     uid,
		"salonId":    salonID,
		"createdAt":  time.Now().UTC().Format(time.RFC3339),
	}
	if in.Payment != "" {
		data["payment"] = in.Payment
	}
	if len(in.EndTime) >= 4 {
		data["endTime"] = in.EndTime
	}
	return data
}

func (s *SchedulesStore) onAuthChange(u *auth.User) {
	s.mu.Lock()
	s.stopWatchLocked()
	s.user = u
	s.salonID = ""
	s.schedules = nil
	gen := s.gen
	s.mu.Unlock()
	s.notify()

	if u == nil {
		return
	}
	go s.openWatch(gen, u.UID)
}

func (s *SchedulesStore) openWatch(gen int, uid string) {
	ctx := context.Background()

	salonID, err := resolveSalonID(ctx, s.docs, uid)
	if err != nil {
		s.logger.Warn("salon lookup failed", zap.String("uid", uid), zap.Error(err))
		return
	}
	if salonID == "" {
		s.logger.Warn("user has no salon", zap.String("uid", uid))
		return
	}

	sub, err := s.docs.Watch(ctx, docstore.Schedules, docstore.Where("salonId", salonID))
	if err != nil {
		s.logger.Warn("schedules watch failed", zap.String("salon_id", salonID), zap.Error(err))
		return
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	s.sub = sub
	s.salonID = salonID
	s.mu.Unlock()

	for docs := range sub.Snapshots() {
		list := make([]Schedule, 0, len(docs))
		for _, d := range docs {
			list = append(list, ScheduleFromDocument(d))
		}

		s.mu.Lock()
		if gen != s.gen {
			s.mu.Unlock()
			return
		}
		s.schedules = list
		s.mu.Unlock()
		s.notify()
	}
}

func (s *SchedulesStore) stopWatchLocked() {
	if s.sub != nil {
		s.sub.Unsubscribe()
		s.sub = nil
	}
	s.gen++
}

func (s *SchedulesStore) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
