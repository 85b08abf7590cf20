package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lebelle-app/agenda-api/internal/auth"
	"github.com/lebelle-app/agenda-api/internal/contacts"
	"github.com/lebelle-app/agenda-api/internal/docstore"
	"github.com/lebelle-app/agenda-api/internal/search"
)

// ClientsStore is the live client list for the signed-in professional's
// salon, ordered by name (case- and accent-insensitive).
type ClientsStore struct {
	docs   DocStore
	logger *zap.Logger

	mu        sync.Mutex
	clients   []Client
	user      *auth.User
	salonID   string
	sub       docstore.Subscription
	gen       int
	listeners map[int]func()
	nextID    int

	unsubAuth func()
}

func NewClientsStore(authState AuthState, docs DocStore, logger *zap.Logger) *ClientsStore {
	s := &ClientsStore{docs: docs, logger: logger, listeners: map[int]func(){}}
	s.unsubAuth = authState.OnAuthStateChanged(s.onAuthChange)
	return s
}

// Close detaches from auth state and tears the subscription down.
func (s *ClientsStore) Close() {
	s.unsubAuth()
	s.mu.Lock()
	s.stopWatchLocked()
	s.mu.Unlock()
}

// Snapshot returns the current list. Callers own the returned slice.
func (s *ClientsStore) Snapshot() []Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Client, len(s.clients))
	copy(out, s.clients)
	return out
}

// Subscribe registers a change listener and returns its unsubscribe func.
func (s *ClientsStore) Subscribe(fn func()) func() {
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

// Filter applies the search-box matching over the current snapshot.
func (s *ClientsStore) Filter(query string) []Client {
	all := s.Snapshot()
	out := make([]Client, 0, len(all))
	for _, c := range all {
		if search.Matches(query, c.Name, c.Phone) {
			out = append(out, c)
		}
	}
	return out
}

// Add registers a client. Without an authenticated user and resolved salon
// this is a logged no-op: never write records that belong to nobody. The
// live subscription, not this call, updates the local list.
func (s *ClientsStore) Add(ctx context.Context, in ClientInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	user, salonID := s.user, s.salonID
	s.mu.Unlock()
	if user == nil || salonID == "" {
		s.logger.Warn("client add skipped: no authenticated salon scope")
		return nil
	}

	_, err := s.docs.Create(ctx, docstore.Clients, clientData(in, user.UID, salonID))
	return err
}

// Update patches the given fields remotely.
func (s *ClientsStore) Update(ctx context.Context, id string, patch map[string]any) error {
	return s.docs.Update(ctx, docstore.Clients, id, patch)
}

// Remove deletes the client remotely.
func (s *ClientsStore) Remove(ctx context.Context, id string) error {
	return s.docs.Delete(ctx, docstore.Clients, id)
}

// ExistingPhones implements contacts.ClientDirectory over the snapshot.
func (s *ClientsStore) ExistingPhones(_ context.Context) (map[string]struct{}, error) {
	phones := make(map[string]struct{})
	for _, c := range s.Snapshot() {
		phones[search.OnlyDigits(c.Phone)] = struct{}{}
	}
	return phones, nil
}

// AddClient implements contacts.ClientDirectory with the same scope guard
// as Add.
func (s *ClientsStore) AddClient(ctx context.Context, c contacts.Candidate) error {
	return s.Add(ctx, ClientInput{Name: c.Name, Phone: c.Phone})
}

// BatchAdd implements contacts.BatchAdder: one remote round trip for the
// whole import, candidate ids preserved.
func (s *ClientsStore) BatchAdd(ctx context.Context, cs []contacts.Candidate) error {
	s.mu.Lock()
	user, salonID := s.user, s.salonID
	s.mu.Unlock()
	if user == nil || salonID == "" {
		s.logger.Warn("client import skipped: no authenticated salon scope")
		return nil
	}

	docs := make([]docstore.Document, 0, len(cs))
	for _, c := range cs {
		docs = append(docs, docstore.Document{
			ID:   c.ID,
			Data: clientData(ClientInput{Name: c.Name, Phone: c.Phone}, user.UID, salonID),
		})
	}
	return s.docs.BatchCreate(ctx, docstore.Clients, docs)
}

func clientData(in ClientInput, uid, salonID string) map[string]any {
	data := map[string]any{
		"name":      in.Name,
		"phone":     in.Phone,
		"userId":    uid,
		"salonId":   salonID,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	}
	if in.Address != "" {
		data["address"] = in.Address
	}
	return data
}

func (s *ClientsStore) onAuthChange(u *auth.User) {
	s.mu.Lock()
	s.stopWatchLocked()
	s.user = u
	s.salonID = ""
	s.clients = nil
	gen := s.gen
	s.mu.Unlock()
	s.notify()

	if u == nil {
		return
	}
	go s.openWatch(gen, u.UID)
}

// openWatch runs the two-step tenant resolution: read the user profile for
// its salon id, then subscribe to that salon's clients. gen guards against
// the user having changed again while either step was in flight.
func (s *ClientsStore) openWatch(gen int, uid string) {
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

	sub, err := s.docs.Watch(ctx, docstore.Clients, docstore.Where("salonId", salonID))
	if err != nil {
		s.logger.Warn("clients watch failed", zap.String("salon_id", salonID), zap.Error(err))
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
		list := make([]Client, 0, len(docs))
		for _, d := range docs {
			list = append(list, ClientFromDocument(d))
		}
		sort.Slice(list, func(i, j int) bool {
			return search.Normalize(list[i].Name) < search.Normalize(list[j].Name)
		})

		s.mu.Lock()
		if gen != s.gen {
			s.mu.Unlock()
			return
		}
		s.clients = list
		s.mu.Unlock()
		s.notify()
	}
}

func (s *ClientsStore) stopWatchLocked() {
	if s.sub != nil {
		s.sub.Unsubscribe()
		s.sub = nil
	}
	s.gen++
}

func (s *ClientsStore) notify() {
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

// resolveSalonID reads the signed-in user's profile document for its salon.
func resolveSalonID(ctx context.Context, docs DocStore, uid string) (string, error) {
	profile, err := docs.Get(ctx, docstore.Users, uid)
	if err != nil {
		return "", err
	}
	salonID, _ := profile.Data["salonId"].(string)
	return salonID, nil
}
