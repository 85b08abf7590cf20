package store_test

import (
	"context"
	"sync"

	"github.com/lebelle-app/agenda-api/internal/auth"
	"github.com/lebelle-app/agenda-api/internal/docstore"
)

// fakeAuth drives auth-state transitions by hand.
type fakeAuth struct {
	mu        sync.Mutex
	current   *auth.User
	listeners []func(*auth.User)
}

func (f *fakeAuth) CurrentUser() *auth.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeAuth) OnAuthStateChanged(fn func(*auth.User)) func() {
	f.mu.Lock()
	f.listeners = append(f.listeners, fn)
	current := f.current
	f.mu.Unlock()
	fn(current)
	return func() {}
}

func (f *fakeAuth) setUser(u *auth.User) {
	f.mu.Lock()
	f.current = u
	fns := append([]func(*auth.User){}, f.listeners...)
	f.mu.Unlock()
	for _, fn := range fns {
		fn(u)
	}
}

// fakeSub delivers snapshots the test pushes.
type fakeSub struct {
	out    chan []docstore.Document
	once   sync.Once
	closed chan struct{}
}

func newFakeSub() *fakeSub {
	return &fakeSub{out: make(chan []docstore.Document, 8), closed: make(chan struct{})}
}

func (s *fakeSub) Snapshots() <-chan []docstore.Document { return s.out }

func (s *fakeSub) Unsubscribe() {
	s.once.Do(func() {
		close(s.closed)
		close(s.out)
	})
}

func (s *fakeSub) push(docs []docstore.Document) {
	select {
	case <-s.closed:
	case s.out <- docs:
	}
}

func (s *fakeSub) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// fakeDocs is an in-memory DocStore recording writes and handing out
// fakeSubs per watched collection.
type fakeDocs struct {
	mu      sync.Mutex
	docs    map[string]map[string]*docstore.Document
	creates []createCall
	batches []batchCall
	subs    []*fakeSub
}

type createCall struct {
	collection string
	data       map[string]any
}

type batchCall struct {
	collection string
	docs       []docstore.Document
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{docs: map[string]map[string]*docstore.Document{}}
}

func (f *fakeDocs) seed(collection, id string, data map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.docs[collection] == nil {
		f.docs[collection] = map[string]*docstore.Document{}
	}
	f.docs[collection][id] = &docstore.Document{ID: id, Data: data}
}

func (f *fakeDocs) Get(_ context.Context, collection, id string) (*docstore.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.docs[collection][id]; ok {
		return d, nil
	}
	return nil, docstore.ErrNotFound
}

func (f *fakeDocs) Create(_ context.Context, collection string, data map[string]any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, createCall{collection: collection, data: data})
	return "generated-id", nil
}

func (f *fakeDocs) Update(context.Context, string, string, map[string]any) error { return nil }

func (f *fakeDocs) Delete(context.Context, string, string) error { return nil }

func (f *fakeDocs) BatchCreate(_ context.Context, collection string, docs []docstore.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, batchCall{collection: collection, docs: docs})
	return nil
}

func (f *fakeDocs) Watch(_ context.Context, _ string, _ ...docstore.Filter) (docstore.Subscription, error) {
	sub := newFakeSub()
	f.mu.Lock()
	f.subs = append(f.subs, sub)
	f.mu.Unlock()
	return sub, nil
}

func (f *fakeDocs) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates)
}

func (f *fakeDocs) lastSub() *fakeSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.subs) == 0 {
		return nil
	}
	return f.subs[len(f.subs)-1]
}

func (f *fakeDocs) subCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
