package auth

import (
	"context"
	"sync"
)

type credentialService interface {
	SignIn(ctx context.Context, email, password string) (*User, error)
}

// Session owns the client-side authentication state: the current user and
// the listeners that follow sign-in/sign-out transitions. Stores hang off a
// Session, never off the provider directly.
type Session struct {
	svc credentialService

	mu        sync.Mutex
	current   *User
	listeners map[int]func(*User)
	nextID    int
}

func NewSession(svc credentialService) *Session {
	return &Session{svc: svc, listeners: map[int]func(*User){}}
}

func (s *Session) SignIn(ctx context.Context, email, password string) (*User, error) {
	u, err := s.svc.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.set(u)
	return copyUser(u), nil
}

func (s *Session) SignOut() {
	s.set(nil)
}

func (s *Session) CurrentUser() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyUser(s.current)
}

// OnAuthStateChanged registers fn, fires it immediately with the current
// state, and returns an idempotent unsubscribe func.
func (s *Session) OnAuthStateChanged(fn func(*User)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	current := copyUser(s.current)
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Session) set(u *User) {
	s.mu.Lock()
	s.current = u
	fns := make([]func(*User), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(copyUser(u))
	}
}

func copyUser(u *User) *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
