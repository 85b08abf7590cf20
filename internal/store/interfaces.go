package store

import (
	"context"

	"github.com/lebelle-app/agenda-api/internal/auth"
	"github.com/lebelle-app/agenda-api/internal/docstore"
)

// AuthState is the slice of the auth session the stores observe.
type AuthState interface {
	CurrentUser() *auth.User
	OnAuthStateChanged(fn func(*auth.User)) func()
}

// DocStore is the slice of the document database the stores use. Satisfied
// by *docstore.Store; tests substitute fakes.
type DocStore interface {
	Get(ctx context.Context, collection, id string) (*docstore.Document, error)
	Create(ctx context.Context, collection string, data map[string]any) (string, error)
	Update(ctx context.Context, collection, id string, patch map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	BatchCreate(ctx context.Context, collection string, docs []docstore.Document) error
	Watch(ctx context.Context, collection string, filters ...docstore.Filter) (docstore.Subscription, error)
}
