// Package contacts imports device address-book entries as clients:
// flatten, normalize, dedupe, diff against the existing list, batch insert.
package contacts

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lebelle-app/agenda-api/internal/search"
)

var (
	ErrPermissionDenied = errors.New("contacts: permission denied")
	ErrNoContacts       = errors.New("contacts: address book is empty")
)

// minPhoneDigits is the shortest digit sequence treated as a real phone.
const minPhoneDigits = 8

// Contact is one raw address-book entry.
type Contact struct {
	Name         string
	PhoneNumbers []string
}

// AddressBook is the device contact source behind a runtime permission.
type AddressBook interface {
	RequestPermission(ctx context.Context) (bool, error)
	Read(ctx context.Context) ([]Contact, error)
}

// Candidate is a flattened, digit-normalized entry ready to insert.
type Candidate struct {
	ID    string
	Name  string
	Phone string
}

// ClientDirectory is the slice of the clients store the importer needs.
type ClientDirectory interface {
	// ExistingPhones returns the digit-only phones of all current clients.
	ExistingPhones(ctx context.Context) (map[string]struct{}, error)
	AddClient(ctx context.Context, c Candidate) error
}

// BatchAdder is optionally implemented by directories that support a single
// batched insert; the importer falls back to sequential AddClient calls.
type BatchAdder interface {
	BatchAdd(ctx context.Context, cs []Candidate) error
}

type Result struct {
	Imported int
}

type Importer struct {
	book    AddressBook
	clients ClientDirectory
	logger  *zap.Logger
}

func NewImporter(book AddressBook, clients ClientDirectory, logger *zap.Logger) *Importer {
	return &Importer{book: book, clients: clients, logger: logger}
}

// Run executes one import. A zero-count Result with a nil error means every
// candidate was already registered.
func (im *Importer) Run(ctx context.Context) (Result, error) {
	granted, err := im.book.RequestPermission(ctx)
	if err != nil {
		return Result{}, err
	}
	if !granted {
		return Result{}, ErrPermissionDenied
	}

	entries, err := im.book.Read(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(entries) == 0 {
		return Result{}, ErrNoContacts
	}

	candidates := Flatten(entries)

	existing, err := im.clients.ExistingPhones(ctx)
	if err != nil {
		return Result{}, err
	}

	toInsert := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := existing[c.Phone]; ok {
			continue
		}
		c.ID = NewLocalID()
		toInsert = append(toInsert, c)
	}
	if len(toInsert) == 0 {
		return Result{}, nil
	}

	if batch, ok := im.clients.(BatchAdder); ok {
		err = batch.BatchAdd(ctx, toInsert)
	} else {
		for _, c := range toInsert {
			if err = im.clients.AddClient(ctx, c); err != nil {
				break
			}
		}
	}
	if err != nil {
		return Result{}, err
	}

	im.logger.Info("contacts imported", zap.Int("count", len(toInsert)))
	return Result{Imported: len(toInsert)}, nil
}

// Flatten expands multi-number entries into one candidate per number, drops
// nameless entries and numbers shorter than eight digits, and dedupes by
// digit-only phone with the first occurrence winning.
func Flatten(entries []Contact) []Candidate {
	seen := make(map[string]struct{})
	var out []Candidate
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		for _, num := range e.PhoneNumbers {
			phone := search.OnlyDigits(num)
			if len(phone) < minPhoneDigits {
				continue
			}
			if _, dup := seen[phone]; dup {
				continue
			}
			seen[phone] = struct{}{}
			out = append(out, Candidate{Name: name, Phone: phone})
		}
	}
	return out
}

// NewLocalID generates a session-unique id (timestamp plus random suffix)
// used to correlate batch-insert results.
func NewLocalID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + "-" + uuid.NewString()[:8]
}
