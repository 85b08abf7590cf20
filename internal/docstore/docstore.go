// Package docstore is the client for the remote document database:
// schemaless documents in named collections, equality-filtered queries and
// live query subscriptions. Persistence is JSONB rows in postgres; change
// notification rides redis pub/sub so every writer wakes every watcher.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lebelle-app/agenda-api/internal/models"
)

// Collection names used by the application.
const (
	Clients   = "clients"
	Schedules = "schedules"
	Users     = "users"
	Salons    = "salons"
)

var ErrNotFound = errors.New("docstore: document not found")

// Document is a decoded record from a collection.
type Document struct {
	ID   string
	Data map[string]any
}

// Filter is an equality predicate on a top-level document field.
type Filter struct {
	Field string
	Value any
}

func Where(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

type Store struct {
	db     *gorm.DB
	rdb    *redis.Client
	logger *zap.Logger
}

func New(db *gorm.DB, rdb *redis.Client, logger *zap.Logger) *Store {
	return &Store{db: db, rdb: rdb, logger: logger}
}

// Create inserts a new document with a server-assigned id.
func (s *Store) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	if err := s.Put(ctx, collection, id, data, false); err != nil {
		return "", err
	}
	return id, nil
}

// Put writes a document under a caller-chosen id. With merge set, fields of
// an existing document not present in data are preserved.
func (s *Store) Put(ctx context.Context, collection, id string, data map[string]any, merge bool) error {
	if merge {
		existing, err := s.Get(ctx, collection, id)
		switch {
		case err == nil:
			merged := existing.Data
			for k, v := range data {
				merged[k] = v
			}
			data = merged
		case !errors.Is(err, ErrNotFound):
			return err
		}
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	row := models.Document{Collection: collection, DocID: id, Data: string(raw)}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return err
	}

	s.notify(ctx, collection)
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*Document, error) {
	var row models.Document
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(&row)
}

// Update merges patch into an existing document.
func (s *Store) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	existing, err := s.Get(ctx, collection, id)
	if err != nil {
		return err
	}
	for k, v := range patch {
		existing.Data[k] = v
	}
	return s.Put(ctx, collection, id, existing.Data, false)
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	res := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		Delete(&models.Document{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	s.notify(ctx, collection)
	return nil
}

// Query returns all documents of a collection matching every filter.
func (s *Store) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	q := s.db.WithContext(ctx).Where("collection = ?", collection)
	for _, f := range filters {
		q = q.Where("data ->> ? = ?", f.Field, fmt.Sprint(f.Value))
	}

	var rows []models.Document
	if err := q.Order("doc_id").Find(&rows).Error; err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(rows))
	for i := range rows {
		d, err := decode(&rows[i])
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, nil
}

// BatchCreate inserts documents in one round trip. Documents without an id
// get a server-assigned one. A single change notification covers the batch.
func (s *Store) BatchCreate(ctx context.Context, collection string, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	rows := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		id := d.ID
		if id == "" {
			id = uuid.NewString()
		}
		raw, err := json.Marshal(d.Data)
		if err != nil {
			return err
		}
		rows = append(rows, models.Document{Collection: collection, DocID: id, Data: string(raw)})
	}

	if err := s.db.WithContext(ctx).CreateInBatches(rows, 100).Error; err != nil {
		return err
	}

	s.notify(ctx, collection)
	return nil
}

func (s *Store) notify(ctx context.Context, collection string) {
	if err := s.rdb.Publish(ctx, channel(collection), "changed").Err(); err != nil {
		s.logger.Warn("change notify failed",
			zap.String("collection", collection),
			zap.Error(err),
		)
	}
}

func channel(collection string) string {
	return "docstore:" + collection
}

func decode(row *models.Document) (*Document, error) {
	data := map[string]any{}
	if err := json.Unmarshal([]byte(row.Data), &data); err != nil {
		return nil, fmt.Errorf("docstore: corrupt document %s/%s: %w", row.Collection, row.DocID, err)
	}
	return &Document{ID: row.DocID, Data: data}, nil
}
