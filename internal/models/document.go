package models

import "time"

// Document is one schemaless record inside a named collection. The payload
// is stored as JSONB so equality filters can run server-side.
type Document struct {
	Collection string `gorm:"primaryKey;size:50" json:"collection"`
	DocID      string `gorm:"primaryKey;size:64" json:"doc_id"`

	Data string `gorm:"type:jsonb;not null" json:"data"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
