// Package store holds the live client and schedule lists: each store
// follows auth-state changes, resolves the signed-in user's salon, keeps a
// subscription-fed snapshot of its collection, and writes through the
// document database only: local state changes exclusively when the
// subscription delivers a fresh snapshot.
package store

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/lebelle-app/agenda-api/internal/docstore"
)

// Client mirrors one document of the clients collection.
type Client struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address,omitempty"`
	UserID  string `json:"userId,omitempty"`
	SalonID string `json:"salonId,omitempty"`
}

// Schedule mirrors one document of the schedules collection. Value is the
// decimal amount; StartTime/EndTime are zero-padded HH:MM strings.
type Schedule struct {
	ID         string  `json:"id"`
	Date       string  `json:"date"`
	Title      string  `json:"title"`
	ClientID   string  `json:"clientId"`
	ClientName string  `json:"clientName"`
	Value      float64 `json:"value"`
	Payment    string  `json:"payment,omitempty"`
	StartTime  string  `json:"startTime"`
	EndTime    string  `json:"endTime,omitempty"`
	UserID     string  `json:"userId,omitempty"`
	SalonID    string  `json:"salonId,omitempty"`
}

// PaymentMethods is the fixed set offered by the scheduling form.
var PaymentMethods = []string{"Pix", "Dinheiro", "Cartão", "Transferência"}

func IsPaymentMethod(m string) bool {
	for _, pm := range PaymentMethods {
		if m == pm {
			return true
		}
	}
	return false
}

var (
	ErrMissingClient    = errors.New("store: schedule needs a client")
	ErrMissingTitle     = errors.New("store: schedule needs a title")
	ErrMissingStartTime = errors.New("store: schedule needs a start time")
	ErrBadPayment       = errors.New("store: unknown payment method")
)

// ClientInput is the client registration form.
type ClientInput struct {
	Name    string
	Phone   string
	Address string
}

func (in ClientInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("store: client needs a name")
	}
	if strings.TrimSpace(in.Phone) == "" {
		return errors.New("store: client needs a phone")
	}
	return nil
}

// ScheduleInput is the scheduling form. ValueCents carries the monetary
// value in currency subunits as entered; it becomes a decimal on save.
type ScheduleInput struct {
	Date       string
	Title      string
	ClientID   string
	ClientName string
	ValueCents int64
	Payment    string
	StartTime  string
	EndTime    string
}

func (in ScheduleInput) Validate() error {
	if strings.TrimSpace(in.ClientID) == "" {
		return ErrMissingClient
	}
	if strings.TrimSpace(in.Title) == "" {
		return ErrMissingTitle
	}
	if len(strings.TrimSpace(in.StartTime)) < 4 {
		return ErrMissingStartTime
	}
	if in.Payment != "" && !IsPaymentMethod(in.Payment) {
		return ErrBadPayment
	}
	// EndTime is not checked against StartTime; overnight entries save as-is.
	return nil
}

// Value converts the entered subunits to the stored decimal amount.
func (in ScheduleInput) Value() float64 {
	return float64(in.ValueCents) / 100
}

// ClientFromDocument decodes a clients-collection document.
func ClientFromDocument(d docstore.Document) Client {
	var c Client
	fromDocument(d, &c)
	c.ID = d.ID
	return c
}

// ScheduleFromDocument decodes a schedules-collection document.
func ScheduleFromDocument(d docstore.Document) Schedule {
	var s Schedule
	fromDocument(d, &s)
	s.ID = d.ID
	return s
}

func fromDocument(d docstore.Document, out any) {
	// documents are schemaless; a json round trip tolerates missing and
	// extra fields alike
	raw, err := json.Marshal(d.Data)
	if err != nil {
		return
	}
	_ = json.Unmarshal(raw, out)
}
