// model/reservation.go
package model

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
	StatusRejected  ReservationStatus = "rejected"
)

// ActiveStatuses are the statuses that occupy a listing's calendar.
var ActiveStatuses = []ReservationStatus{StatusPending, StatusConfirmed}

func ParseStatus(s string) (ReservationStatus, bool) {
	switch st := ReservationStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusRejected:
		return st, true
	}
	return "", false
}

func (s ReservationStatus) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s ReservationStatus) IsTerminal() bool {
	return s == StatusCancelled || s == StatusRejected
}

// CanTransition reports whether the state machine allows s -> to.
// Nothing ever re-enters pending.
func (s ReservationStatus) CanTransition(to ReservationStatus) bool {
	switch s {
	case StatusPending:
		return to == StatusConfirmed || to == StatusRejected || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCancelled
	default:
		return false
	}
}

type Reservation struct {
	ID              uuid.UUID         `json:"id"`
	ListingID       string            `json:"listing_id"`
	TenantID        string            `json:"tenant_id"`
	OwnerID         string            `json:"owner_id"` // snapshot at booking time
	StartDate       time.Time         `json:"start_date"`
	EndDate         time.Time         `json:"end_date"`
	Status          ReservationStatus `json:"status"`
	TotalPrice      float64           `json:"total_price"` // nights * price at creation, never recomputed
	RejectionReason *string           `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// IsParty reports whether subjectID is the tenant or the owner of r.
func (r *Reservation) IsParty(subjectID string) bool {
	return subjectID != "" && (subjectID == r.TenantID || subjectID == r.OwnerID)
}

const dateLayout = "2006-01-02"

// ParseDate accepts a calendar date (2006-01-02) or a full RFC3339 timestamp.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

func FormatDate(t time.Time) string { return t.UTC().Format(dateLayout) }

// Nights is the rounded day count between start and end.
func Nights(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Hours() / 24))
}

// StayPrice is nights * nightly rounded to cents, the precision the store keeps.
func StayPrice(nights int, nightly float64) float64 {
	return math.Round(float64(nights)*nightly*100) / 100
}

// Overlaps is the half-open range test [aStart,aEnd) x [bStart,bEnd).
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// Page is an offset window over a newest-first listing.
type Page struct {
	Limit  int `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int `query:"offset" validate:"omitempty,min=0"`
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

type ReservationList struct {
	Items  []Reservation `json:"items"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}
