// model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventReservationCreated   EventType = "reservation.created"
	EventReservationConfirmed EventType = "reservation.confirmed"
	EventReservationRejected  EventType = "reservation.rejected"
	EventReservationCancelled EventType = "reservation.cancelled"
	EventReservationDeleted   EventType = "reservation.deleted"
)

type Initiator struct {
	SubjectID string `json:"subject_id"`
	Role      Role   `json:"role"`
}

// ReservationEvent is the outbox payload written in the same tx as the change.
type ReservationEvent struct {
	ID          uuid.UUID   `json:"id"`
	Type        EventType   `json:"type"`
	Reservation Reservation `json:"reservation"`
	Initiator   Initiator   `json:"initiator"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

type OutboxStatus string

const (
	OutboxPending    OutboxStatus = "PENDING"
	OutboxProcessing OutboxStatus = "PROCESSING" // claimed by a relay until claimed_at + lease
	OutboxSent       OutboxStatus = "SENT"
	OutboxFailed     OutboxStatus = "FAILED"
)

func NewReservationEvent(t EventType, r Reservation, by Identity, at time.Time) ReservationEvent {
	return ReservationEvent{
		ID:          uuid.New(),
		Type:        t,
		Reservation: r,
		Initiator:   Initiator{SubjectID: by.SubjectID, Role: by.Role},
		OccurredAt:  at.UTC(),
	}
}
