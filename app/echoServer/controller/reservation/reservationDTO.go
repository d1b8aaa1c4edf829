package reservation

import "rentalbooking/model"

// CreateReservationReq represents a booking request.
// Field checks happen in the service, after the credential.
// swagger:model CreateReservationReq
type CreateReservationReq struct {
	ListingID string `json:"listing_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// UpdateStatusReq represents an owner/admin decision
// swagger:model UpdateStatusReq
type UpdateStatusReq struct {
	Status string  `json:"status"`
	Reason *string `json:"reason"`
}

// ReservationResp is the envelope for a single reservation.
type ReservationResp struct {
	Message string            `json:"message,omitempty"`
	Data    model.Reservation `json:"data"`
}

// ReservationListResp is the envelope for a page of reservations.
type ReservationListResp struct {
	Data model.ReservationList `json:"data"`
}

// ErrorResp is returned for every failed request.
type ErrorResp struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
	Errors  string `json:"errors,omitempty"`
}
