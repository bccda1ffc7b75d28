package models

import "time"

// BookingStatus is the server-assigned lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusDraft           BookingStatus = "draft"
	BookingStatusPending         BookingStatus = "pending"
	BookingStatusNegotiating     BookingStatus = "negotiating"
	BookingStatusAccepted        BookingStatus = "accepted"
	BookingStatusDeclined        BookingStatus = "declined"
	BookingStatusExpired         BookingStatus = "expired"
	BookingStatusConfirmed       BookingStatus = "confirmed"
	BookingStatusInProgress      BookingStatus = "in_progress"
	BookingStatusCompleted       BookingStatus = "completed"
	BookingStatusPaymentReleased BookingStatus = "payment_released"
	BookingStatusCancelled       BookingStatus = "cancelled"
)

// IsTerminal reports whether no further automatic transition can occur.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingStatusDeclined, BookingStatusExpired, BookingStatusCancelled, BookingStatusPaymentReleased:
		return true
	}
	return false
}

// AcceptanceResolved reports whether the acceptance window has been decided,
// one way or the other. Polling during the window stops at these states.
func (s BookingStatus) AcceptanceResolved() bool {
	switch s {
	case BookingStatusAccepted, BookingStatusDeclined, BookingStatusCancelled, BookingStatusExpired:
		return true
	}
	return false
}

// DeclineReason distinguishes how a booking ended up declined. The backend
// reports a single "declined" status for both; the client keeps the local
// distinction so the UI can tell an immediate refusal from a failed negotiation.
type DeclineReason string

const (
	DeclineReasonNone        DeclineReason = ""
	DeclineReasonImmediate   DeclineReason = "immediate"
	DeclineReasonNegotiation DeclineReason = "negotiation_rejected"
)

// Booking is the server's booking record as returned by GET /bookings/:id.
type Booking struct {
	ID             string        `json:"id"`
	ArtisanID      string        `json:"artisan_id"`
	CustomerID     string        `json:"customer_id"`
	ServiceID      string        `json:"service_id"`
	Description    string        `json:"description"`
	Status         BookingStatus `json:"status"`
	ScheduledDate  string        `json:"scheduled_date"` // "YYYY-MM-DD", immutable after creation
	ScheduledTime  string        `json:"scheduled_time"` // "HH:MM", immutable after creation
	EstimatedPrice float64       `json:"estimated_price"`
	AgreedPrice    float64       `json:"agreed_price,omitempty"`
	FinalPrice     float64       `json:"final_price,omitempty"` // set on completion, may include materials
	Negotiation    *Negotiation  `json:"negotiation,omitempty"`
	Attachments    []string      `json:"attachments,omitempty"` // uploaded media URLs
	ExpiresAt      time.Time     `json:"expires_at"`            // end of the acceptance window
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// BookingCreated is the response to POST /bookings.
type BookingCreated struct {
	ID        string        `json:"id"`
	Status    BookingStatus `json:"status"`
	ExpiresAt time.Time     `json:"expires_at"`
}
