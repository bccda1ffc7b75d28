package models

import "time"

// PaymentInit is the response to POST /payments/initialize. The customer's
// browser is sent to AuthorizationURL; Reference identifies the capture for
// later verification.
type PaymentInit struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
	AccessCode       string `json:"access_code,omitempty"`
}

// Payment is the escrowed payment record as reported by the verify stream.
type Payment struct {
	Reference string    `json:"reference"`
	BookingID string    `json:"booking_id"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"` // e.g. "held_in_escrow", "failed"
	PaidAt    time.Time `json:"paid_at,omitempty"`
}

// VerifyResult is the terminal payload of a successful verification stream.
type VerifyResult struct {
	Booking *Booking `json:"booking"`
	Payment *Payment `json:"payment"`
}

// StreamEventType names the events carried by the payment verify stream.
type StreamEventType string

const (
	StreamEventProgress StreamEventType = "progress"
	StreamEventComplete StreamEventType = "complete"
	StreamEventError    StreamEventType = "error"
)

// StreamEvent is one decoded frame of the verify stream.
type StreamEvent struct {
	Type StreamEventType
	Data []byte
}

// StreamErrorPayload is the data of an "error" stream event.
type StreamErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
