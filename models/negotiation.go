package models

import "time"

// Party identifies who authored a negotiation round.
type Party string

const (
	PartyCustomer Party = "customer"
	PartyArtisan  Party = "artisan"
)

// NegotiationRound is one proposed price with an optional message.
type NegotiationRound struct {
	ProposedBy     Party     `json:"proposed_by"`
	ProposedAmount float64   `json:"proposed_amount"`
	Message        string    `json:"message,omitempty"`
	ProposedAt     time.Time `json:"proposed_at"`
}

// Negotiation is the negotiation history of a booking, strictly chronological.
// Only the last round is ever actionable.
type Negotiation struct {
	Rounds []NegotiationRound `json:"rounds"`
}

// Latest returns the most recent round, or nil if none exist.
func (n *Negotiation) Latest() *NegotiationRound {
	if n == nil || len(n.Rounds) == 0 {
		return nil
	}
	return &n.Rounds[len(n.Rounds)-1]
}

// CounterOfferRequest is the body of POST /bookings/:id/counter-offer.
type CounterOfferRequest struct {
	CounterPrice float64 `json:"counterPrice"`
	Message      string  `json:"message,omitempty"`
}
