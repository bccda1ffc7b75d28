package models

// PricingModel describes how a service offering is priced.
type PricingModel string

const (
	PricingSimpleFixed        PricingModel = "simple_fixed"
	PricingInspectionRequired PricingModel = "inspection_required"
	PricingHourly             PricingModel = "hourly"
	PricingRange              PricingModel = "range"
)

// Urgency is the customer-selected urgency level for a booking.
type Urgency string

const (
	UrgencyNormal    Urgency = "normal"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyEmergency Urgency = "emergency"
)

// ServiceOffering is one bookable service with its pricing configuration.
// Only the fields relevant to the selected PricingModel are populated.
type ServiceOffering struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	PricingModel  PricingModel `json:"pricing_model"`
	FixedPrice    float64      `json:"fixed_price,omitempty"`
	InspectionFee float64      `json:"inspection_fee,omitempty"`
	HourlyRate    float64      `json:"hourly_rate,omitempty"`
	RangeMin      float64      `json:"range_min,omitempty"`
	RangeMax      float64      `json:"range_max,omitempty"`
}

// PriceQuote is a locally derived quote. It is never persisted on its own;
// the total feeds a booking's EstimatedPrice at submission.
type PriceQuote struct {
	BasePrice   float64 `json:"base_price"`
	PlatformFee float64 `json:"platform_fee"`
	Total       float64 `json:"total"`
}
