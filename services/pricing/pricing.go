package pricing

import (
	"math"

	"craftlink/models"
)

// PlatformFeeRate is the marketplace commission applied to every quote.
const PlatformFeeRate = 0.05

// Urgency multipliers applied to the base amount.
const (
	normalMultiplier    = 1.0
	urgentMultiplier    = 1.3
	emergencyMultiplier = 1.5
)

// BaseAmount resolves the pre-urgency base amount for a service offering.
// Unknown or missing pricing models yield 0.
func BaseAmount(svc *models.ServiceOffering) float64 {
	if svc == nil {
		return 0
	}
	switch svc.PricingModel {
	case models.PricingSimpleFixed:
		return svc.FixedPrice
	case models.PricingInspectionRequired:
		return svc.InspectionFee
	case models.PricingHourly:
		return svc.HourlyRate
	case models.PricingRange:
		return svc.RangeMin
	default:
		return 0
	}
}

// UrgencyMultiplier returns the price multiplier for an urgency level.
// Unknown levels are treated as normal.
func UrgencyMultiplier(u models.Urgency) float64 {
	switch u {
	case models.UrgencyUrgent:
		return urgentMultiplier
	case models.UrgencyEmergency:
		return emergencyMultiplier
	default:
		return normalMultiplier
	}
}

// Quote computes the full price quote for a service at the given urgency.
// It is pure: no side effects, identical inputs always yield identical
// output. A nil offering produces an all-zero quote.
func Quote(svc *models.ServiceOffering, urgency models.Urgency) models.PriceQuote {
	base := BaseAmount(svc) * UrgencyMultiplier(urgency)
	fee := math.Round(base * PlatformFeeRate)
	return models.PriceQuote{
		BasePrice:   base,
		PlatformFee: fee,
		Total:       math.Round(base) + fee,
	}
}
