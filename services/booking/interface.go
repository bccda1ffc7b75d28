package booking

import (
	"context"

	"craftlink/models"
	"craftlink/services/negotiation"
)

// StatusSource is the transport the controller reconciles against. The
// backend has no push channel for bookings, so the default source is the
// polled REST client; a push-based transport could be substituted here
// without touching the state machine.
type StatusSource interface {
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	GetNegotiation(ctx context.Context, id string) (*models.Negotiation, error)
}

// BookingAPI is the full server surface the lifecycle controller drives.
// The api.Client satisfies it.
type BookingAPI interface {
	StatusSource
	negotiation.NegotiationAPI
	CreateBooking(ctx context.Context, req models.CreateBookingRequest) (*models.BookingCreated, error)
	CancelBooking(ctx context.Context, id string) error
}

// AttachmentUploader uploads a draft's staged media ahead of submission.
// The attachment service satisfies it.
type AttachmentUploader interface {
	UploadAll(ctx context.Context, draft *models.BookingDraft) ([]string, error)
}
