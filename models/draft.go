package models

import "time"

// MaxDraftAttachments bounds how many media files may be attached to one booking.
const MaxDraftAttachments = 5

// AttachmentType classifies a staged media file.
type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentVideo AttachmentType = "video"
)

// DraftAttachment is a locally staged media file. It has no server identity
// until the upload that precedes booking creation.
type DraftAttachment struct {
	LocalPath string         `json:"local_path"`
	Type      AttachmentType `json:"type"`
	PublicID  string         `json:"public_id,omitempty"` // set after upload
	URL       string         `json:"url,omitempty"`       // set after upload
}

// BookingDraft is the transient local draft of a booking. It is the only
// client-side state that outlives a request, cached with a TTL until the
// booking is submitted.
type BookingDraft struct {
	DraftID       string            `json:"draft_id"`
	ArtisanID     string            `json:"artisan_id"`
	Service       *ServiceOffering  `json:"service,omitempty"`
	Description   string            `json:"description"`
	ScheduledDate string            `json:"scheduled_date"`
	ScheduledTime string            `json:"scheduled_time"`
	Phone         string            `json:"phone"`
	Address       string            `json:"address"`
	Urgency       Urgency           `json:"urgency"`
	Attachments   []DraftAttachment `json:"attachments,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// CreateBookingRequest is the body of POST /bookings.
type CreateBookingRequest struct {
	ArtisanID      string   `json:"artisan_id"`
	ServiceID      string   `json:"service_id"`
	Description    string   `json:"description"`
	ScheduledDate  string   `json:"scheduled_date"`
	ScheduledTime  string   `json:"scheduled_time"`
	Phone          string   `json:"phone"`
	Address        string   `json:"address"`
	Urgency        Urgency  `json:"urgency"`
	EstimatedPrice float64  `json:"estimated_price"`
	Attachments    []string `json:"attachments,omitempty"`
	IdempotencyKey string   `json:"idempotency_key,omitempty"`
}
