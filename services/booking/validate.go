package booking

import (
	"regexp"
	"strings"
	"time"

	"craftlink/models"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9\s-]{6,17}$`)

// validateDraft checks the fields a booking cannot be created without.
// Failures never reach the server.
func validateDraft(draft *models.BookingDraft) error {
	if draft == nil {
		return newValidationError("draft", "no draft provided")
	}
	if strings.TrimSpace(draft.Description) == "" {
		return newValidationError("description", "describe the job before booking")
	}
	if draft.ArtisanID == "" {
		return newValidationError("artisanId", "no artisan selected")
	}
	if _, err := time.Parse("2006-01-02", draft.ScheduledDate); err != nil {
		return newValidationError("scheduledDate", "date must be YYYY-MM-DD")
	}
	if _, err := time.Parse("15:04", draft.ScheduledTime); err != nil {
		return newValidationError("scheduledTime", "time must be HH:MM")
	}
	if !phonePattern.MatchString(strings.TrimSpace(draft.Phone)) {
		return newValidationError("phone", "enter a valid phone number")
	}
	if len(draft.Attachments) > models.MaxDraftAttachments {
		return newValidationError("attachments", "too many attachments")
	}
	return nil
}
