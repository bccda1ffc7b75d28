package models

// ReminderPayload is the task payload for a scheduled booking reminder.
type ReminderPayload struct {
	BookingID     string `json:"bookingId"`
	ArtisanID     string `json:"artisanId"`
	ScheduledDate string `json:"scheduledDate"`
	ScheduledTime string `json:"scheduledTime"`
	Title         string `json:"title"`
	Body          string `json:"body"`
}
