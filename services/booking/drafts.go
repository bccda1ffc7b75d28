package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"craftlink/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// draftTTL is how long an unsubmitted draft survives in the cache.
const draftTTL = 30 * time.Minute

// DraftStore keeps transient booking drafts in Redis so an interrupted
// client can resume one. Authoritative booking state is never cached here;
// a draft is deleted the moment its booking is submitted.
type DraftStore struct {
	Cache *redis.Client
}

// NewDraft creates an empty draft with a fresh id.
func (s *DraftStore) NewDraft(artisanID string) *models.BookingDraft {
	return &models.BookingDraft{
		DraftID:   uuid.New().String(),
		ArtisanID: artisanID,
		Urgency:   models.UrgencyNormal,
		CreatedAt: time.Now(),
	}
}

// Save stores the draft under its id with a TTL.
func (s *DraftStore) Save(ctx context.Context, draft *models.BookingDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal booking draft: %w", err)
	}
	if err := s.Cache.Set(ctx, draftKey(draft.DraftID), data, draftTTL).Err(); err != nil {
		return fmt.Errorf("failed to store booking draft: %w", err)
	}
	return nil
}

// Get retrieves a draft by id.
func (s *DraftStore) Get(ctx context.Context, draftID string) (*models.BookingDraft, error) {
	data, err := s.Cache.Get(ctx, draftKey(draftID)).Result()
	if err != nil {
		return nil, fmt.Errorf("booking draft not found or expired: %w", err)
	}
	var draft models.BookingDraft
	if err := json.Unmarshal([]byte(data), &draft); err != nil {
		return nil, fmt.Errorf("failed to parse booking draft: %w", err)
	}
	return &draft, nil
}

// Delete removes a draft, typically right after successful submission.
func (s *DraftStore) Delete(ctx context.Context, draftID string) error {
	if err := s.Cache.Del(ctx, draftKey(draftID)).Err(); err != nil {
		return fmt.Errorf("failed to delete booking draft: %w", err)
	}
	return nil
}

func draftKey(draftID string) string {
	return "draft:" + draftID
}
