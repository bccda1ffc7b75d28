package booking

import (
	"context"
	"time"

	"craftlink/models"
	"craftlink/services/negotiation"

	"go.uber.org/zap"
)

// acceptanceStop stops polling once the acceptance window is decided.
func acceptanceStop(s models.BookingStatus) bool {
	return s.AcceptanceResolved()
}

// trackingStop keeps polling through the job phases until a terminal state.
func trackingStop(s models.BookingStatus) bool {
	return s.IsTerminal()
}

// startPolling launches the authoritative status poll. Only one poll loop
// runs at a time.
func (c *Controller) startPolling(stop func(models.BookingStatus) bool) {
	c.mu.Lock()
	if c.polling {
		c.mu.Unlock()
		return
	}
	c.polling = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.runPolling(c.lifecycle, stop)
}

// ResumePolling restarts the acceptance-phase poll with a fresh attempt
// budget, e.g. when the UI regains focus after the cap self-terminated the
// previous loop.
func (c *Controller) ResumePolling() {
	c.startPolling(acceptanceStop)
}

// TrackProgress polls the post-acceptance job phases (confirmed,
// in_progress, completed) until the booking reaches a terminal state.
func (c *Controller) TrackProgress() {
	c.startPolling(trackingStop)
}

// runPolling fetches booking status on every tick, up to the attempt cap.
// Transient fetch errors are swallowed and retried on the next tick: only a
// successful response updates state. The loop self-terminates at the cap
// even if the booking is still pending; callers resume explicitly.
func (c *Controller) runPolling(ctx context.Context, stop func(models.BookingStatus) bool) {
	defer c.wg.Done()
	defer func() {
		c.mu.Lock()
		c.polling = false
		c.mu.Unlock()
	}()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			attempts++
			if done := c.pollOnce(ctx, stop); done {
				return
			}
			if attempts >= c.pollMaxAttempts {
				c.logger.Info("polling attempt cap reached, self-terminating",
					zap.String("bookingId", c.BookingID()),
					zap.Int("attempts", attempts))
				return
			}
		}
	}
}

// pollOnce performs one status fetch and reconciliation. It reports whether
// polling should stop.
func (c *Controller) pollOnce(ctx context.Context, stop func(models.BookingStatus) bool) bool {
	fetchCtx, cancel := context.WithTimeout(ctx, c.pollInterval)
	defer cancel()

	id := c.BookingID()
	booking, err := c.api.GetBooking(fetchCtx, id)
	if err != nil {
		// Transient poll errors are swallowed; next tick retries.
		c.logger.Debug("status poll failed", zap.String("bookingId", id), zap.Error(err))
		return false
	}

	c.applyServerState(booking)

	if booking.Status == models.BookingStatusNegotiating {
		c.syncNegotiation(fetchCtx, id)
	}

	if stop(booking.Status) {
		c.logger.Info("polling stopped at settled status",
			zap.String("bookingId", id),
			zap.String("status", string(booking.Status)))
		return true
	}
	return false
}

// applyServerState reconciles local state with a successful poll result.
// Server truth always wins, including over a locally advisory expiry.
func (c *Controller) applyServerState(booking *models.Booking) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.status
	c.status = booking.Status
	c.booking = booking

	if booking.Status == models.BookingStatusDeclined && c.declineReason == models.DeclineReasonNone {
		if booking.Negotiation != nil && len(booking.Negotiation.Rounds) > 0 {
			c.declineReason = models.DeclineReasonNegotiation
		} else {
			c.declineReason = models.DeclineReasonImmediate
		}
	}

	if prev != booking.Status {
		c.logger.Info("booking status changed",
			zap.String("bookingId", booking.ID),
			zap.String("from", string(prev)),
			zap.String("to", string(booking.Status)))
	}
}

// syncNegotiation fetches the negotiation detail and populates the ledger,
// creating it on the first negotiating poll.
func (c *Controller) syncNegotiation(ctx context.Context, id string) {
	neg, err := c.api.GetNegotiation(ctx, id)
	if err != nil {
		c.logger.Debug("negotiation fetch failed", zap.String("bookingId", id), zap.Error(err))
		return
	}

	c.mu.Lock()
	if c.ledger == nil {
		c.ledger = negotiation.NewLedger(id, c.role, c.api, c.logger)
	}
	ledger := c.ledger
	c.mu.Unlock()

	ledger.Sync(neg.Rounds)
}
