package booking

import (
	"context"
	"time"

	"craftlink/models"

	"go.uber.org/zap"
)

// startCountdown runs the local acceptance countdown. It is a UX safety net
// only: server-side expiry is authoritative and will be observed by polling
// regardless; the local expiry it triggers is advisory and superseded by the
// next successful poll.
func (c *Controller) startCountdown() {
	c.wg.Add(1)
	go c.runCountdown(c.lifecycle)
}

func (c *Controller) runCountdown(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.countdownTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if expired, done := c.tickCountdown(); done {
				if expired {
					c.expireLocally(ctx)
				}
				return
			}
		}
	}
}

// tickCountdown decrements timeLeft by one while the booking is pending.
// It reports (reached zero, countdown finished).
func (c *Controller) tickCountdown() (expired, done bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.status {
	case models.BookingStatusPending:
		// fall through to decrement
	case models.BookingStatusNegotiating:
		// The acceptance window is suspended while a negotiation is live;
		// the server deadline still governs via polling.
		return false, false
	default:
		// Accepted, declined, cancelled... — nothing left to count down.
		return false, true
	}

	if c.timeLeft > 0 {
		c.timeLeft--
	}
	if c.timeLeft == 0 {
		return true, true
	}
	return false, false
}

// expireLocally marks the booking expired and issues the safety-net cancel,
// exactly once.
func (c *Controller) expireLocally(ctx context.Context) {
	c.mu.Lock()
	if c.cancelIssued || c.status != models.BookingStatusPending {
		c.mu.Unlock()
		return
	}
	c.cancelIssued = true
	c.status = models.BookingStatusExpired
	id := c.bookingID
	c.mu.Unlock()

	c.logger.Info("acceptance window elapsed locally, cancelling booking",
		zap.String("bookingId", id))

	cancelCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := c.api.CancelBooking(cancelCtx, id); err != nil {
		// The server will expire the booking on its own; polling reports it.
		c.logger.Warn("safety-net cancel failed", zap.String("bookingId", id), zap.Error(err))
	}
}
