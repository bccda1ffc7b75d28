package booking

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"craftlink/models"
	"craftlink/services/negotiation"
	"craftlink/services/pricing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Defaults for the acceptance window and the two lifecycle timers.
const (
	DefaultAcceptanceWindow = 120 * time.Second
	DefaultCountdownTick    = time.Second
	DefaultPollInterval     = 3 * time.Second
	DefaultPollMaxAttempts  = 40
)

// Controller owns the lifecycle of exactly one booking: it submits the
// draft, runs the local acceptance countdown, polls the server for status,
// and drives the negotiation ledger when the server reports negotiating.
// One instance per booking; nothing is shared across bookings.
type Controller struct {
	api      BookingAPI
	uploader AttachmentUploader
	drafts   *DraftStore
	logger   *zap.Logger

	role             models.Party
	acceptanceWindow time.Duration
	countdownTick    time.Duration
	pollInterval     time.Duration
	pollMaxAttempts  int

	mu            sync.Mutex
	bookingID     string
	status        models.BookingStatus
	declineReason models.DeclineReason
	booking       *models.Booking
	ledger        *negotiation.Ledger
	timeLeft      int
	expiresAt     time.Time
	cancelIssued  bool
	polling       bool

	lifecycle context.Context
	dispose   context.CancelFunc
	wg        sync.WaitGroup
}

// Option tunes a Controller.
type Option func(*Controller)

// WithDraftStore enables transient draft persistence.
func WithDraftStore(store *DraftStore) Option {
	return func(c *Controller) { c.drafts = store }
}

// WithRole sets the acting party; the default is the customer.
func WithRole(role models.Party) Option {
	return func(c *Controller) { c.role = role }
}

// WithAcceptanceWindow overrides the default 120s acceptance window used
// when the server omits expiresAt.
func WithAcceptanceWindow(d time.Duration) Option {
	return func(c *Controller) { c.acceptanceWindow = d }
}

// WithCountdownTick overrides the countdown tick, one second by default.
func WithCountdownTick(d time.Duration) Option {
	return func(c *Controller) { c.countdownTick = d }
}

// WithPollInterval overrides the status poll interval, three seconds by
// default.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) { c.pollInterval = d }
}

// WithPollMaxAttempts overrides the polling attempt cap.
func WithPollMaxAttempts(n int) Option {
	return func(c *Controller) { c.pollMaxAttempts = n }
}

// NewController builds a controller for one not-yet-created booking.
func NewController(api BookingAPI, uploader AttachmentUploader, logger *zap.Logger, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		api:              api,
		uploader:         uploader,
		logger:           logger,
		role:             models.PartyCustomer,
		acceptanceWindow: DefaultAcceptanceWindow,
		countdownTick:    DefaultCountdownTick,
		pollInterval:     DefaultPollInterval,
		pollMaxAttempts:  DefaultPollMaxAttempts,
		status:           models.BookingStatusDraft,
		lifecycle:        ctx,
		dispose:          cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateBooking validates the draft, uploads its attachments, submits the
// booking, and starts the countdown and polling timers. Attachment upload
// failure aborts before creation so no orphan booking exists server-side.
// Server rejections are returned verbatim with no retry.
func (c *Controller) CreateBooking(ctx context.Context, draft *models.BookingDraft) (*models.BookingCreated, error) {
	c.mu.Lock()
	if c.bookingID != "" {
		c.mu.Unlock()
		return nil, fmt.Errorf("controller already owns booking %s", c.bookingID)
	}
	c.mu.Unlock()

	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	var attachmentURLs []string
	if len(draft.Attachments) > 0 {
		if c.uploader == nil {
			return nil, fmt.Errorf("draft has attachments but no uploader is configured")
		}
		urls, err := c.uploader.UploadAll(ctx, draft)
		if err != nil {
			return nil, fmt.Errorf("attachment upload failed, booking not created: %w", err)
		}
		attachmentURLs = urls
	}

	quote := pricing.Quote(draft.Service, draft.Urgency)
	req := models.CreateBookingRequest{
		ArtisanID:      draft.ArtisanID,
		Description:    draft.Description,
		ScheduledDate:  draft.ScheduledDate,
		ScheduledTime:  draft.ScheduledTime,
		Phone:          draft.Phone,
		Address:        draft.Address,
		Urgency:        draft.Urgency,
		EstimatedPrice: quote.Total,
		Attachments:    attachmentURLs,
		IdempotencyKey: uuid.New().String(),
	}
	if draft.Service != nil {
		req.ServiceID = draft.Service.ID
	}

	created, err := c.api.CreateBooking(ctx, req)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.bookingID = created.ID
	c.status = created.Status
	c.expiresAt = created.ExpiresAt
	c.timeLeft = c.initialTimeLeft(created.ExpiresAt)
	c.mu.Unlock()

	c.logger.Info("booking created",
		zap.String("bookingId", created.ID),
		zap.Float64("estimatedPrice", quote.Total),
		zap.Time("expiresAt", created.ExpiresAt))

	if c.drafts != nil && draft.DraftID != "" {
		if err := c.drafts.Delete(ctx, draft.DraftID); err != nil {
			c.logger.Warn("failed to drop submitted draft", zap.Error(err))
		}
	}

	c.startCountdown()
	c.startPolling(acceptanceStop)
	return created, nil
}

// initialTimeLeft derives the countdown start from the server deadline,
// rounding up so the countdown never hits zero before expiresAt.
func (c *Controller) initialTimeLeft(expiresAt time.Time) int {
	if expiresAt.IsZero() {
		return int(c.acceptanceWindow / time.Second)
	}
	secs := int(math.Ceil(time.Until(expiresAt).Seconds()))
	if secs < 0 {
		return 0
	}
	return secs
}

// CancelBooking cancels the booking. It is idempotent and a no-op once the
// booking is terminal.
func (c *Controller) CancelBooking(ctx context.Context) error {
	c.mu.Lock()
	id := c.bookingID
	status := c.status
	c.mu.Unlock()

	if id == "" {
		return fmt.Errorf("no booking to cancel")
	}
	if status.IsTerminal() {
		return nil
	}
	if err := c.api.CancelBooking(ctx, id); err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}

	c.mu.Lock()
	if !c.status.IsTerminal() {
		c.status = models.BookingStatusCancelled
	}
	c.mu.Unlock()
	c.logger.Info("booking cancelled", zap.String("bookingId", id))
	return nil
}

// CounterOffer forwards a counter price into the open negotiation.
func (c *Controller) CounterOffer(ctx context.Context, amount float64, message string) error {
	ledger := c.Ledger()
	if ledger == nil {
		return &negotiation.LedgerError{Code: "noNegotiation", Message: "booking is not negotiating"}
	}
	return ledger.CounterOffer(ctx, amount, message)
}

// AcceptLatest accepts the counterparty's latest proposal and moves the
// booking to accepted.
func (c *Controller) AcceptLatest(ctx context.Context) error {
	ledger := c.Ledger()
	if ledger == nil {
		return &negotiation.LedgerError{Code: "noNegotiation", Message: "booking is not negotiating"}
	}
	if err := ledger.AcceptLatest(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.status = models.BookingStatusAccepted
	if last := ledger.Latest(); last != nil && c.booking != nil {
		c.booking.AgreedPrice = last.ProposedAmount
	}
	c.mu.Unlock()
	return nil
}

// RejectLatest ends the negotiation without agreement; the booking becomes
// declined with a negotiation-rejected reason.
func (c *Controller) RejectLatest(ctx context.Context) error {
	ledger := c.Ledger()
	if ledger == nil {
		return &negotiation.LedgerError{Code: "noNegotiation", Message: "booking is not negotiating"}
	}
	if err := ledger.RejectLatest(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.status = models.BookingStatusDeclined
	c.declineReason = models.DeclineReasonNegotiation
	c.mu.Unlock()
	return nil
}

// Dispose tears down the countdown and polling timers and waits for them to
// stop. The controller must not be reused afterwards.
func (c *Controller) Dispose() {
	c.dispose()
	c.wg.Wait()
}

// BookingID returns the server-assigned id, empty before creation.
func (c *Controller) BookingID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bookingID
}

// Status returns the current locally known status.
func (c *Controller) Status() models.BookingStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// DeclineReason reports how a declined booking ended, if known locally.
func (c *Controller) DeclineReason() models.DeclineReason {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.declineReason
}

// TimeLeft returns the remaining acceptance-window seconds.
func (c *Controller) TimeLeft() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeLeft
}

// Booking returns the latest server record observed by polling, nil before
// the first successful poll.
func (c *Controller) Booking() *models.Booking {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.booking
}

// Ledger returns the negotiation ledger, nil until the server first reports
// a negotiating status.
func (c *Controller) Ledger() *negotiation.Ledger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger
}
