package negotiation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"craftlink/models"

	"go.uber.org/zap"
)

// NegotiationAPI is the narrow server surface the ledger drives. The booking
// API client satisfies it.
type NegotiationAPI interface {
	CounterOffer(ctx context.Context, bookingID string, req models.CounterOfferRequest) error
	AcceptPrice(ctx context.Context, bookingID string) error
	RejectNegotiation(ctx context.Context, bookingID string) error
}

// Outcome is the terminal result of a closed ledger.
type Outcome string

const (
	OutcomeNone     Outcome = ""
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
)

// Ledger is the append-only negotiation history for one booking. Only the
// last round is actionable; accepting or rejecting closes the ledger for
// good. The ledger never guesses outcomes: a counter-offer is sent to the
// server and the counterparty's move arrives via the next status poll.
type Ledger struct {
	bookingID string
	role      models.Party
	api       NegotiationAPI
	logger    *zap.Logger

	mu      sync.Mutex
	rounds  []models.NegotiationRound
	closed  bool
	outcome Outcome
}

// NewLedger creates an open ledger for the given booking, acting as role.
func NewLedger(bookingID string, role models.Party, api NegotiationAPI, logger *zap.Logger) *Ledger {
	return &Ledger{
		bookingID: bookingID,
		role:      role,
		api:       api,
		logger:    logger,
	}
}

// Rounds returns a copy of the recorded rounds in chronological order.
func (l *Ledger) Rounds() []models.NegotiationRound {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.NegotiationRound, len(l.rounds))
	copy(out, l.rounds)
	return out
}

// Latest returns the most recent round, or nil if the ledger is empty.
func (l *Ledger) Latest() *models.NegotiationRound {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.latestLocked()
}

func (l *Ledger) latestLocked() *models.NegotiationRound {
	if len(l.rounds) == 0 {
		return nil
	}
	r := l.rounds[len(l.rounds)-1]
	return &r
}

// Closed reports whether the ledger has reached a terminal outcome.
func (l *Ledger) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Outcome returns the terminal outcome, or OutcomeNone while open.
func (l *Ledger) Outcome() Outcome {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.outcome
}

// RecordRound appends a round to the history. Amounts must be positive.
func (l *Ledger) RecordRound(round models.NegotiationRound) error {
	if round.ProposedAmount <= 0 {
		return newLedgerError(codeValidation, fmt.Sprintf("proposed amount must be positive, got %v", round.ProposedAmount))
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return newLedgerError(codeClosed, "negotiation already concluded")
	}
	l.rounds = append(l.rounds, round)
	return nil
}

// Sync replaces the local history with the server's round list, as observed
// by the status poll. Syncing a closed ledger is a no-op.
func (l *Ledger) Sync(rounds []models.NegotiationRound) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	if len(rounds) < len(l.rounds) {
		l.logger.Warn("server negotiation history shorter than local ledger",
			zap.String("bookingId", l.bookingID),
			zap.Int("server", len(rounds)),
			zap.Int("local", len(l.rounds)))
	}
	l.rounds = append(l.rounds[:0], rounds...)
}

// CounterOffer proposes a new price. The caller must not be the proposer of
// the last round. On server acknowledgement the round is appended locally;
// the counterparty's response is discovered by polling, not assumed.
func (l *Ledger) CounterOffer(ctx context.Context, amount float64, message string) error {
	if amount <= 0 {
		return newLedgerError(codeValidation, fmt.Sprintf("counter amount must be positive, got %v", amount))
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return newLedgerError(codeClosed, "negotiation already concluded")
	}
	last := l.latestLocked()
	if last == nil {
		l.mu.Unlock()
		return newLedgerError(codeEmpty, "no round to counter")
	}
	if last.ProposedBy == l.role {
		l.mu.Unlock()
		return newLedgerError(codeOwnRound, "awaiting the counterparty's response to your last offer")
	}
	l.mu.Unlock()

	if err := l.api.CounterOffer(ctx, l.bookingID, models.CounterOfferRequest{
		CounterPrice: amount,
		Message:      message,
	}); err != nil {
		return fmt.Errorf("failed to send counter-offer: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.rounds = append(l.rounds, models.NegotiationRound{
		ProposedBy:     l.role,
		ProposedAmount: amount,
		Message:        message,
		ProposedAt:     time.Now(),
	})
	l.logger.Info("counter-offer sent",
		zap.String("bookingId", l.bookingID),
		zap.Float64("amount", amount),
		zap.Int("rounds", len(l.rounds)))
	return nil
}

// AcceptLatest accepts the counterparty's most recent proposal and closes
// the ledger. Accepting your own round is rejected.
func (l *Ledger) AcceptLatest(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return newLedgerError(codeClosed, "negotiation already concluded")
	}
	last := l.latestLocked()
	if last == nil {
		l.mu.Unlock()
		return newLedgerError(codeEmpty, "no round to accept")
	}
	if last.ProposedBy == l.role {
		l.mu.Unlock()
		return newLedgerError(codeOwnRound, "cannot accept your own proposal")
	}
	l.mu.Unlock()

	if err := l.api.AcceptPrice(ctx, l.bookingID); err != nil {
		return fmt.Errorf("failed to accept price: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.outcome = OutcomeAccepted
	l.logger.Info("negotiation accepted",
		zap.String("bookingId", l.bookingID),
		zap.Float64("agreedPrice", last.ProposedAmount))
	return nil
}

// RejectLatest ends the negotiation without agreement and closes the ledger.
func (l *Ledger) RejectLatest(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return newLedgerError(codeClosed, "negotiation already concluded")
	}
	if len(l.rounds) == 0 {
		l.mu.Unlock()
		return newLedgerError(codeEmpty, "no round to reject")
	}
	l.mu.Unlock()

	if err := l.api.RejectNegotiation(ctx, l.bookingID); err != nil {
		return fmt.Errorf("failed to reject negotiation: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.outcome = OutcomeRejected
	l.logger.Info("negotiation rejected", zap.String("bookingId", l.bookingID))
	return nil
}
