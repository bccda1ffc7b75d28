package negotiation

import (
	"context"
	"errors"
	"testing"
	"time"

	"craftlink/models"

	"go.uber.org/zap"
)

type fakeNegotiationAPI struct {
	counterCalls int
	acceptCalls  int
	rejectCalls  int
	err          error
}

func (f *fakeNegotiationAPI) CounterOffer(ctx context.Context, bookingID string, req models.CounterOfferRequest) error {
	f.counterCalls++
	return f.err
}

func (f *fakeNegotiationAPI) AcceptPrice(ctx context.Context, bookingID string) error {
	f.acceptCalls++
	return f.err
}

func (f *fakeNegotiationAPI) RejectNegotiation(ctx context.Context, bookingID string) error {
	f.rejectCalls++
	return f.err
}

func artisanRound(amount float64) models.NegotiationRound {
	return models.NegotiationRound{
		ProposedBy:     models.PartyArtisan,
		ProposedAmount: amount,
		ProposedAt:     time.Now(),
	}
}

func TestCounterOfferAppendsCustomerRound(t *testing.T) {
	api := &fakeNegotiationAPI{}
	ledger := NewLedger("bk-1", models.PartyCustomer, api, zap.NewNop())

	if err := ledger.RecordRound(artisanRound(8000)); err != nil {
		t.Fatalf("RecordRound: %v", err)
	}
	if err := ledger.CounterOffer(context.Background(), 7000, "best I can do"); err != nil {
		t.Fatalf("CounterOffer: %v", err)
	}

	rounds := ledger.Rounds()
	if len(rounds) != 2 {
		t.Fatalf("expected 2 rounds, got %d", len(rounds))
	}
	last := ledger.Latest()
	if last.ProposedBy != models.PartyCustomer || last.ProposedAmount != 7000 {
		t.Fatalf("unexpected latest round: %+v", last)
	}
	if api.counterCalls != 1 {
		t.Fatalf("expected 1 counter-offer call, got %d", api.counterCalls)
	}
}

func TestArtisanCannotAcceptOwnRound(t *testing.T) {
	api := &fakeNegotiationAPI{}
	ledger := NewLedger("bk-1", models.PartyArtisan, api, zap.NewNop())

	// Artisan proposed 8000, customer countered 7000 — from the artisan's
	// ledger the latest round is the customer's, so accept is allowed; but
	// after the artisan counters again, accepting their own round is not.
	if err := ledger.RecordRound(artisanRound(8000)); err != nil {
		t.Fatalf("RecordRound: %v", err)
	}
	if err := ledger.RecordRound(models.NegotiationRound{ProposedBy: models.PartyCustomer, ProposedAmount: 7000}); err != nil {
		t.Fatalf("RecordRound: %v", err)
	}
	if err := ledger.CounterOffer(context.Background(), 7500, ""); err != nil {
		t.Fatalf("CounterOffer: %v", err)
	}

	err := ledger.AcceptLatest(context.Background())
	var le *LedgerError
	if !errors.As(err, &le) || le.Code != codeOwnRound {
		t.Fatalf("expected ownRound error, got %v", err)
	}
	if api.acceptCalls != 0 {
		t.Fatalf("accept must not reach the server, got %d calls", api.acceptCalls)
	}
}

func TestAcceptLatestClosesLedger(t *testing.T) {
	api := &fakeNegotiationAPI{}
	ledger := NewLedger("bk-1", models.PartyCustomer, api, zap.NewNop())
	if err := ledger.RecordRound(artisanRound(6000)); err != nil {
		t.Fatalf("RecordRound: %v", err)
	}

	if err := ledger.AcceptLatest(context.Background()); err != nil {
		t.Fatalf("AcceptLatest: %v", err)
	}
	if !ledger.Closed() {
		t.Fatal("ledger should be closed after accept")
	}
	if ledger.Outcome() != OutcomeAccepted {
		t.Fatalf("outcome: got %s", ledger.Outcome())
	}
	if api.acceptCalls != 1 {
		t.Fatalf("expected 1 accept call, got %d", api.acceptCalls)
	}
}

func TestActionsOnClosedLedgerAreNoOps(t *testing.T) {
	api := &fakeNegotiationAPI{}
	ledger := NewLedger("bk-1", models.PartyCustomer, api, zap.NewNop())
	if err := ledger.RecordRound(artisanRound(6000)); err != nil {
		t.Fatalf("RecordRound: %v", err)
	}
	if err := ledger.RejectLatest(context.Background()); err != nil {
		t.Fatalf("RejectLatest: %v", err)
	}
	if ledger.Outcome() != OutcomeRejected {
		t.Fatalf("outcome: got %s", ledger.Outcome())
	}

	for name, action := range map[string]func() error{
		"accept":  func() error { return ledger.AcceptLatest(context.Background()) },
		"reject":  func() error { return ledger.RejectLatest(context.Background()) },
		"counter": func() error { return ledger.CounterOffer(context.Background(), 5000, "") },
		"record":  func() error { return ledger.RecordRound(artisanRound(5500)) },
	} {
		err := action()
		if !IsClosed(err) {
			t.Errorf("%s on closed ledger: expected closed error, got %v", name, err)
		}
	}
	if api.acceptCalls != 0 || api.counterCalls != 0 || api.rejectCalls != 1 {
		t.Fatalf("closed ledger must not reach the server: %+v", api)
	}
}

func TestRecordRoundRejectsNonPositiveAmount(t *testing.T) {
	ledger := NewLedger("bk-1", models.PartyCustomer, &fakeNegotiationAPI{}, zap.NewNop())
	for _, amount := range []float64{0, -100} {
		err := ledger.RecordRound(artisanRound(amount))
		var le *LedgerError
		if !errors.As(err, &le) || le.Code != codeValidation {
			t.Errorf("amount %v: expected validation error, got %v", amount, err)
		}
	}
}

func TestCounterOfferRequiresCounterpartyRound(t *testing.T) {
	api := &fakeNegotiationAPI{}
	ledger := NewLedger("bk-1", models.PartyCustomer, api, zap.NewNop())

	// Empty ledger: nothing to counter.
	err := ledger.CounterOffer(context.Background(), 7000, "")
	var le *LedgerError
	if !errors.As(err, &le) || le.Code != codeEmpty {
		t.Fatalf("expected empty error, got %v", err)
	}

	// Last round is the customer's own.
	if err := ledger.RecordRound(models.NegotiationRound{ProposedBy: models.PartyCustomer, ProposedAmount: 7000}); err != nil {
		t.Fatalf("RecordRound: %v", err)
	}
	err = ledger.CounterOffer(context.Background(), 6500, "")
	if !errors.As(err, &le) || le.Code != codeOwnRound {
		t.Fatalf("expected ownRound error, got %v", err)
	}
	if api.counterCalls != 0 {
		t.Fatalf("invalid counters must not reach the server, got %d calls", api.counterCalls)
	}
}

func TestSyncReplacesOpenLedgerOnly(t *testing.T) {
	ledger := NewLedger("bk-1", models.PartyCustomer, &fakeNegotiationAPI{}, zap.NewNop())
	ledger.Sync([]models.NegotiationRound{artisanRound(9000), {ProposedBy: models.PartyCustomer, ProposedAmount: 8000}})
	if len(ledger.Rounds()) != 2 {
		t.Fatalf("expected 2 rounds after sync, got %d", len(ledger.Rounds()))
	}

	if err := ledger.AcceptLatest(context.Background()); err == nil {
		t.Fatal("accepting own round should fail")
	}
	// Latest is the customer's own round; reject instead to close.
	if err := ledger.RejectLatest(context.Background()); err != nil {
		t.Fatalf("RejectLatest: %v", err)
	}
	ledger.Sync([]models.NegotiationRound{artisanRound(100)})
	if len(ledger.Rounds()) != 2 {
		t.Fatal("sync must not mutate a closed ledger")
	}
}

func TestCounterOfferServerFailureLeavesLedgerUnchanged(t *testing.T) {
	api := &fakeNegotiationAPI{err: errors.New("boom")}
	ledger := NewLedger("bk-1", models.PartyCustomer, api, zap.NewNop())
	if err := ledger.RecordRound(artisanRound(8000)); err != nil {
		t.Fatalf("RecordRound: %v", err)
	}
	if err := ledger.CounterOffer(context.Background(), 7000, ""); err == nil {
		t.Fatal("expected server error")
	}
	if len(ledger.Rounds()) != 1 {
		t.Fatalf("failed counter must not append, got %d rounds", len(ledger.Rounds()))
	}
	if ledger.Closed() {
		t.Fatal("ledger must stay open after a failed counter")
	}
}
