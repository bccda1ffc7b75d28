package payment

import (
	"context"
	"errors"
	"io"
	"testing"

	"craftlink/models"

	"go.uber.org/zap"
)

type fakePaymentAPI struct {
	init  *models.PaymentInit
	err   error
	calls int
}

func (f *fakePaymentAPI) InitializePayment(ctx context.Context, bookingID string) (*models.PaymentInit, error) {
	f.calls++
	return f.init, f.err
}

func TestInitializePaymentRejectsPlaceholderIDs(t *testing.T) {
	api := &fakePaymentAPI{}
	flow := NewFlowController(api, nil, zap.NewNop())

	for _, id := range []string{"", "undefined", "null"} {
		_, err := flow.InitializePayment(context.Background(), id)
		var fe *FlowError
		if !errors.As(err, &fe) || fe.Code != "invalidBookingId" {
			t.Errorf("id %q: expected invalidBookingId error, got %v", id, err)
		}
	}
	if api.calls != 0 {
		t.Fatalf("placeholder ids must not reach the server, got %d calls", api.calls)
	}
}

func TestInitializePaymentReturnsGatewayURL(t *testing.T) {
	api := &fakePaymentAPI{init: &models.PaymentInit{
		AuthorizationURL: "https://gateway.example/pay/abc",
		Reference:        "ref-9",
	}}
	flow := NewFlowController(api, nil, zap.NewNop())

	init, err := flow.InitializePayment(context.Background(), "bk-9")
	if err != nil {
		t.Fatalf("InitializePayment: %v", err)
	}
	if init.AuthorizationURL != "https://gateway.example/pay/abc" {
		t.Errorf("authorization url: got %s", init.AuthorizationURL)
	}
}

func TestInitializePaymentSurfacesServerError(t *testing.T) {
	api := &fakePaymentAPI{err: errors.New("booking not accepted")}
	flow := NewFlowController(api, nil, zap.NewNop())

	if _, err := flow.InitializePayment(context.Background(), "bk-9"); err == nil {
		t.Fatal("expected server error to surface")
	}
}

func TestInitializePaymentRequiresAuthorizationURL(t *testing.T) {
	api := &fakePaymentAPI{init: &models.PaymentInit{Reference: "ref-9"}}
	flow := NewFlowController(api, nil, zap.NewNop())

	_, err := flow.InitializePayment(context.Background(), "bk-9")
	var fe *FlowError
	if !errors.As(err, &fe) || fe.Code != "missingAuthorizationUrl" {
		t.Fatalf("expected missingAuthorizationUrl error, got %v", err)
	}
}

func TestVerifyAndResolveSettlesOnComplete(t *testing.T) {
	reader := &chunkReader{chunks: [][]byte{
		[]byte("event: progress\ndata: {\"stage\":\"confirming\"}\n\n"),
		[]byte("event: complete\ndata: {\"booking\":{\"id\":\"bk-1\",\"status\":\"confirmed\"},\"payment\":{\"reference\":\"ref-1\",\"status\":\"held_in_escrow\"}}\n\n"),
	}}
	consumer := NewStreamConsumer(&fakeOpener{reader: reader}, zap.NewNop())
	flow := NewFlowController(&fakePaymentAPI{}, consumer, zap.NewNop())

	result, err := flow.VerifyAndResolve(context.Background(), "ref-1")
	if err != nil {
		t.Fatalf("VerifyAndResolve: %v", err)
	}
	if result.Booking.ID != "bk-1" || result.Payment.Reference != "ref-1" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestVerifyAndResolveRejectsOnErrorEvent(t *testing.T) {
	reader := &chunkReader{chunks: [][]byte{
		[]byte("event: error\ndata: {\"message\":\"charge failed\"}\n\n"),
	}}
	consumer := NewStreamConsumer(&fakeOpener{reader: reader}, zap.NewNop())
	flow := NewFlowController(&fakePaymentAPI{}, consumer, zap.NewNop())

	_, err := flow.VerifyAndResolve(context.Background(), "ref-1")
	var ve *VerificationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected VerificationError, got %v", err)
	}
}

func TestVerifyAndResolveRejectsOnTransportFailure(t *testing.T) {
	consumer := NewStreamConsumer(&fakeOpener{openErr: io.ErrUnexpectedEOF}, zap.NewNop())
	flow := NewFlowController(&fakePaymentAPI{}, consumer, zap.NewNop())

	if _, err := flow.VerifyAndResolve(context.Background(), "ref-1"); err == nil {
		t.Fatal("expected transport failure to reject")
	}
}
