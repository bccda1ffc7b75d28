package payment

import (
	"context"
	"fmt"

	"craftlink/models"

	"go.uber.org/zap"
)

// PaymentAPI is the server surface the flow controller drives.
type PaymentAPI interface {
	InitializePayment(ctx context.Context, bookingID string) (*models.PaymentInit, error)
}

// FlowError is a user-visible payment flow failure caught before any request.
type FlowError struct {
	Code    string
	Message string
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FlowController orchestrates initialize → hosted gateway page → stream
// verification for one escrow capture.
type FlowController struct {
	api      PaymentAPI
	consumer *StreamConsumer
	logger   *zap.Logger
}

// NewFlowController wires a flow controller over the payment API and a
// stream consumer.
func NewFlowController(api PaymentAPI, consumer *StreamConsumer, logger *zap.Logger) *FlowController {
	return &FlowController{api: api, consumer: consumer, logger: logger}
}

// InitializePayment starts an escrow capture and returns the hosted payment
// page the customer must be sent to. Placeholder booking ids are rejected
// before any request; on server failure no navigation target is returned.
func (f *FlowController) InitializePayment(ctx context.Context, bookingID string) (*models.PaymentInit, error) {
	switch bookingID {
	case "", "undefined", "null":
		return nil, &FlowError{Code: "invalidBookingId", Message: fmt.Sprintf("cannot initialize payment for booking id %q", bookingID)}
	}

	init, err := f.api.InitializePayment(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize payment: %w", err)
	}
	if init.AuthorizationURL == "" {
		return nil, &FlowError{Code: "missingAuthorizationUrl", Message: "gateway returned no payment page"}
	}
	f.logger.Info("payment initialized",
		zap.String("bookingId", bookingID),
		zap.String("reference", init.Reference))
	return init, nil
}

// VerifyAndResolve consumes the verification stream for reference and blocks
// until the session settles: the final booking and payment state on
// "complete", an error on "error" or transport failure. Progress frames are
// logged and otherwise ignored here.
func (f *FlowController) VerifyAndResolve(ctx context.Context, reference string) (*models.VerifyResult, error) {
	resultCh := make(chan *models.VerifyResult, 1)
	errCh := make(chan error, 1)

	go f.consumer.Consume(ctx, reference, Callbacks{
		OnProgress: func(data []byte) {
			f.logger.Debug("payment verification progress",
				zap.String("reference", reference),
				zap.ByteString("data", data))
		},
		OnComplete: func(result *models.VerifyResult) {
			resultCh <- result
		},
		OnError: func(err error) {
			errCh <- err
		},
	})

	select {
	case result := <-resultCh:
		status := ""
		if result.Payment != nil {
			status = result.Payment.Status
		}
		f.logger.Info("payment verified",
			zap.String("reference", reference),
			zap.String("paymentStatus", status))
		return result, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
