package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"craftlink/models"

	"go.uber.org/zap"
)

// StreamOpener opens the one-shot verification event stream for a payment
// reference. The API client satisfies it.
type StreamOpener interface {
	OpenVerifyStream(ctx context.Context, reference string) (io.ReadCloser, error)
}

// Callbacks receive the decoded verify stream events. OnComplete and OnError
// are terminal: exactly one of them fires, exactly once, per session.
type Callbacks struct {
	OnProgress func(data []byte)
	OnComplete func(result *models.VerifyResult)
	OnError    func(err error)
}

// StreamConsumer parses one payment verification stream per session. A
// session is created per verification attempt and never reused.
type StreamConsumer struct {
	opener StreamOpener
	logger *zap.Logger
}

// NewStreamConsumer builds a consumer over the given opener.
func NewStreamConsumer(opener StreamOpener, logger *zap.Logger) *StreamConsumer {
	return &StreamConsumer{opener: opener, logger: logger}
}

// Consume opens the stream for reference and dispatches events until a
// terminal frame arrives or the transport ends. A transport-level failure is
// reported through OnError and ends the session without further reads.
// Malformed frame payloads are dropped for that frame only; the stream may
// still recover on a later valid frame.
func (c *StreamConsumer) Consume(ctx context.Context, reference string, cb Callbacks) {
	body, err := c.opener.OpenVerifyStream(ctx, reference)
	if err != nil {
		cb.OnError(fmt.Errorf("failed to open verify stream: %w", err))
		return
	}
	defer body.Close()

	decoder := &frameDecoder{}
	buf := make([]byte, 4096)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			for _, ev := range decoder.Feed(buf[:n]) {
				if terminal := c.dispatch(reference, ev, cb); terminal {
					// No further reads once a terminal frame is dispatched.
					return
				}
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				cb.OnError(fmt.Errorf("verify stream for %s ended without a terminal event", reference))
			} else {
				cb.OnError(fmt.Errorf("verify stream read failed: %w", readErr))
			}
			return
		}
	}
}

// dispatch routes one decoded frame to its callback and reports whether it
// was terminal.
func (c *StreamConsumer) dispatch(reference string, ev models.StreamEvent, cb Callbacks) bool {
	switch ev.Type {
	case models.StreamEventProgress:
		if !json.Valid(ev.Data) {
			c.logger.Debug("dropping malformed progress frame", zap.String("reference", reference))
			return false
		}
		if cb.OnProgress != nil {
			cb.OnProgress(ev.Data)
		}
		return false

	case models.StreamEventComplete:
		var result models.VerifyResult
		if err := json.Unmarshal(ev.Data, &result); err != nil {
			c.logger.Debug("dropping malformed complete frame",
				zap.String("reference", reference), zap.Error(err))
			return false
		}
		cb.OnComplete(&result)
		return true

	case models.StreamEventError:
		var payload models.StreamErrorPayload
		if err := json.Unmarshal(ev.Data, &payload); err != nil {
			c.logger.Debug("dropping malformed error frame",
				zap.String("reference", reference), zap.Error(err))
			return false
		}
		cb.OnError(&VerificationError{Reference: reference, Code: payload.Code, Message: payload.Message})
		return true

	default:
		c.logger.Debug("ignoring unknown stream event",
			zap.String("reference", reference), zap.String("event", string(ev.Type)))
		return false
	}
}

// VerificationError is a payment failure reported by the verify stream itself.
type VerificationError struct {
	Reference string
	Code      string
	Message   string
}

func (e *VerificationError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("payment verification failed (%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("payment verification failed: %s", e.Message)
}
