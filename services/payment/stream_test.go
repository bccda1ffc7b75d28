package payment

import (
	"context"
	"errors"
	"io"
	"testing"

	"craftlink/models"

	"go.uber.org/zap"
)

// chunkReader serves a scripted sequence of chunks, one per Read call, then
// the configured final error (io.EOF by default).
type chunkReader struct {
	chunks   [][]byte
	finalErr error
	closed   bool
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		if r.finalErr != nil {
			return 0, r.finalErr
		}
		return 0, io.EOF
	}
	chunk := r.chunks[0]
	r.chunks = r.chunks[1:]
	return copy(p, chunk), nil
}

func (r *chunkReader) Close() error {
	r.closed = true
	return nil
}

type fakeOpener struct {
	reader  *chunkReader
	openErr error
}

func (f *fakeOpener) OpenVerifyStream(ctx context.Context, reference string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.reader, nil
}

type recordedCallbacks struct {
	progress  int
	completes []*models.VerifyResult
	errs      []error
}

func (rc *recordedCallbacks) callbacks() Callbacks {
	return Callbacks{
		OnProgress: func([]byte) { rc.progress++ },
		OnComplete: func(r *models.VerifyResult) { rc.completes = append(rc.completes, r) },
		OnError:    func(err error) { rc.errs = append(rc.errs, err) },
	}
}

func consume(t *testing.T, reader *chunkReader) *recordedCallbacks {
	t.Helper()
	rc := &recordedCallbacks{}
	c := NewStreamConsumer(&fakeOpener{reader: reader}, zap.NewNop())
	c.Consume(context.Background(), "ref-1", rc.callbacks())
	return rc
}

func TestConsumeDispatchesSplitFramesExactlyOnce(t *testing.T) {
	// Progress frame in the first chunk, complete frame split mid-frame
	// across the second and third chunks.
	reader := &chunkReader{chunks: [][]byte{
		[]byte("event: progress\ndata: {\"stage\":\"charging\"}\n\nevent: comp"),
		[]byte("lete\ndata: {\"booking\":{\"id\":\"bk-1\",\"status\":\"confirmed\"},"),
		[]byte("\"payment\":{\"reference\":\"ref-1\",\"status\":\"held_in_escrow\"}}\n\n"),
	}}
	rc := consume(t, reader)

	if rc.progress != 1 {
		t.Errorf("progress dispatches: got %d, want 1", rc.progress)
	}
	if len(rc.completes) != 1 {
		t.Fatalf("complete dispatches: got %d, want 1", len(rc.completes))
	}
	if len(rc.errs) != 0 {
		t.Fatalf("unexpected errors: %v", rc.errs)
	}
	result := rc.completes[0]
	if result.Booking == nil || result.Booking.Status != models.BookingStatusConfirmed {
		t.Errorf("unexpected booking in result: %+v", result.Booking)
	}
	if result.Payment == nil || result.Payment.Status != "held_in_escrow" {
		t.Errorf("unexpected payment in result: %+v", result.Payment)
	}
	if !reader.closed {
		t.Error("stream body must be closed after terminal dispatch")
	}
}

func TestConsumeStopsReadingAfterTerminalFrame(t *testing.T) {
	reader := &chunkReader{chunks: [][]byte{
		[]byte("event: complete\ndata: {\"booking\":null,\"payment\":null}\n\nevent: progress\ndata: {}\n\n"),
		[]byte("event: progress\ndata: {}\n\n"),
	}}
	rc := consume(t, reader)

	if len(rc.completes) != 1 {
		t.Fatalf("complete dispatches: got %d, want 1", len(rc.completes))
	}
	// The trailing progress frame in the same chunk and the unread second
	// chunk must both be ignored.
	if rc.progress != 0 {
		t.Errorf("no dispatches may follow a terminal frame, got %d progress", rc.progress)
	}
	if len(reader.chunks) != 1 {
		t.Errorf("consumer must not read past the terminal frame's chunk")
	}
}

func TestConsumeErrorEventIsTerminal(t *testing.T) {
	reader := &chunkReader{chunks: [][]byte{
		[]byte("event: error\ndata: {\"message\":\"card declined\",\"code\":\"card_declined\"}\n\n"),
	}}
	rc := consume(t, reader)

	if len(rc.errs) != 1 {
		t.Fatalf("error dispatches: got %d, want 1", len(rc.errs))
	}
	var ve *VerificationError
	if !errors.As(rc.errs[0], &ve) || ve.Code != "card_declined" {
		t.Fatalf("expected VerificationError with code, got %v", rc.errs[0])
	}
	if len(rc.completes) != 0 {
		t.Fatal("no complete may follow an error frame")
	}
}

func TestConsumeDropsMalformedFrameAndRecovers(t *testing.T) {
	reader := &chunkReader{chunks: [][]byte{
		[]byte("event: progress\ndata: {not json\n\n"),
		[]byte("event: complete\ndata: not json either\n\n"),
		[]byte("event: complete\ndata: {\"booking\":null,\"payment\":null}\n\n"),
	}}
	rc := consume(t, reader)

	if rc.progress != 0 {
		t.Errorf("malformed progress must be dropped, got %d dispatches", rc.progress)
	}
	if len(rc.completes) != 1 {
		t.Fatalf("expected the later valid complete to dispatch, got %d", len(rc.completes))
	}
	if len(rc.errs) != 0 {
		t.Fatalf("malformed frames must not abort the stream: %v", rc.errs)
	}
}

func TestConsumeTransportFailureReportsError(t *testing.T) {
	rc := &recordedCallbacks{}
	c := NewStreamConsumer(&fakeOpener{openErr: errors.New("HTTP 503")}, zap.NewNop())
	c.Consume(context.Background(), "ref-1", rc.callbacks())

	if len(rc.errs) != 1 {
		t.Fatalf("expected one error dispatch, got %d", len(rc.errs))
	}
	if len(rc.completes) != 0 || rc.progress != 0 {
		t.Fatal("no other dispatches expected on transport failure")
	}
}

func TestConsumeEOFWithoutTerminalReportsError(t *testing.T) {
	reader := &chunkReader{chunks: [][]byte{
		[]byte("event: progress\ndata: {\"stage\":\"charging\"}\n\n"),
	}}
	rc := consume(t, reader)

	if rc.progress != 1 {
		t.Errorf("progress dispatches: got %d, want 1", rc.progress)
	}
	if len(rc.errs) != 1 {
		t.Fatalf("stream ending without terminal event must report an error, got %d", len(rc.errs))
	}
}

func TestConsumeMidStreamReadFailure(t *testing.T) {
	reader := &chunkReader{
		chunks:   [][]byte{[]byte("event: progress\ndata: {}\n\n")},
		finalErr: errors.New("connection reset"),
	}
	rc := consume(t, reader)

	if len(rc.errs) != 1 {
		t.Fatalf("expected one error dispatch, got %d", len(rc.errs))
	}
	if len(rc.completes) != 0 {
		t.Fatal("no complete expected after read failure")
	}
}
