package payment

import (
	"testing"

	"craftlink/models"
)

func TestFeedSingleCompleteFrame(t *testing.T) {
	d := &frameDecoder{}
	events := d.Feed([]byte("event: progress\ndata: {\"stage\":\"charging\"}\n\n"))
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Type != models.StreamEventProgress {
		t.Errorf("type: got %s", events[0].Type)
	}
	if string(events[0].Data) != `{"stage":"charging"}` {
		t.Errorf("data: got %s", events[0].Data)
	}
}

func TestFeedFrameSplitAcrossChunks(t *testing.T) {
	// One frame split mid-data line, followed by a second frame, split at an
	// arbitrary boundary inside the first frame's data payload.
	full := "event: progress\ndata: {\"stage\":\"charging\"}\n\nevent: complete\ndata: {\"booking\":null,\"payment\":null}\n\n"
	for split := 1; split < len(full)-1; split++ {
		d := &frameDecoder{}
		events := d.Feed([]byte(full[:split]))
		events = append(events, d.Feed([]byte(full[split:]))...)
		if len(events) != 2 {
			t.Fatalf("split at %d: expected 2 events, got %d", split, len(events))
		}
		if events[0].Type != models.StreamEventProgress || events[1].Type != models.StreamEventComplete {
			t.Fatalf("split at %d: wrong order: %s, %s", split, events[0].Type, events[1].Type)
		}
	}
}

func TestFeedRetainsTrailingPartialFrame(t *testing.T) {
	d := &frameDecoder{}
	if events := d.Feed([]byte("event: progress\ndata: {}")); len(events) != 0 {
		t.Fatalf("incomplete frame must not dispatch, got %d events", len(events))
	}
	events := d.Feed([]byte("\n\n"))
	if len(events) != 1 {
		t.Fatalf("expected retained frame to complete, got %d events", len(events))
	}
}

func TestFeedIgnoresFramesWithoutEventOrData(t *testing.T) {
	d := &frameDecoder{}
	events := d.Feed([]byte(": keepalive\n\ndata: {}\n\nevent: progress\n\nevent: progress\ndata: {}\n\n"))
	if len(events) != 1 {
		t.Fatalf("expected only the well-formed frame, got %d", len(events))
	}
}

func TestFeedHandlesCRLFLines(t *testing.T) {
	d := &frameDecoder{}
	events := d.Feed([]byte("event: error\r\ndata: {\"message\":\"declined\"}\r\n\n"))
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Type != models.StreamEventError {
		t.Errorf("type: got %s", events[0].Type)
	}
	if string(events[0].Data) != `{"message":"declined"}` {
		t.Errorf("data: got %s", events[0].Data)
	}
}
