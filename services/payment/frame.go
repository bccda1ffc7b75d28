package payment

import (
	"bytes"
	"strings"

	"craftlink/models"
)

// frameDelimiter separates frames on the verify stream.
var frameDelimiter = []byte("\n\n")

// frameDecoder reassembles server-sent event frames from arbitrarily split
// transport chunks. Bytes accumulate in buf; every complete frame (terminated
// by a blank line) is parsed and yielded, and the trailing partial frame is
// retained for the next chunk. A frame split mid-line across two chunks is
// therefore dispatched exactly once, never lost or duplicated.
type frameDecoder struct {
	buf []byte
}

// Feed appends a chunk and returns all frames completed by it.
func (d *frameDecoder) Feed(chunk []byte) []models.StreamEvent {
	d.buf = append(d.buf, chunk...)

	var events []models.StreamEvent
	for {
		idx := bytes.Index(d.buf, frameDelimiter)
		if idx < 0 {
			return events
		}
		frame := d.buf[:idx]
		d.buf = d.buf[idx+len(frameDelimiter):]
		if ev, ok := parseFrame(frame); ok {
			events = append(events, ev)
		}
	}
}

// parseFrame extracts the event name and data payload from one complete
// frame. Frames without both an event and a data line are ignored.
func parseFrame(frame []byte) (models.StreamEvent, bool) {
	var ev models.StreamEvent
	var data []string
	for _, line := range strings.Split(string(frame), "\n") {
		line = strings.TrimSuffix(line, "\r")
		switch {
		case strings.HasPrefix(line, "event:"):
			ev.Type = models.StreamEventType(strings.TrimSpace(line[len("event:"):]))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimSpace(line[len("data:"):]))
		}
	}
	if ev.Type == "" || len(data) == 0 {
		return models.StreamEvent{}, false
	}
	ev.Data = []byte(strings.Join(data, "\n"))
	return ev, true
}
