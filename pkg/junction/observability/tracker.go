package observability

import "context"

// StreamTracker counts events entering one stream junction.
// It satisfies junction.ThroughputTracker.
type StreamTracker struct {
	recorder MetricsRecorder
	app      string
	streamID string
}

// NewStreamTracker returns a tracker reporting through recorder.
// A nil recorder falls back to NoopMetrics.
func NewStreamTracker(recorder MetricsRecorder, app, streamID string) *StreamTracker {
	if recorder == nil {
		recorder = NoopMetrics{}
	}
	return &StreamTracker{recorder: recorder, app: app, streamID: streamID}
}

// EventIn records a single accepted event.
func (t *StreamTracker) EventIn() {
	t.recorder.RecordEventsIn(context.Background(), t.app, t.streamID, 1)
}

// EventsIn records count accepted events.
func (t *StreamTracker) EventsIn(count int) {
	if count <= 0 {
		return
	}
	t.recorder.RecordEventsIn(context.Background(), t.app, t.streamID, int64(count))
}

// StreamID returns the tracked stream.
func (t *StreamTracker) StreamID() string {
	return t.streamID
}
