package junction

import (
	"sync/atomic"
	"time"
)

// TimestampGenerator supplies the current time, in milliseconds, to an application.
type TimestampGenerator interface {
	CurrentTime() int64
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// CurrentTime returns the wall clock time in milliseconds.
func (SystemClock) CurrentTime() int64 {
	return time.Now().UnixMilli()
}

// EventTimeClock follows the timestamps of events sent in playback mode.
// Time never moves backwards.
type EventTimeClock struct {
	current atomic.Int64
}

// CurrentTime returns the latest event timestamp observed.
func (c *EventTimeClock) CurrentTime() int64 {
	return c.current.Load()
}

// SetCurrentTimestamp advances the clock to ts if ts is newer.
func (c *EventTimeClock) SetCurrentTimestamp(ts int64) {
	for {
		cur := c.current.Load()
		if ts <= cur || c.current.CompareAndSwap(cur, ts) {
			return
		}
	}
}

// playbackClock is implemented by generators that can be advanced by event time.
type playbackClock interface {
	SetCurrentTimestamp(ts int64)
}
