package junction

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/randalmurphal/junction/pkg/junction/config"
	"github.com/randalmurphal/junction/pkg/junction/observability"
)

// DefaultBufferSize is the ring capacity used when neither the stream nor the
// application configures one.
const DefaultBufferSize = 1024

// TrackerFactory creates the throughput tracker of one stream.
type TrackerFactory func(app, streamID string) ThroughputTracker

// AppContext carries application-wide settings shared by every junction of
// an application.
//
// Defaults are filled in exactly once: by NewAppContext, ContextFromConfig or
// the first New that receives the context. Set fields before that point; a
// context may then be shared by junctions built concurrently.
type AppContext struct {
	// Name identifies the application. Defaults to a random UUID.
	Name string

	// Async makes every stream asynchronous, annotated or not.
	Async bool

	// BufferSize is the default ring capacity. Defaults to DefaultBufferSize.
	BufferSize int

	// Logger receives junction logs. Defaults to slog.Default().
	Logger *slog.Logger

	// ExceptionPolicy handles delivery faults. Defaults to LogAndContinue.
	ExceptionPolicy ExceptionPolicy

	// StatsEnabled creates a throughput tracker per junction.
	StatsEnabled bool

	// TrackerFactory builds trackers when StatsEnabled is set.
	// Defaults to an OpenTelemetry-backed observability.StreamTracker.
	TrackerFactory TrackerFactory

	// Playback drives Timestamps from the timestamps of sent data.
	Playback bool

	// Timestamps is the application clock. Defaults to an EventTimeClock in
	// playback mode and SystemClock otherwise.
	Timestamps TimestampGenerator

	// OnFatal is called when a pipeline is aborted by its exception policy.
	// It runs on the aborting stage's goroutine and must not call
	// StopProcessing synchronously.
	OnFatal func(streamID string, err error)

	defaultsOnce sync.Once
}

// NewAppContext returns a context with defaults applied.
func NewAppContext(name string) *AppContext {
	app := &AppContext{Name: name}
	app.applyDefaults()
	return app
}

func (a *AppContext) applyDefaults() {
	a.defaultsOnce.Do(a.fillDefaults)
}

func (a *AppContext) fillDefaults() {
	if a.Name == "" {
		a.Name = uuid.New().String()
	}
	if a.BufferSize <= 0 {
		a.BufferSize = DefaultBufferSize
	}
	if a.Logger == nil {
		a.Logger = slog.Default()
	}
	if a.ExceptionPolicy == nil {
		a.ExceptionPolicy = LogAndContinue(a.Logger)
	}
	if a.TrackerFactory == nil {
		a.TrackerFactory = defaultTrackerFactory
	}
	if a.Timestamps == nil {
		if a.Playback {
			a.Timestamps = &EventTimeClock{}
		} else {
			a.Timestamps = SystemClock{}
		}
	}
}

func defaultTrackerFactory(app, streamID string) ThroughputTracker {
	return observability.NewStreamTracker(observability.NewMetricsRecorder(), app, streamID)
}

// ContextFromConfig builds an AppContext from the "app" section of a configuration:
//
//	app:
//	  name: trading
//	  async: false
//	  buffer_size: 1024
//	  stats: true
//	  playback: false
func ContextFromConfig(cfg config.Config, logger *slog.Logger) *AppContext {
	section := cfg.Sub("app")
	app := &AppContext{
		Name:         section.String("name", ""),
		Async:        section.Bool("async", false),
		BufferSize:   section.Int("buffer_size", DefaultBufferSize),
		StatsEnabled: section.Bool("stats", false),
		Playback:     section.Bool("playback", false),
		Logger:       logger,
	}
	app.applyDefaults()
	return app
}
