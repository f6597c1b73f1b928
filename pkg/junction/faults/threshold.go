package faults

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/randalmurphal/junction/pkg/junction"
)

// ThresholdConfig configures a ThresholdPolicy.
type ThresholdConfig struct {
	// FailureThreshold is the number of faults of one receiver within
	// Window that escalates to Abort.
	// Default: 3
	FailureThreshold int

	// Window is how long a receiver's faults are counted.
	// Default: 1 minute
	Window time.Duration

	// OnTrip is called once each time a receiver reaches the threshold.
	OnTrip func(fault *junction.DeliveryFault, count int)

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// DefaultThresholdConfig provides reasonable defaults.
var DefaultThresholdConfig = ThresholdConfig{
	FailureThreshold: 3,
	Window:           time.Minute,
}

// ThresholdPolicy continues past isolated faults and aborts once a single
// receiver keeps failing. Decisions below the threshold come from the
// wrapped policy.
type ThresholdPolicy struct {
	next   junction.ExceptionPolicy
	cfg    ThresholdConfig
	logger *slog.Logger

	mu       sync.Mutex
	failures map[string]*failureWindow
}

// failureWindow tracks the faults of one receiver.
type failureWindow struct {
	count       int
	firstSeenAt time.Time
}

// Compile-time interface check.
var _ junction.ExceptionPolicy = (*ThresholdPolicy)(nil)

// NewThresholdPolicy wraps next, which defaults to junction.LogAndContinue.
func NewThresholdPolicy(cfg ThresholdConfig, next junction.ExceptionPolicy, logger *slog.Logger) *ThresholdPolicy {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultThresholdConfig.FailureThreshold
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultThresholdConfig.Window
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	if next == nil {
		next = junction.LogAndContinue(logger)
	}
	return &ThresholdPolicy{
		next:     next,
		cfg:      cfg,
		logger:   logger,
		failures: make(map[string]*failureWindow),
	}
}

// HandleFault implements junction.ExceptionPolicy.
func (p *ThresholdPolicy) HandleFault(ctx context.Context, fault *junction.DeliveryFault) junction.Decision {
	decision := p.next.HandleFault(ctx, fault)
	if decision == junction.Abort {
		return decision
	}

	count := p.record(fault.StreamID + "/" + fault.Receiver)
	if count < p.cfg.FailureThreshold {
		return decision
	}

	p.logger.Error("receiver fault threshold reached",
		slog.String("stream_id", fault.StreamID),
		slog.String("receiver", fault.Receiver),
		slog.Int("faults", count),
		slog.Duration("window", p.cfg.Window),
	)
	if count == p.cfg.FailureThreshold && p.cfg.OnTrip != nil {
		p.cfg.OnTrip(fault, count)
	}
	return junction.Abort
}

// record counts a fault and returns the count within the current window.
func (p *ThresholdPolicy) record(key string) int {
	now := p.cfg.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	w, ok := p.failures[key]
	if !ok || now.Sub(w.firstSeenAt) > p.cfg.Window {
		w = &failureWindow{firstSeenAt: now}
		p.failures[key] = w
	}
	w.count++
	return w.count
}

// Count returns the faults counted for a receiver in its current window.
func (p *ThresholdPolicy) Count(streamID, receiver string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, ok := p.failures[streamID+"/"+receiver]
	if !ok || p.cfg.Now().Sub(w.firstSeenAt) > p.cfg.Window {
		return 0
	}
	return w.count
}

// Reset forgets every counted fault.
func (p *ThresholdPolicy) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.failures)
}
