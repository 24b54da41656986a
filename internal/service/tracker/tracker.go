// Package tracker polls tracked flights and notifies their subscribers about
// changes.
package tracker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Domenick1991/flightbot/internal/domain"
	"github.com/Domenick1991/flightbot/internal/metrics"
)

// Source returns the current records of a flight number.
type Source interface {
	GetFlight(ctx context.Context, fltnr string) ([]domain.FlightRecord, error)
}

// Sink delivers a text message to a user or channel.
type Sink interface {
	Send(ctx context.Context, chatID int64, text string) error
}

const (
	defaultTick              = time.Second
	defaultPollInterval      = 30 * time.Second
	defaultHorizon           = 24 * time.Hour
	defaultEstimateThreshold = time.Minute
)

// settings are shared by the registry and all of its tracked flights.
type settings struct {
	source            Source
	sink              Sink
	now               func() time.Time
	loc               *time.Location
	pollInterval      time.Duration
	estimateThreshold time.Duration
	metrics           *metrics.Metrics
	log               zerolog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithLocation sets the timezone of rendered times.
func WithLocation(loc *time.Location) Option {
	return func(r *Registry) {
		r.loc = loc
	}
}

// WithTickInterval sets how often the loop checks for due flights.
func WithTickInterval(d time.Duration) Option {
	return func(r *Registry) {
		r.tick = d
	}
}

// WithPollInterval sets the delay between two polls of one flight.
func WithPollInterval(d time.Duration) Option {
	return func(r *Registry) {
		r.pollInterval = d
	}
}

// WithHorizon limits how far ahead a leg may be scheduled to be tracked.
func WithHorizon(d time.Duration) Option {
	return func(r *Registry) {
		r.horizon = d
	}
}

// WithEstimateThreshold sets the smallest re-estimate worth a notification.
func WithEstimateThreshold(d time.Duration) Option {
	return func(r *Registry) {
		r.estimateThreshold = d
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) {
		r.log = logger
	}
}

func (s *settings) pollFailed(reason string) {
	if s.metrics != nil {
		s.metrics.PollFailures.WithLabelValues(reason).Inc()
	}
}

func (s *settings) send(ctx context.Context, chatID int64, text string) {
	if err := s.sink.Send(ctx, chatID, text); err != nil {
		s.log.Warn().Err(err).Int64("chat", chatID).Msg("failed to deliver notification")
		if s.metrics != nil {
			s.metrics.NotificationFailures.Inc()
		}
		return
	}
	if s.metrics != nil {
		s.metrics.NotificationsSent.Inc()
	}
}
