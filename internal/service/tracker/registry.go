package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Domenick1991/flightbot/internal/domain"
)

var ErrNotRunning = errors.New("tracker is not running")

const generalError = "General error occurred. See logs for details."

// Registry owns every tracked flight. The flight map and the flights
// themselves are only touched by the loop goroutine; subscription requests
// are handed to it as closures.
type Registry struct {
	settings

	tick    time.Duration
	horizon time.Duration

	flights  map[string]*TrackedFlight
	requests chan func(context.Context)

	started  atomic.Bool
	quit     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

func NewRegistry(source Source, sink Sink, opts ...Option) *Registry {
	r := &Registry{
		settings: settings{
			source:            source,
			sink:              sink,
			now:               time.Now,
			loc:               time.Local,
			pollInterval:      defaultPollInterval,
			estimateThreshold: defaultEstimateThreshold,
			log:               log.With().Str("section", "tracker").Logger(),
		},
		tick:     defaultTick,
		horizon:  defaultHorizon,
		flights:  make(map[string]*TrackedFlight),
		requests: make(chan func(context.Context)),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start runs the poll loop in the background. It returns immediately; the
// loop exits on Stop or when ctx is done.
func (r *Registry) Start(ctx context.Context) {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	r.log.Info().Dur("tick", r.tick).Dur("poll", r.pollInterval).Msg("starting tracker")
	go r.run(ctx)
}

// Stop signals the loop to exit and waits for the current tick to finish.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() {
		close(r.quit)
	})
	if r.started.Load() {
		<-r.stopped
	}
}

func (r *Registry) Running() bool {
	if !r.started.Load() {
		return false
	}
	select {
	case <-r.stopped:
		return false
	default:
		return true
	}
}

func (r *Registry) run(ctx context.Context) {
	defer close(r.stopped)

	// in-flight polls and sends finish even when ctx is cancelled
	work := context.WithoutCancel(ctx)

	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-r.quit:
			r.log.Info().Msg("tracker stopped")
			return
		case <-ctx.Done():
			r.log.Info().Msg("tracker context done")
			return
		case req := <-r.requests:
			req(work)
		case <-ticker.C:
			r.sweep(work)
		}
	}
}

// do runs fn on the loop goroutine and waits for it to return.
func (r *Registry) do(ctx context.Context, fn func(context.Context)) error {
	if !r.started.Load() {
		return ErrNotRunning
	}

	var panicked error
	done := make(chan struct{})
	req := func(ctx context.Context) {
		defer close(done)
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error().Interface("panic", rec).Msg("tracker request panicked")
				panicked = &domain.TrackingFailed{
					Message: generalError,
					Err:     fmt.Errorf("%w: panic: %v", domain.ErrGeneral, rec),
				}
			}
		}()
		fn(ctx)
	}

	select {
	case r.requests <- req:
	case <-r.stopped:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}

	<-done
	return panicked
}

func (r *Registry) sweep(ctx context.Context) {
	keys := make([]string, 0, len(r.flights))
	for fltnr := range r.flights {
		keys = append(keys, fltnr)
	}
	sort.Strings(keys)

	for _, fltnr := range keys {
		flight := r.flights[fltnr]
		if flight.NeedsUpdate() {
			r.poll(ctx, flight)
		}
	}

	for _, fltnr := range keys {
		if r.flights[fltnr].IsAbandoned() {
			r.log.Info().Str("fltnr", fltnr).Msg("removing abandoned flight")
			delete(r.flights, fltnr)
		}
	}

	r.updateGauge()
}

func (r *Registry) poll(ctx context.Context, flight *TrackedFlight) {
	defer func() {
		if rec := recover(); rec != nil {
			flight.log.Error().Interface("panic", rec).Msg("flight update panicked")
			r.pollFailed("panic")
			flight.scheduleNext()
		}
	}()

	flight.UpdateStatus(ctx)
}

func (r *Registry) updateGauge() {
	if r.metrics != nil {
		r.metrics.TrackedFlights.Set(float64(len(r.flights)))
	}
}

func (r *Registry) countRequest(op string, err error) {
	if r.metrics == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	r.metrics.Subscriptions.WithLabelValues(op, result).Inc()
}

// AddTracker subscribes the requester to a flight, starting to track the
// flight when nobody tracks it yet. Failures are *domain.TrackingFailed.
func (r *Registry) AddTracker(ctx context.Context, req domain.SubscribeRequest) error {
	var err error
	if doErr := r.do(ctx, func(ctx context.Context) {
		err = r.addTracker(ctx, req)
	}); doErr != nil {
		if errors.Is(doErr, domain.ErrGeneral) {
			r.countRequest("track", doErr)
		}
		return doErr
	}
	r.countRequest("track", err)
	return err
}

// RemoveTracker unsubscribes the requester. A flight nobody tracks anymore
// is dropped right away.
func (r *Registry) RemoveTracker(ctx context.Context, req domain.SubscribeRequest) error {
	var err error
	if doErr := r.do(ctx, func(ctx context.Context) {
		err = r.removeTracker(req)
	}); doErr != nil {
		if errors.Is(doErr, domain.ErrGeneral) {
			r.countRequest("untrack", doErr)
		}
		return doErr
	}
	r.countRequest("untrack", err)
	return err
}

// Tracked lists the tracked flights ordered by flight number.
func (r *Registry) Tracked(ctx context.Context) ([]domain.TrackedFlightInfo, error) {
	var infos []domain.TrackedFlightInfo
	err := r.do(ctx, func(context.Context) {
		infos = make([]domain.TrackedFlightInfo, 0, len(r.flights))
		for _, flight := range r.flights {
			infos = append(infos, flight.Info())
		}
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].FlightNumber < infos[j].FlightNumber })
	return infos, nil
}

func normalize(fltnr string) string {
	return strings.ToUpper(strings.TrimSpace(fltnr))
}

func (r *Registry) addTracker(ctx context.Context, req domain.SubscribeRequest) error {
	fltnr := normalize(req.FlightNumber)

	flight, ok := r.flights[fltnr]
	if !ok {
		var err error
		flight, err = r.createFlight(ctx, fltnr)
		if err != nil {
			return err
		}
		r.log.Info().Str("fltnr", fltnr).Msg("adding flight to tracker")
		r.flights[fltnr] = flight
		r.updateGauge()
	}

	err := flight.AddSubscriber(ctx, req.UserID, req.ChannelID, req.DisplayName)
	if errors.Is(err, domain.ErrAlreadyTracking) {
		return &domain.TrackingFailed{Message: fmt.Sprintf("You are already tracking flight %s", fltnr), Err: err}
	}
	return err
}

func (r *Registry) createFlight(ctx context.Context, fltnr string) (*TrackedFlight, error) {
	flights, err := r.source.GetFlight(ctx, fltnr)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, &domain.TrackingFailed{Message: fmt.Sprintf("Flight %s not found", fltnr), Err: err}
	case err != nil:
		r.log.Warn().Err(err).Str("fltnr", fltnr).Msg("failed to look up flight")
		return nil, &domain.TrackingFailed{
			Message: fmt.Sprintf("Connection error while looking up flight %s. Try again later.", fltnr),
			Err:     err,
		}
	}

	dep, arr := r.pickLegs(flights)
	if dep == nil && arr == nil {
		return nil, &domain.TrackingFailed{Message: fmt.Sprintf("No upcoming flights with code %s", fltnr)}
	}

	flight, err := newTrackedFlight(&r.settings, fltnr, dep, arr)
	if err != nil {
		r.log.Error().Err(err).Str("fltnr", fltnr).Msg("failed to create tracked flight")
		return nil, &domain.TrackingFailed{Message: generalError, Err: err}
	}
	return flight, nil
}

// pickLegs chooses the earliest departure and the earliest arrival still to
// come. A departure must be scheduled within the horizon from now; an arrival
// within the horizon from the chosen departure, or from now without one.
func (r *Registry) pickLegs(flights []domain.FlightRecord) (dep, arr *domain.FlightRecord) {
	var depAt, arrAt time.Time
	for i := range flights {
		f := flights[i]
		if f.IsGone() {
			continue
		}
		at, ok := f.ScheduledTime()
		if !ok {
			continue
		}
		if f.Arrival {
			if arr == nil || at.Before(arrAt) {
				arr, arrAt = &f, at
			}
			continue
		}
		if dep == nil || at.Before(depAt) {
			dep, depAt = &f, at
		}
	}

	now := r.now()
	if dep != nil && depAt.After(now.Add(r.horizon)) {
		dep = nil
	}
	from := now
	if dep != nil {
		from = depAt
	}
	if arr != nil && arrAt.After(from.Add(r.horizon)) {
		arr = nil
	}
	if outOfOrder(dep, arr) {
		dep = nil
	}
	return dep, arr
}

func (r *Registry) removeTracker(req domain.SubscribeRequest) error {
	fltnr := normalize(req.FlightNumber)
	notTracking := &domain.TrackingFailed{
		Message: fmt.Sprintf("You are not tracking flight %s", fltnr),
		Err:     domain.ErrNotTracking,
	}

	flight, ok := r.flights[fltnr]
	if !ok {
		return notTracking
	}
	if err := flight.RemoveSubscriber(req.UserID, req.ChannelID); err != nil {
		return notTracking
	}

	if flight.IsAbandoned() {
		r.log.Info().Str("fltnr", fltnr).Msg("last subscriber left, removing flight")
		delete(r.flights, fltnr)
		r.updateGauge()
	}
	return nil
}
