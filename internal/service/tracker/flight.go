package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Domenick1991/flightbot/internal/domain"
	"github.com/Domenick1991/flightbot/internal/format"
)

// TrackedFlight holds the known state of one flight number: at most one
// departure and one arrival leg, plus the users and channels subscribed to it.
// It is only touched from the registry loop.
type TrackedFlight struct {
	s     *settings
	log   zerolog.Logger
	fltnr string
	dep   *domain.FlightRecord
	arr   *domain.FlightRecord
	next  time.Time
	users []int64
	chans map[int64][]domain.Subscriber
}

func newTrackedFlight(s *settings, fltnr string, dep, arr *domain.FlightRecord) (*TrackedFlight, error) {
	if dep == nil && arr == nil {
		return nil, fmt.Errorf("%w: flight %s has no legs", domain.ErrGeneral, fltnr)
	}
	if outOfOrder(dep, arr) {
		return nil, fmt.Errorf("%w: flight %s departs after it arrives", domain.ErrGeneral, fltnr)
	}

	t := &TrackedFlight{
		s:     s,
		log:   s.log.With().Str("fltnr", fltnr).Logger(),
		fltnr: fltnr,
		dep:   dep,
		arr:   arr,
		chans: make(map[int64][]domain.Subscriber),
	}
	t.scheduleNext()
	return t, nil
}

// outOfOrder reports a departure scheduled after the arrival.
func outOfOrder(dep, arr *domain.FlightRecord) bool {
	if dep == nil || arr == nil {
		return false
	}
	depT, okDep := dep.ScheduledTime()
	arrT, okArr := arr.ScheduledTime()
	return okDep && okArr && depT.After(arrT)
}

func (t *TrackedFlight) scheduleNext() {
	t.next = t.s.now().Add(t.s.pollInterval)
}

func (t *TrackedFlight) NeedsUpdate() bool {
	return !t.s.now().Before(t.next)
}

// UpdateStatus polls the source and notifies subscribers about the changes of
// every leg still held. A flight that disappeared or completed drops all of
// its subscribers and is not rescheduled.
func (t *TrackedFlight) UpdateStatus(ctx context.Context) {
	if t.s.metrics != nil {
		t.s.metrics.Polls.Inc()
	}

	flights, err := t.s.source.GetFlight(ctx, t.fltnr)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		t.log.Info().Msg("flight disappeared, dropping subscribers")
		t.s.pollFailed("not_found")
		t.clearSubscribers()
		return
	case err != nil:
		// keep state and subscribers, retry on the next cycle
		t.log.Error().Err(err).Msg("failed to poll flight")
		t.s.pollFailed("upstream")
		t.scheduleNext()
		return
	}

	t.dep = t.refresh(ctx, t.dep, flights)
	t.arr = t.refresh(ctx, t.arr, flights)
	if outOfOrder(t.dep, t.arr) {
		t.log.Info().Msg("departure now after arrival, dropping departure leg")
		t.dep = nil
	}

	if t.dep == nil && t.arr == nil {
		t.log.Info().Msg("no legs left, flight complete")
		t.clearSubscribers()
		return
	}

	t.scheduleNext()
}

// refresh returns the new snapshot of held, or nil when the source no longer
// returns a matching leg.
func (t *TrackedFlight) refresh(ctx context.Context, held *domain.FlightRecord, flights []domain.FlightRecord) *domain.FlightRecord {
	if held == nil {
		return nil
	}

	for i := range flights {
		if flights[i].Key() != held.Key() {
			continue
		}
		next := flights[i]
		changes := Diff(held, &next)
		if len(changes) == 0 {
			return held
		}
		t.log.Debug().Int("changes", len(changes)).Bool("arrival", held.Arrival).Msg("leg changed")
		t.sendNotifies(ctx, held, &next, changes)
		return &next
	}

	t.log.Info().Str("sdate", held.SDate).Bool("arrival", held.Arrival).Msg("leg no longer listed")
	return nil
}

// AddSubscriber subscribes user privately when channel is zero, otherwise
// inside channel under displayName. A new private subscriber is sent the
// current state right away.
func (t *TrackedFlight) AddSubscriber(ctx context.Context, user, channel int64, displayName string) error {
	if channel == 0 {
		for _, u := range t.users {
			if u == user {
				return domain.ErrAlreadyTracking
			}
		}
		t.users = append(t.users, user)
		t.pushState(ctx, user)
		return nil
	}

	for _, sub := range t.chans[channel] {
		if sub.UserID == user {
			return domain.ErrAlreadyTracking
		}
	}
	t.chans[channel] = append(t.chans[channel], domain.Subscriber{UserID: user, DisplayName: displayName})
	return nil
}

func (t *TrackedFlight) RemoveSubscriber(user, channel int64) error {
	if channel == 0 {
		for i, u := range t.users {
			if u == user {
				t.users = append(t.users[:i], t.users[i+1:]...)
				return nil
			}
		}
		return domain.ErrNotTracking
	}

	subs := t.chans[channel]
	for i, sub := range subs {
		if sub.UserID != user {
			continue
		}
		subs = append(subs[:i], subs[i+1:]...)
		if len(subs) == 0 {
			delete(t.chans, channel)
		} else {
			t.chans[channel] = subs
		}
		return nil
	}
	return domain.ErrNotTracking
}

func (t *TrackedFlight) IsAbandoned() bool {
	return len(t.users) == 0 && len(t.chans) == 0
}

func (t *TrackedFlight) clearSubscribers() {
	t.users = nil
	t.chans = make(map[int64][]domain.Subscriber)
}

func (t *TrackedFlight) pushState(ctx context.Context, user int64) {
	for _, leg := range []*domain.FlightRecord{t.dep, t.arr} {
		if leg == nil {
			continue
		}
		t.s.send(ctx, user, format.New(leg, t.s.loc).Text())
	}
}

func (t *TrackedFlight) Info() domain.TrackedFlightInfo {
	info := domain.TrackedFlightInfo{
		FlightNumber: t.fltnr,
		NextUpdate:   t.next,
		PrivateCount: len(t.users),
		ChannelCount: len(t.chans),
	}
	if t.dep != nil {
		key := t.dep.Key()
		info.Departure = &key
	}
	if t.arr != nil {
		key := t.arr.Key()
		info.Arrival = &key
	}
	for _, subs := range t.chans {
		info.ChannelUserCount += len(subs)
	}
	return info
}
