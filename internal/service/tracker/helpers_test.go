package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Domenick1991/flightbot/internal/domain"
)

var baseTime = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

func leg(fltnr string, at time.Time, arrival bool) domain.FlightRecord {
	return domain.FlightRecord{
		FlightNumber: fltnr,
		SDate:        at.Format("2006-01-02"),
		Arrival:      arrival,
		Scheduled:    domain.Str(at.UTC().Format(domain.TimeLayout)),
		HomeAirport:  domain.Str("HEL"),
		Route:        []string{"ARN"},
	}
}

func departure(fltnr string, at time.Time) domain.FlightRecord {
	return leg(fltnr, at, false)
}

func arrival(fltnr string, at time.Time) domain.FlightRecord {
	return leg(fltnr, at, true)
}

type stubSource struct {
	mu      sync.Mutex
	flights []domain.FlightRecord
	err     error
	panics  bool
	calls   int
}

func (s *stubSource) set(flights []domain.FlightRecord, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flights, s.err = flights, err
}

func (s *stubSource) GetFlight(_ context.Context, _ string) ([]domain.FlightRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.panics {
		panic("boom")
	}
	if s.err != nil {
		return nil, s.err
	}
	return append([]domain.FlightRecord(nil), s.flights...), nil
}

type sentMessage struct {
	chat int64
	text string
}

type recordingSink struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (s *recordingSink) Send(_ context.Context, chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMessage{chat: chatID, text: text})
	return nil
}

func (s *recordingSink) messages() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMessage(nil), s.sent...)
}

func (s *recordingSink) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: baseTime}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testSettings(src Source, sink Sink, clock *fakeClock) *settings {
	return &settings{
		source:            src,
		sink:              sink,
		now:               clock.Now,
		loc:               time.UTC,
		pollInterval:      defaultPollInterval,
		estimateThreshold: defaultEstimateThreshold,
		log:               zerolog.Nop(),
	}
}
