package flights

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Domenick1991/flightbot/internal/domain"
	"github.com/Domenick1991/flightbot/internal/metrics"
)

type FlightUseCase interface {
	Lookup(ctx context.Context, fltnr string) ([]domain.FlightRecord, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

type FlightSource interface {
	GetFlight(ctx context.Context, fltnr string) ([]domain.FlightRecord, error)
	GetFlights(ctx context.Context) ([]string, error)
}

// FlightCache reports a miss as (nil, nil).
type FlightCache interface {
	GetFlight(ctx context.Context, fltnr string) ([]domain.FlightRecord, error)
	SetFlight(ctx context.Context, fltnr string, flights []domain.FlightRecord) error
	GetFlights(ctx context.Context) ([]string, error)
	SetFlights(ctx context.Context, flights []string) error
}

type FlightService struct {
	source  FlightSource
	cache   FlightCache
	metrics *metrics.Metrics
	log     zerolog.Logger
}

type Option func(*FlightService)

func WithCache(cache FlightCache) Option {
	return func(s *FlightService) {
		s.cache = cache
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *FlightService) {
		s.metrics = m
	}
}

func NewFlightService(source FlightSource, opts ...Option) *FlightService {
	s := &FlightService{
		source: source,
		log:    log.With().Str("section", "flights").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FlightService) count(result string) {
	if s.metrics != nil {
		s.metrics.Lookups.WithLabelValues(result).Inc()
	}
}

// Lookup returns every leg of fltnr, from the cache when possible.
func (s *FlightService) Lookup(ctx context.Context, fltnr string) ([]domain.FlightRecord, error) {
	fltnr = strings.ToUpper(strings.TrimSpace(fltnr))

	if s.cache != nil {
		cached, err := s.cache.GetFlight(ctx, fltnr)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("fltnr", fltnr).Msg("flight cache unavailable")
			s.count("error")
		case cached != nil:
			s.count("hit")
			return cached, nil
		default:
			s.count("miss")
		}
	}

	flights, err := s.source.GetFlight(ctx, fltnr)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetFlight(ctx, fltnr, flights)
	}
	return flights, nil
}

// List returns the known flight numbers starting with prefix, sorted.
func (s *FlightService) List(ctx context.Context, prefix string) ([]string, error) {
	all, err := s.all(ctx)
	if err != nil {
		return nil, err
	}

	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	matching := make([]string, 0, len(all))
	for _, fltnr := range all {
		if strings.HasPrefix(strings.ToUpper(fltnr), prefix) {
			matching = append(matching, fltnr)
		}
	}
	sort.Strings(matching)
	return matching, nil
}

func (s *FlightService) all(ctx context.Context) ([]string, error) {
	if s.cache != nil {
		cached, err := s.cache.GetFlights(ctx)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Msg("flight list cache unavailable")
			s.count("error")
		case cached != nil:
			s.count("hit")
			return cached, nil
		default:
			s.count("miss")
		}
	}

	flights, err := s.source.GetFlights(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetFlights(ctx, flights)
	}
	return flights, nil
}

var _ FlightUseCase = (*FlightService)(nil)
