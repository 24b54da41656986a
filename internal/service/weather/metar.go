// Package weather fetches METAR observations from the NOAA station files.
package weather

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/Domenick1991/flightbot/internal/domain"
)

var (
	icaoCode = regexp.MustCompile(`^[A-Z0-9]{4}$`)
	iataCode = regexp.MustCompile(`^[A-Z]{3}$`)
)

type AirportLookup interface {
	GetByIATA(ctx context.Context, code string) (*domain.Airport, error)
}

type Service struct {
	baseURL  string
	http     *http.Client
	airports AirportLookup
}

func NewService(baseURL string, timeout time.Duration, airports AirportLookup) *Service {
	return &Service{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		airports: airports,
	}
}

// ResolveICAO accepts an ICAO code as is and maps an IATA code through the
// airport table. Anything else is domain.ErrNoData.
func (s *Service) ResolveICAO(ctx context.Context, code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	switch {
	case icaoCode.MatchString(code):
		return code, nil
	case iataCode.MatchString(code):
		if s.airports == nil {
			return "", domain.ErrNoData
		}
		airport, err := s.airports.GetByIATA(ctx, code)
		if errors.Is(err, domain.ErrAirportNotFound) {
			return "", domain.ErrNoData
		}
		if err != nil {
			return "", err
		}
		return airport.ICAO, nil
	default:
		return "", domain.ErrNoData
	}
}

// Metar returns the latest observation line for an ICAO or IATA code.
func (s *Service) Metar(ctx context.Context, code string) (string, error) {
	icao, err := s.ResolveICAO(ctx, code)
	if err != nil {
		return "", err
	}

	target := fmt.Sprintf("%s/%s.TXT", s.baseURL, icao)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrConnectivity, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", domain.ErrNoData
	}

	// first line is the observation time
	scanner := bufio.NewScanner(resp.Body)
	for line := 0; scanner.Scan(); line++ {
		if line == 1 {
			return strings.TrimSpace(scanner.Text()), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrConnectivity, err)
	}
	return "", domain.ErrNoData
}
