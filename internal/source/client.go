// Package source is the HTTP client for the upstream flight proxy.
package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Domenick1991/flightbot/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.With().Str("section", "source").Logger(),
	}
}

type flightsResponse struct {
	Flights *[]map[string]interface{} `json:"flights"`
}

type flightListResponse struct {
	Flights *[]string `json:"flights"`
}

// GetFlight returns every leg the upstream knows for fltnr.
func (c *Client) GetFlight(ctx context.Context, fltnr string) ([]domain.FlightRecord, error) {
	var resp flightsResponse
	if err := c.get(ctx, "flight/"+url.PathEscape(fltnr), &resp); err != nil {
		return nil, err
	}
	if resp.Flights == nil {
		return nil, domain.ErrNotFound
	}

	flights := make([]domain.FlightRecord, 0, len(*resp.Flights))
	for _, raw := range *resp.Flights {
		flights = append(flights, decodeRecord(raw))
	}
	return flights, nil
}

// GetFlights lists the flight numbers the upstream currently knows.
func (c *Client) GetFlights(ctx context.Context) ([]string, error) {
	var resp flightListResponse
	if err := c.get(ctx, "flights", &resp); err != nil {
		return nil, err
	}
	if resp.Flights == nil {
		return nil, domain.ErrNotFound
	}
	return *resp.Flights, nil
}

func (c *Client) get(ctx context.Context, query string, out interface{}) error {
	target := c.baseURL + "/" + query
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("url", target).Msg("upstream request failed")
		return fmt.Errorf("%w: %v", domain.ErrConnectivity, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: upstream status %s", domain.ErrConnectivity, res.Status)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		if res.StatusCode == http.StatusNotFound {
			return domain.ErrNotFound
		}
		return fmt.Errorf("decode %s: %w", target, err)
	}
	return nil
}

var (
	routeKey = regexp.MustCompile(`^route_([0-9]+)$`)
	codeKey  = regexp.MustCompile(`^cflight_([0-9]+)$`)
)

func decodeRecord(raw map[string]interface{}) domain.FlightRecord {
	f := domain.FlightRecord{
		FlightNumber: domain.Value(field(raw, "fltnr")),
		SDate:        domain.Value(field(raw, "sdate")),
		Arrival:      flag(raw, "arrival"),
		Scheduled:    field(raw, "sdt"),
		HomeAirport:  field(raw, "h_apt"),
		AircraftType: field(raw, "actype"),
		AircraftReg:  field(raw, "acreg"),
		Gate:         field(raw, "gate"),
		Stand:        field(raw, "park"),
		BaggageClaim: field(raw, "bltarea"),
		CheckInArea:  field(raw, "chkarea"),
		CheckInDesk1: field(raw, "chkdsk_1"),
		CheckInDesk2: field(raw, "chkdsk_2"),
		StatusCode:   field(raw, "prm"),
		StatusText:   field(raw, "prt"),
		Estimated:    field(raw, "est_d"),
		Actual:       field(raw, "act_d"),
	}
	f.Route = numbered(raw, routeKey)
	f.Codes = numbered(raw, codeKey)
	return f
}

// field returns nil only for a missing key. The proxy sends empty elements
// as null, so null is present-but-empty.
func field(raw map[string]interface{}, key string) *string {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case nil:
		return domain.Str("")
	case string:
		return &t
	case float64:
		s := strconv.FormatFloat(t, 'f', -1, 64)
		return &s
	case bool:
		s := strconv.FormatBool(t)
		return &s
	default:
		s := fmt.Sprint(t)
		return &s
	}
}

func flag(raw map[string]interface{}, key string) bool {
	switch t := raw[key].(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	}
	return false
}

// numbered collects keys like route_1, route_2 in numeric order. Empty values
// keep their slot so that a filled-in waypoint shows up as a change.
func numbered(raw map[string]interface{}, key *regexp.Regexp) []string {
	type entry struct {
		idx   int
		value string
	}
	var entries []entry
	for k := range raw {
		m := key.FindStringSubmatch(k)
		if m == nil {
			continue
		}
		idx, _ := strconv.Atoi(m[1])
		entries = append(entries, entry{idx: idx, value: domain.Value(field(raw, k))})
	}
	if len(entries) == 0 {
		return nil
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].idx < entries[j].idx })
	values := make([]string, 0, len(entries))
	for _, e := range entries {
		values = append(values, e.value)
	}
	return values
}
