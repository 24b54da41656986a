// Package format renders flight records into chat text.
package format

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Domenick1991/flightbot/internal/domain"
)

const timeLayout = "02.01. 15:04"

// Renderer renders one line of a flight record or returns domain.ErrNoData.
type Renderer func(*Formatter) (string, error)

type Formatter struct {
	flight *domain.FlightRecord
	loc    *time.Location
}

func New(flight *domain.FlightRecord, loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.Local
	}
	return &Formatter{flight: flight, loc: loc}
}

func (f *Formatter) path() []string {
	var points []string
	for _, p := range f.flight.Route {
		if p != "" {
			points = append(points, p)
		}
	}

	apt := domain.Value(f.flight.HomeAirport)
	if apt == "" {
		return points
	}
	if f.flight.Arrival {
		return append(points, apt)
	}
	return append([]string{apt}, points...)
}

func (f *Formatter) clock(s *string) (string, bool) {
	t, ok := domain.ParseTime(s)
	if !ok {
		return "", false
	}
	return t.In(f.loc).Format(timeLayout), true
}

func (f *Formatter) Name() (string, error) {
	path := f.path()
	if len(path) == 0 {
		return f.flight.FlightNumber, nil
	}
	return fmt.Sprintf("%s %s", f.flight.FlightNumber, strings.Join(path, " - ")), nil
}

func (f *Formatter) Time() (string, error) {
	t, ok := f.clock(f.flight.Scheduled)
	if !ok {
		return "", domain.ErrNoData
	}
	action := "Departure"
	if f.flight.Arrival {
		action = "Arrival"
	}
	return fmt.Sprintf("%s: %s", action, t), nil
}

func (f *Formatter) Aircraft() (string, error) {
	actype := domain.Value(f.flight.AircraftType)
	acreg := domain.Value(f.flight.AircraftReg)

	switch {
	case actype == "" && acreg == "":
		return "", domain.ErrNoData
	case acreg == "":
		return fmt.Sprintf("Aircraft: %s", actype), nil
	default:
		return fmt.Sprintf("Aircraft: %s (%s)", actype, acreg), nil
	}
}

func (f *Formatter) Gate() (string, error) {
	gate := domain.Value(f.flight.Gate)
	if gate == "" {
		return "", domain.ErrNoData
	}
	return fmt.Sprintf("Gate: %s", gate), nil
}

// Stand has no data when the stand equals the gate.
func (f *Formatter) Stand() (string, error) {
	park := domain.Value(f.flight.Stand)
	if park == "" || park == domain.Value(f.flight.Gate) {
		return "", domain.ErrNoData
	}
	return fmt.Sprintf("Stand: %s", park), nil
}

func (f *Formatter) Baggage() (string, error) {
	belt := domain.Value(f.flight.BaggageClaim)
	if belt == "" {
		return "", domain.ErrNoData
	}
	return fmt.Sprintf("Baggage claim: %s", belt), nil
}

func (f *Formatter) CheckIn() (string, error) {
	area := domain.Value(f.flight.CheckInArea)
	if area == "" {
		return "", domain.ErrNoData
	}

	desk1 := domain.Value(f.flight.CheckInDesk1)
	desk2 := domain.Value(f.flight.CheckInDesk2)
	if desk1 != "" && desk2 != "" {
		return fmt.Sprintf("Check-in: Area %s (Desk %s - %s)", area, desk1, desk2), nil
	}
	return fmt.Sprintf("Check-in: Area %s", area), nil
}

func (f *Formatter) Codes() (string, error) {
	var codes []string
	for _, c := range f.flight.Codes {
		if c != "" {
			codes = append(codes, c)
		}
	}
	if len(codes) == 0 {
		return "", domain.ErrNoData
	}
	sort.Strings(codes)
	return fmt.Sprintf("Alternative codes: %s", strings.Join(codes, ", ")), nil
}

func (f *Formatter) Status() (string, error) {
	status := f.flight.Status()
	if status == "" {
		return "", domain.ErrNoData
	}
	return fmt.Sprintf("Status: %s", status), nil
}

func (f *Formatter) Estimated() (string, error) {
	t, ok := f.clock(f.flight.Estimated)
	if !ok {
		return "", domain.ErrNoData
	}
	return fmt.Sprintf("Estimated: %s", t), nil
}

func (f *Formatter) Actual() (string, error) {
	t, ok := f.clock(f.flight.Actual)
	if !ok {
		return "", domain.ErrNoData
	}
	return fmt.Sprintf("Actual: %s", t), nil
}

var all = []Renderer{
	(*Formatter).Name,
	(*Formatter).Time,
	(*Formatter).Aircraft,
	(*Formatter).Gate,
	(*Formatter).Stand,
	(*Formatter).Baggage,
	(*Formatter).CheckIn,
	(*Formatter).Codes,
	(*Formatter).Status,
	(*Formatter).Estimated,
	(*Formatter).Actual,
}

// Text renders every line that has data, one per line.
func (f *Formatter) Text() string {
	lines := make([]string, 0, len(all))
	for _, render := range all {
		line, err := render(f)
		if err != nil {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
