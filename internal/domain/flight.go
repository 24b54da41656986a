package domain

import "time"

// TimeLayout is the upstream timestamp format. Timestamps are UTC.
const TimeLayout = "2006-01-02T15:04:05Z"

const (
	StatusDeparted  = "Departed"
	StatusLanded    = "Landed"
	StatusCancelled = "Cancelled"
)

// FlightRecord is one leg of one flight at one scheduled date.
//
// Optional fields are pointers: nil means the upstream did not send the field,
// a pointer to "" means the field was sent empty.
type FlightRecord struct {
	FlightNumber string `json:"fltnr"`
	SDate        string `json:"sdate"`
	Arrival      bool   `json:"arrival"`

	Scheduled   *string  `json:"sdt,omitempty"`
	HomeAirport *string  `json:"h_apt,omitempty"`
	Route       []string `json:"route,omitempty"`

	AircraftType *string `json:"actype,omitempty"`
	AircraftReg  *string `json:"acreg,omitempty"`

	Gate         *string  `json:"gate,omitempty"`
	Stand        *string  `json:"park,omitempty"`
	BaggageClaim *string  `json:"bltarea,omitempty"`
	CheckInArea  *string  `json:"chkarea,omitempty"`
	CheckInDesk1 *string  `json:"chkdsk_1,omitempty"`
	CheckInDesk2 *string  `json:"chkdsk_2,omitempty"`
	Codes        []string `json:"cflight,omitempty"`

	StatusCode *string `json:"prm,omitempty"`
	StatusText *string `json:"prt,omitempty"`
	Estimated  *string `json:"est_d,omitempty"`
	Actual     *string `json:"act_d,omitempty"`
}

// LegKey identifies the same leg across two snapshots.
type LegKey struct {
	SDate   string `json:"sdate"`
	Arrival bool   `json:"arrival"`
}

func (f *FlightRecord) Key() LegKey {
	return LegKey{SDate: f.SDate, Arrival: f.Arrival}
}

func (f *FlightRecord) ScheduledTime() (time.Time, bool) {
	return ParseTime(f.Scheduled)
}

func (f *FlightRecord) EstimatedTime() (time.Time, bool) {
	return ParseTime(f.Estimated)
}

func (f *FlightRecord) ActualTime() (time.Time, bool) {
	return ParseTime(f.Actual)
}

// Status returns the free-text status, or "" when unknown.
func (f *FlightRecord) Status() string {
	return Value(f.StatusText)
}

// IsGone reports whether the leg has already left, landed or been cancelled.
func (f *FlightRecord) IsGone() bool {
	switch f.Status() {
	case StatusDeparted, StatusLanded, StatusCancelled:
		return true
	}
	return false
}

// ParseTime parses an upstream timestamp; absent, empty and malformed values
// report false.
func ParseTime(s *string) (time.Time, bool) {
	if s == nil || *s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(TimeLayout, *s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// Value dereferences an optional string field.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Str is a helper for building optional fields.
func Str(s string) *string {
	return &s
}
