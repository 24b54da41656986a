package tracker

import (
	"strconv"
	"strings"

	"github.com/Domenick1991/flightbot/internal/domain"
)

type ChangeKind string

const (
	ChangeAdded   ChangeKind = "add"
	ChangeRemoved ChangeKind = "remove"
	ChangeChanged ChangeKind = "change"
)

// Field names used in Change.Field.
const (
	FieldFlightNumber = "fltnr"
	FieldSDate        = "sdate"
	FieldArrival      = "arrival"
	FieldScheduled    = "sdt"
	FieldHomeAirport  = "h_apt"
	FieldRoute        = "route"
	FieldAircraftType = "actype"
	FieldAircraftReg  = "acreg"
	FieldGate         = "gate"
	FieldStand        = "park"
	FieldBaggageClaim = "bltarea"
	FieldCheckInArea  = "chkarea"
	FieldCheckInDesk1 = "chkdsk_1"
	FieldCheckInDesk2 = "chkdsk_2"
	FieldCodes        = "cflight"
	FieldStatusCode   = "prm"
	FieldStatusText   = "prt"
	FieldEstimated    = "est_d"
	FieldActual       = "act_d"
)

// Change is one field-level difference between two snapshots of a leg.
type Change struct {
	Kind   ChangeKind
	Field  string
	Before string
	After  string
}

type fieldSpec struct {
	name string
	get  func(*domain.FlightRecord) *string
}

func list(values []string) *string {
	if values == nil {
		return nil
	}
	s := strings.Join(values, ",")
	return &s
}

var fields = []fieldSpec{
	{FieldFlightNumber, func(f *domain.FlightRecord) *string { return &f.FlightNumber }},
	{FieldSDate, func(f *domain.FlightRecord) *string { return &f.SDate }},
	{FieldArrival, func(f *domain.FlightRecord) *string { return domain.Str(strconv.FormatBool(f.Arrival)) }},
	{FieldScheduled, func(f *domain.FlightRecord) *string { return f.Scheduled }},
	{FieldHomeAirport, func(f *domain.FlightRecord) *string { return f.HomeAirport }},
	{FieldRoute, func(f *domain.FlightRecord) *string { return list(f.Route) }},
	{FieldAircraftType, func(f *domain.FlightRecord) *string { return f.AircraftType }},
	{FieldAircraftReg, func(f *domain.FlightRecord) *string { return f.AircraftReg }},
	{FieldGate, func(f *domain.FlightRecord) *string { return f.Gate }},
	{FieldStand, func(f *domain.FlightRecord) *string { return f.Stand }},
	{FieldBaggageClaim, func(f *domain.FlightRecord) *string { return f.BaggageClaim }},
	{FieldCheckInArea, func(f *domain.FlightRecord) *string { return f.CheckInArea }},
	{FieldCheckInDesk1, func(f *domain.FlightRecord) *string { return f.CheckInDesk1 }},
	{FieldCheckInDesk2, func(f *domain.FlightRecord) *string { return f.CheckInDesk2 }},
	{FieldCodes, func(f *domain.FlightRecord) *string { return list(f.Codes) }},
	{FieldStatusCode, func(f *domain.FlightRecord) *string { return f.StatusCode }},
	{FieldStatusText, func(f *domain.FlightRecord) *string { return f.StatusText }},
	{FieldEstimated, func(f *domain.FlightRecord) *string { return f.Estimated }},
	{FieldActual, func(f *domain.FlightRecord) *string { return f.Actual }},
}

// Diff compares two snapshots field by field. A field present in both with
// different values is changed, present only in next is added, present only in
// prev is removed.
func Diff(prev, next *domain.FlightRecord) []Change {
	var changes []Change
	for _, field := range fields {
		before, after := field.get(prev), field.get(next)
		switch {
		case before != nil && after != nil:
			if *before != *after {
				changes = append(changes, Change{Kind: ChangeChanged, Field: field.name, Before: *before, After: *after})
			}
		case before == nil && after != nil:
			changes = append(changes, Change{Kind: ChangeAdded, Field: field.name, After: *after})
		case before != nil && after == nil:
			changes = append(changes, Change{Kind: ChangeRemoved, Field: field.name, Before: *before})
		}
	}
	return changes
}
