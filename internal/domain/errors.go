package domain

import "errors"

var (
	ErrNotFound        = errors.New("flight not found")
	ErrConnectivity    = errors.New("upstream unreachable")
	ErrAlreadyTracking = errors.New("already tracking")
	ErrNotTracking     = errors.New("not tracking")
	ErrGeneral         = errors.New("general error")
	ErrNoData          = errors.New("no data")
	ErrAirportNotFound = errors.New("airport not found")
)

// TrackingFailed is the user-facing error of the tracker. Message is shown to
// the user as is.
type TrackingFailed struct {
	Message string
	Err     error
}

func (e *TrackingFailed) Error() string {
	return e.Message
}

func (e *TrackingFailed) Unwrap() error {
	return e.Err
}
