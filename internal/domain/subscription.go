package domain

import "time"

// Subscriber is a chat user subscribed inside a channel. DisplayName is used
// to mention the user when a notification is posted to the channel.
type Subscriber struct {
	UserID      int64
	DisplayName string
}

type SubscribeRequest struct {
	FlightNumber string
	UserID       int64
	// zero ChannelID means a private subscription
	ChannelID   int64
	DisplayName string
}

func (r SubscribeRequest) IsChannel() bool {
	return r.ChannelID != 0
}

// TrackedFlightInfo is a read-only view of one tracked flight.
type TrackedFlightInfo struct {
	FlightNumber     string    `json:"fltnr"`
	Departure        *LegKey   `json:"departure,omitempty"`
	Arrival          *LegKey   `json:"arrival,omitempty"`
	NextUpdate       time.Time `json:"next_update"`
	PrivateCount     int       `json:"private_subscribers"`
	ChannelCount     int       `json:"channels"`
	ChannelUserCount int       `json:"channel_subscribers"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// TrackPayload is the JSON body of the /track and /untrack endpoints.
type TrackPayload struct {
	FlightNumber string  `json:"fltnr,omitempty"`
	User         *int64  `json:"user,omitempty"`
	Chan         *int64  `json:"chan,omitempty"`
	Notify       *string `json:"notify,omitempty"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
