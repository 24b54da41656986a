package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Domenick1991/flightbot/internal/domain"
)

type Tracker interface {
	AddTracker(ctx context.Context, req domain.SubscribeRequest) error
	RemoveTracker(ctx context.Context, req domain.SubscribeRequest) error
	Tracked(ctx context.Context) ([]domain.TrackedFlightInfo, error)
}

type TrackerHandler struct {
	tracker Tracker
}

func NewTrackerHandler(tracker Tracker) *TrackerHandler {
	return &TrackerHandler{tracker: tracker}
}

func (h *TrackerHandler) Register(router *gin.RouterGroup) {
	router.POST("/track", h.track)
	router.POST("/untrack", h.untrack)
	router.GET("/tracked", h.tracked)
}

func respondError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, domain.StatusResponse{Status: domain.StatusError, Message: message})
}

func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, domain.StatusResponse{Status: domain.StatusSuccess, Message: message})
}

// bind parses and validates a subscription payload, answering the request
// itself when the payload is unusable.
func bind(c *gin.Context, needNotify bool) (domain.SubscribeRequest, bool) {
	var payload domain.TrackPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, "Invalid request body")
		return domain.SubscribeRequest{}, false
	}
	if payload.FlightNumber == "" {
		respondError(c, "Flight number is mandatory")
		return domain.SubscribeRequest{}, false
	}
	if payload.User == nil {
		respondError(c, "User ID is mandatory")
		return domain.SubscribeRequest{}, false
	}

	req := domain.SubscribeRequest{FlightNumber: payload.FlightNumber, UserID: *payload.User}
	if payload.Chan != nil {
		// zero is the private subscription
		if *payload.Chan == 0 {
			respondError(c, "Invalid request body")
			return domain.SubscribeRequest{}, false
		}
		if needNotify && (payload.Notify == nil || *payload.Notify == "") {
			respondError(c, "Notify name is mandatory when using channel")
			return domain.SubscribeRequest{}, false
		}
		req.ChannelID = *payload.Chan
		if payload.Notify != nil {
			req.DisplayName = *payload.Notify
		}
	}
	return req, true
}

// failure turns a tracker error into the message shown to the caller.
func failure(err error) string {
	var failed *domain.TrackingFailed
	if errors.As(err, &failed) {
		return failed.Message
	}
	log.Error().Err(err).Str("section", "api").Msg("tracker request failed")
	return "Tracker unavailable, try again later"
}

func (h *TrackerHandler) track(c *gin.Context) {
	req, ok := bind(c, true)
	if !ok {
		return
	}
	if err := h.tracker.AddTracker(c.Request.Context(), req); err != nil {
		respondError(c, failure(err))
		return
	}
	respondSuccess(c, "Tracker added")
}

func (h *TrackerHandler) untrack(c *gin.Context) {
	req, ok := bind(c, false)
	if !ok {
		return
	}
	if err := h.tracker.RemoveTracker(c.Request.Context(), req); err != nil {
		respondError(c, failure(err))
		return
	}
	respondSuccess(c, "Tracker removed")
}

func (h *TrackerHandler) tracked(c *gin.Context) {
	flights, err := h.tracker.Tracked(c.Request.Context())
	if err != nil {
		respondError(c, failure(err))
		return
	}
	c.JSON(http.StatusOK, flights)
}
