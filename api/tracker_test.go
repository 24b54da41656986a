package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Domenick1991/flightbot/internal/domain"
)

type MockTracker struct {
	mock.Mock
}

func (m *MockTracker) AddTracker(ctx context.Context, req domain.SubscribeRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockTracker) RemoveTracker(ctx context.Context, req domain.SubscribeRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockTracker) Tracked(ctx context.Context) ([]domain.TrackedFlightInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TrackedFlightInfo), args.Error(1)
}

func newTestContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func TestTrackerHandler_track(t *testing.T) {
	mockTracker := &MockTracker{}
	handler := NewTrackerHandler(mockTracker)
	c, w := newTestContext("POST", "/track", `{"fltnr":"AY123","user":42}`)

	mockTracker.On("AddTracker", mock.Anything, domain.SubscribeRequest{FlightNumber: "AY123", UserID: 42}).Return(nil).Once()

	handler.track(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","message":"Tracker added"}`, w.Body.String())
	mockTracker.AssertExpectations(t)
}

func TestTrackerHandler_track_channel(t *testing.T) {
	mockTracker := &MockTracker{}
	handler := NewTrackerHandler(mockTracker)
	c, w := newTestContext("POST", "/track", `{"fltnr":"AY123","user":42,"chan":-100,"notify":"Bob"}`)

	mockTracker.On("AddTracker", mock.Anything, domain.SubscribeRequest{
		FlightNumber: "AY123", UserID: 42, ChannelID: -100, DisplayName: "Bob",
	}).Return(nil).Once()

	handler.track(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockTracker.AssertExpectations(t)
}

func TestTrackerHandler_track_invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "no flight", body: `{"user":42}`, message: "Flight number is mandatory"},
		{name: "no user", body: `{"fltnr":"AY123"}`, message: "User ID is mandatory"},
		{name: "channel without notify", body: `{"fltnr":"AY123","user":42,"chan":-100}`, message: "Notify name is mandatory when using channel"},
		{name: "broken json", body: `{"fltnr":`, message: "Invalid request body"},
		{name: "zero channel", body: `{"fltnr":"AY123","user":42,"chan":0,"notify":"bob"}`, message: "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTracker := &MockTracker{}
			handler := NewTrackerHandler(mockTracker)
			c, w := newTestContext("POST", "/track", tt.body)

			handler.track(c)

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.JSONEq(t, `{"status":"error","message":"`+tt.message+`"}`, w.Body.String())
			mockTracker.AssertNotCalled(t, "AddTracker", mock.Anything, mock.Anything)
		})
	}
}

func TestTrackerHandler_untrack_zeroChannel(t *testing.T) {
	mockTracker := &MockTracker{}
	handler := NewTrackerHandler(mockTracker)
	c, w := newTestContext("POST", "/untrack", `{"fltnr":"AY123","user":42,"chan":0}`)

	handler.untrack(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"Invalid request body"}`, w.Body.String())
	mockTracker.AssertNotCalled(t, "RemoveTracker", mock.Anything, mock.Anything)
}

func TestTrackerHandler_track_failed(t *testing.T) {
	mockTracker := &MockTracker{}
	handler := NewTrackerHandler(mockTracker)
	c, w := newTestContext("POST", "/track", `{"fltnr":"AY1","user":42}`)

	mockTracker.On("AddTracker", mock.Anything, mock.Anything).
		Return(&domain.TrackingFailed{Message: "Flight AY1 not found", Err: domain.ErrNotFound}).Once()

	handler.track(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"Flight AY1 not found"}`, w.Body.String())
}

func TestTrackerHandler_track_unavailable(t *testing.T) {
	mockTracker := &MockTracker{}
	handler := NewTrackerHandler(mockTracker)
	c, w := newTestContext("POST", "/track", `{"fltnr":"AY1","user":42}`)

	mockTracker.On("AddTracker", mock.Anything, mock.Anything).Return(errors.New("tracker is not running")).Once()

	handler.track(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"Tracker unavailable, try again later"}`, w.Body.String())
}

func TestTrackerHandler_untrack(t *testing.T) {
	mockTracker := &MockTracker{}
	handler := NewTrackerHandler(mockTracker)
	c, w := newTestContext("POST", "/untrack", `{"fltnr":"AY123","user":42,"chan":-100}`)

	mockTracker.On("RemoveTracker", mock.Anything, domain.SubscribeRequest{FlightNumber: "AY123", UserID: 42, ChannelID: -100}).
		Return(&domain.TrackingFailed{Message: "You are not tracking flight AY123", Err: domain.ErrNotTracking}).Once()

	handler.untrack(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"You are not tracking flight AY123"}`, w.Body.String())
	mockTracker.AssertExpectations(t)
}

func TestTrackerHandler_tracked(t *testing.T) {
	mockTracker := &MockTracker{}
	handler := NewTrackerHandler(mockTracker)
	c, w := newTestContext("GET", "/tracked", "")

	next := time.Date(2026, 10, 16, 10, 0, 30, 0, time.UTC)
	mockTracker.On("Tracked", mock.Anything).Return([]domain.TrackedFlightInfo{{
		FlightNumber: "AY123",
		Departure:    &domain.LegKey{SDate: "2026-10-16"},
		NextUpdate:   next,
		PrivateCount: 1,
	}}, nil).Once()

	handler.tracked(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"fltnr":"AY123","departure":{"sdate":"2026-10-16","arrival":false},"next_update":"2026-10-16T10:00:30Z","private_subscribers":1,"channels":0,"channel_subscribers":0}]`, w.Body.String())
}
