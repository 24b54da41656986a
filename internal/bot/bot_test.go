package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Domenick1991/flightbot/internal/domain"
)

type recordingSender struct {
	texts []string
	chats []int64
}

func (s *recordingSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg := c.(tgbotapi.MessageConfig)
	s.texts = append(s.texts, msg.Text)
	s.chats = append(s.chats, msg.ChatID)
	return tgbotapi.Message{}, nil
}

type MockFlights struct {
	mock.Mock
}

func (m *MockFlights) Lookup(ctx context.Context, fltnr string) ([]domain.FlightRecord, error) {
	args := m.Called(ctx, fltnr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FlightRecord), args.Error(1)
}

func (m *MockFlights) List(ctx context.Context, prefix string) ([]string, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockWeather struct {
	mock.Mock
}

func (m *MockWeather) Metar(ctx context.Context, code string) (string, error) {
	args := m.Called(ctx, code)
	return args.String(0), args.Error(1)
}

type MockTrackerClient struct {
	mock.Mock
}

func (m *MockTrackerClient) Track(ctx context.Context, req domain.SubscribeRequest) (domain.StatusResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.StatusResponse), args.Error(1)
}

func (m *MockTrackerClient) Untrack(ctx context.Context, req domain.SubscribeRequest) (domain.StatusResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.StatusResponse), args.Error(1)
}

type fixture struct {
	bot     *Bot
	sender  *recordingSender
	flights *MockFlights
	weather *MockWeather
	tracker *MockTrackerClient
}

func newFixture() *fixture {
	f := &fixture{
		sender:  &recordingSender{},
		flights: &MockFlights{},
		weather: &MockWeather{},
		tracker: &MockTrackerClient{},
	}
	f.bot = New(f.sender, f.flights, f.weather, f.tracker, time.UTC)
	return f
}

func private(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: 42, Type: "private"},
		From: &tgbotapi.User{ID: 42, FirstName: "Bob", UserName: "bob"},
	}
}

func group(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: -100, Type: "group", Title: "Spotters"},
		From: &tgbotapi.User{ID: 42, FirstName: "Bob"},
	}
}

func TestParseCommand(t *testing.T) {
	cmd, args, ok := parseCommand("/Flight@flightbot  ay123 extra")
	assert.True(t, ok)
	assert.Equal(t, "flight", cmd)
	assert.Equal(t, []string{"ay123", "extra"}, args)

	_, _, ok = parseCommand("hello /flight")
	assert.False(t, ok)
}

func TestFlight(t *testing.T) {
	f := newFixture()
	records := []domain.FlightRecord{
		{FlightNumber: "AY123", SDate: "2026-10-16", Scheduled: domain.Str("2026-10-16T12:00:00Z"), HomeAirport: domain.Str("HEL"), Route: []string{"ARN"}},
		{FlightNumber: "AY123", SDate: "2026-10-16", Arrival: true, Scheduled: domain.Str("2026-10-16T09:00:00Z"), HomeAirport: domain.Str("HEL"), Route: []string{"ARN"}},
	}
	f.flights.On("Lookup", mock.Anything, "AY123").Return(records, nil).Once()

	f.bot.Handle(context.Background(), private("/flight ay123"))

	assert.Equal(t, []string{
		"AY123 HEL - ARN\nDeparture: 16.10. 12:00",
		"AY123 ARN - HEL\nArrival: 16.10. 09:00",
	}, f.sender.texts)
	f.flights.AssertExpectations(t)
}

func TestFlight_Replies(t *testing.T) {
	f := newFixture()
	f.flights.On("Lookup", mock.Anything, "XX1").Return(nil, domain.ErrNotFound).Once()

	f.bot.Handle(context.Background(), private("/flight"))
	f.bot.Handle(context.Background(), private("/flight xx1"))

	assert.Equal(t, []string{"Which flight?", "Flight XX1 not found"}, f.sender.texts)
}

func TestFlights(t *testing.T) {
	f := newFixture()
	f.flights.On("List", mock.Anything, "AY").Return([]string{"AY1", "AY123"}, nil).Once()
	f.flights.On("List", mock.Anything, "ZZ").Return([]string{}, nil).Once()

	f.bot.Handle(context.Background(), private("/flights AY"))
	f.bot.Handle(context.Background(), private("/flights ZZ"))

	assert.Equal(t, []string{"AY1\nAY123", "No flights found"}, f.sender.texts)
}

func TestMetar(t *testing.T) {
	f := newFixture()
	f.weather.On("Metar", mock.Anything, "EFHK").Return("EFHK 161020Z 21012KT 9999 FEW020 08/05 Q1012", nil).Once()
	f.weather.On("Metar", mock.Anything, "XXX").Return("", domain.ErrNoData).Once()

	f.bot.Handle(context.Background(), private("/metar efhk"))
	f.bot.Handle(context.Background(), private("/metar xxx"))
	f.bot.Handle(context.Background(), private("/metar"))

	assert.Equal(t, []string{"EFHK 161020Z 21012KT 9999 FEW020 08/05 Q1012", "XXX not found", "??"}, f.sender.texts)
}

func TestTrack_Private(t *testing.T) {
	f := newFixture()
	f.tracker.On("Track", mock.Anything, domain.SubscribeRequest{FlightNumber: "AY123", UserID: 42}).
		Return(domain.StatusResponse{Status: "success", Message: "Tracker added"}, nil).Once()

	f.bot.Handle(context.Background(), private("/track ay123"))

	assert.Equal(t, []string{"Tracker added"}, f.sender.texts)
	f.tracker.AssertExpectations(t)
}

func TestTrack_Group(t *testing.T) {
	f := newFixture()
	f.tracker.On("Track", mock.Anything, domain.SubscribeRequest{FlightNumber: "AY123", UserID: 42, ChannelID: -100, DisplayName: "Bob"}).
		Return(domain.StatusResponse{Status: "error", Message: "You are already tracking flight AY123"}, nil).Once()

	f.bot.Handle(context.Background(), group("/track@flightbot AY123"))

	assert.Equal(t, []string{"You are already tracking flight AY123"}, f.sender.texts)
	assert.Equal(t, []int64{-100}, f.sender.chats)
}

func TestUntrack_Unavailable(t *testing.T) {
	f := newFixture()
	f.tracker.On("Untrack", mock.Anything, mock.Anything).
		Return(domain.StatusResponse{}, errors.New("connection refused")).Once()

	f.bot.Handle(context.Background(), private("/untrack AY123"))

	assert.Equal(t, []string{"Tracker unavailable, try again later"}, f.sender.texts)
}

func TestIgnoresPlainText(t *testing.T) {
	f := newFixture()

	f.bot.Handle(context.Background(), private("hello"))
	f.bot.Handle(context.Background(), private("/unknown"))

	assert.Empty(t, f.sender.texts)
}

func TestRun(t *testing.T) {
	f := newFixture()
	updates := make(chan tgbotapi.Update, 2)
	updates <- tgbotapi.Update{}
	updates <- tgbotapi.Update{Message: private("/start")}
	close(updates)

	f.bot.Run(context.Background(), updates)

	assert.Equal(t, []string{greeting}, f.sender.texts)
}
