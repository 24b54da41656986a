// Package bot answers chat commands: flight lookups, METAR reports and
// tracking requests.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Domenick1991/flightbot/internal/domain"
	"github.com/Domenick1991/flightbot/internal/format"
	"github.com/Domenick1991/flightbot/internal/notify"
	"github.com/Domenick1991/flightbot/internal/service/flights"
)

const greeting = "Hi! I know the flights of the day.\n" +
	"/flight AY123 shows a flight\n" +
	"/flights AY lists flight numbers\n" +
	"/metar EFHK or /metar HEL shows the weather\n" +
	"/track AY123 and /untrack AY123 manage change notifications"

type Weather interface {
	Metar(ctx context.Context, code string) (string, error)
}

type TrackerClient interface {
	Track(ctx context.Context, req domain.SubscribeRequest) (domain.StatusResponse, error)
	Untrack(ctx context.Context, req domain.SubscribeRequest) (domain.StatusResponse, error)
}

type Bot struct {
	sender  notify.Sender
	flights flights.FlightUseCase
	weather Weather
	tracker TrackerClient
	loc     *time.Location
	log     zerolog.Logger
}

func New(sender notify.Sender, flights flights.FlightUseCase, weather Weather, tracker TrackerClient, loc *time.Location) *Bot {
	return &Bot{
		sender:  sender,
		flights: flights,
		weather: weather,
		tracker: tracker,
		loc:     loc,
		log:     log.With().Str("section", "bot").Logger(),
	}
}

// Run handles updates until ctx is done or the channel closes.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			b.Handle(ctx, update.Message)
		}
	}
}

// parseCommand splits "/cmd@bot arg1 arg2" into "cmd" and its arguments.
func parseCommand(text string) (string, []string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil, false
	}
	cmd := strings.TrimPrefix(fields[0], "/")
	if i := strings.Index(cmd, "@"); i != -1 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd), fields[1:], true
}

func (b *Bot) Handle(ctx context.Context, message *tgbotapi.Message) {
	cmd, args, ok := parseCommand(message.Text)
	if !ok {
		return
	}
	b.logMessage(message)

	switch cmd {
	case "start":
		b.reply(message, greeting)
	case "flight":
		b.cmdFlight(ctx, message, args)
	case "flights":
		b.cmdFlights(ctx, message, args)
	case "metar":
		b.cmdMetar(ctx, message, args)
	case "track":
		b.cmdTrack(ctx, message, args, false)
	case "untrack":
		b.cmdTrack(ctx, message, args, true)
	}
}

func (b *Bot) logMessage(message *tgbotapi.Message) {
	event := b.log.Info().Int64("chat", message.Chat.ID).Str("type", message.Chat.Type)
	if message.Chat.Title != "" {
		event = event.Str("title", message.Chat.Title)
	}
	if message.From != nil {
		sender := message.From.UserName
		if sender == "" {
			sender = strings.TrimSpace(message.From.FirstName + " " + message.From.LastName)
		}
		event = event.Str("from", sender)
	}
	event.Msg(message.Text)
}

func (b *Bot) reply(message *tgbotapi.Message, text string) {
	msg := tgbotapi.MessageConfig{
		BaseChat: tgbotapi.BaseChat{
			ChatID: message.Chat.ID,
		},
		Text: text,
	}
	if _, err := b.sender.Send(msg); err != nil {
		b.log.Warn().Err(err).Int64("chat", message.Chat.ID).Msg("failed to reply")
	}
}

func (b *Bot) cmdFlight(ctx context.Context, message *tgbotapi.Message, args []string) {
	if len(args) == 0 {
		b.reply(message, "Which flight?")
		return
	}
	fltnr := strings.ToUpper(args[0])

	records, err := b.flights.Lookup(ctx, fltnr)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			b.log.Error().Err(err).Str("fltnr", fltnr).Msg("flight lookup failed")
		}
		b.reply(message, fmt.Sprintf("Flight %s not found", fltnr))
		return
	}
	if len(records) == 0 {
		b.reply(message, fmt.Sprintf("Flight %s not found", fltnr))
		return
	}

	for i := range records {
		b.reply(message, format.New(&records[i], b.loc).Text())
	}
}

func (b *Bot) cmdFlights(ctx context.Context, message *tgbotapi.Message, args []string) {
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}

	numbers, err := b.flights.List(ctx, prefix)
	if err != nil {
		b.log.Error().Err(err).Msg("flight list failed")
	}
	if len(numbers) == 0 {
		b.reply(message, "No flights found")
		return
	}
	b.reply(message, strings.Join(numbers, "\n"))
}

func (b *Bot) cmdMetar(ctx context.Context, message *tgbotapi.Message, args []string) {
	if len(args) == 0 {
		b.reply(message, "??")
		return
	}
	code := strings.ToUpper(args[0])

	metar, err := b.weather.Metar(ctx, code)
	if err != nil {
		if !errors.Is(err, domain.ErrNoData) {
			b.log.Error().Err(err).Str("code", code).Msg("metar lookup failed")
		}
		b.reply(message, fmt.Sprintf("%s not found", code))
		return
	}
	b.reply(message, metar)
}

func (b *Bot) cmdTrack(ctx context.Context, message *tgbotapi.Message, args []string, untrack bool) {
	if len(args) == 0 {
		b.reply(message, "Which flight?")
		return
	}
	if message.From == nil {
		return
	}

	req := domain.SubscribeRequest{
		FlightNumber: strings.ToUpper(args[0]),
		UserID:       int64(message.From.ID),
	}
	if !message.Chat.IsPrivate() {
		req.ChannelID = message.Chat.ID
		req.DisplayName = message.From.FirstName
	}

	call := b.tracker.Track
	if untrack {
		call = b.tracker.Untrack
	}
	res, err := call(ctx, req)
	if err != nil {
		b.log.Error().Err(err).Str("fltnr", req.FlightNumber).Msg("tracker request failed")
		b.reply(message, "Tracker unavailable, try again later")
		return
	}
	b.reply(message, res.Message)
}
