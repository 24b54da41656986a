package main

import (
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/Domenick1991/flightbot/config"
	"github.com/Domenick1991/flightbot/internal/bot"
	"github.com/Domenick1991/flightbot/internal/cache"
	"github.com/Domenick1991/flightbot/internal/logging"
	"github.com/Domenick1991/flightbot/internal/repository"
	"github.com/Domenick1991/flightbot/internal/service/flights"
	"github.com/Domenick1991/flightbot/internal/service/weather"
	"github.com/Domenick1991/flightbot/internal/source"
	"github.com/Domenick1991/flightbot/internal/trackerclient"
)

var version = "dev"

func main() {
	app := cli.NewApp()
	app.Name = "flightbot"
	app.Version = version
	app.Usage = "Telegram bot for flight status, METAR and flight tracking."
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Path to the YAML config",
			Value:   "config.yaml",
			EnvVars: []string{"CONFIG_PATH"},
		},
	}
	logging.IncludeVerbosityFlags(app)
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("bot failed")
	}
}

func run(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}
	logging.ConfigureFromCli(c, cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var airports weather.AirportLookup
	if cfg.Database.Enabled() {
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := repository.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		airports = repository.NewAirportRepository(pool)
	} else {
		log.Warn().Msg("no database configured, IATA codes are not resolved")
	}

	src := source.NewClient(cfg.Source.URL, cfg.Source.Timeout())
	var flightOpts []flights.Option
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis)
		defer redisCache.Close()
		flightOpts = append(flightOpts, flights.WithCache(redisCache))
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return err
	}
	api.Debug = cfg.Telegram.Debug
	log.Info().Str("username", api.Self.UserName).Msg("authorized")

	b := bot.New(
		api,
		flights.NewFlightService(src, flightOpts...),
		weather.NewService(cfg.Weather.MetarURL, cfg.Source.Timeout(), airports),
		trackerclient.NewClient(cfg.Tracker.URL, cfg.Source.Timeout()),
		cfg.Tracker.Location(),
	)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates, err := api.GetUpdatesChan(u)
	if err != nil {
		return err
	}

	b.Run(ctx, updates)
	log.Info().Msg("bot stopped")
	return nil
}
