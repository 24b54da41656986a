package main

import (
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/Domenick1991/flightbot/config"
	"github.com/Domenick1991/flightbot/internal/bootstrap"
	"github.com/Domenick1991/flightbot/internal/cache"
	"github.com/Domenick1991/flightbot/internal/kafka"
	"github.com/Domenick1991/flightbot/internal/logging"
	"github.com/Domenick1991/flightbot/internal/metrics"
	"github.com/Domenick1991/flightbot/internal/notify"
	"github.com/Domenick1991/flightbot/internal/service/flights"
	"github.com/Domenick1991/flightbot/internal/service/tracker"
	"github.com/Domenick1991/flightbot/internal/source"
)

var version = "dev"

func main() {
	app := cli.NewApp()
	app.Name = "flightbot tracker"
	app.Version = version
	app.Usage = "Tracks flights and notifies subscribers about changes."
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
		log.Fatal().Err(err).Msg("tracker failed")
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

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics("flightbot", reg)

	src := source.NewClient(cfg.Source.URL, cfg.Source.Timeout())

	var sink tracker.Sink
	switch cfg.Notify.Transport {
	case config.TransportKafka:
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		if err := producer.CheckConnection(ctx); err != nil {
			log.Warn().Err(err).Msg("kafka not reachable yet")
		}
		sink = notify.NewKafkaSink(producer, cfg.Kafka.NotificationsTopic)
	default:
		bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			return err
		}
		bot.Debug = cfg.Telegram.Debug
		sink = notify.NewTelegramSink(bot)
	}

	registry := tracker.NewRegistry(src, sink,
		tracker.WithLocation(cfg.Tracker.Location()),
		tracker.WithTickInterval(cfg.Tracker.Tick()),
		tracker.WithPollInterval(cfg.Tracker.PollInterval()),
		tracker.WithHorizon(cfg.Tracker.Horizon()),
		tracker.WithEstimateThreshold(cfg.Tracker.EstimateThreshold()),
		tracker.WithMetrics(m),
	)
	registry.Start(ctx)
	defer registry.Stop()

	flightOpts := []flights.Option{flights.WithMetrics(m)}
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis)
		defer redisCache.Close()
		flightOpts = append(flightOpts, flights.WithCache(redisCache))
	}
	flightService := flights.NewFlightService(src, flightOpts...)

	log.Info().Str("version", version).Str("transport", cfg.Notify.Transport).Msg("starting tracker service")
	return bootstrap.Run(ctx, cfg, bootstrap.Deps{
		Tracker:  registry,
		Flights:  flightService,
		Gatherer: reg,
		Location: cfg.Tracker.Location(),
	})
}
