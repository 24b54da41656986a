package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/urfave/cli/v2"

	"github.com/Domenick1991/flightbot/config"
	"github.com/Domenick1991/flightbot/internal/kafka"
	"github.com/Domenick1991/flightbot/internal/logging"
	"github.com/Domenick1991/flightbot/internal/notify"
)

var version = "dev"

func main() {
	app := cli.NewApp()
	app.Name = "flightbot worker"
	app.Version = version
	app.Usage = "Delivers queued flight notifications to Telegram."
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
		log.Fatal().Err(err).Msg("worker failed")
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

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return err
	}
	bot.Debug = cfg.Telegram.Debug
	sink := notify.NewTelegramSink(bot)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	logger := log.With().Str("section", "worker").Logger()
	logger.Info().Str("topic", cfg.Kafka.NotificationsTopic).Msg("consuming notifications")

	err = consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
		event, err := kafka.DecodeNotification(msg)
		if err != nil {
			logger.Error().Err(err).Int64("offset", msg.Offset).Msg("dropping malformed notification")
			return nil
		}
		// best effort, a failed delivery is not retried
		if err := sink.Deliver(ctx, event); err != nil {
			logger.Warn().Err(err).Str("id", event.ID).Int64("chat", event.ChatID).Msg("failed to deliver notification")
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info().Msg("worker stopped")
	return nil
}
