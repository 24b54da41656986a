package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const (
	flagLogLevel = "log-level"
	flagPretty   = "pretty"
)

// IncludeVerbosityFlags adds the logging flags to a cli app.
func IncludeVerbosityFlags(app *cli.App) {
	app.Flags = append(app.Flags, []cli.Flag{
		&cli.StringFlag{
			Name:    flagLogLevel,
			Usage:   "trace, debug, info, warn or error. Overrides the config file",
			EnvVars: []string{"LOG_LEVEL"},
		},
		&cli.BoolFlag{
			Name:    flagPretty,
			Usage:   "Human readable console output instead of JSON",
			EnvVars: []string{"LOG_PRETTY"},
		},
	}...)
}

// Configure sets the global level and output. An empty or unknown level means info.
func Configure(level string, pretty bool) {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// ConfigureFromCli lets the command line win over the config file.
func ConfigureFromCli(c *cli.Context, level string, pretty bool) {
	if c.IsSet(flagLogLevel) {
		level = c.String(flagLogLevel)
	}
	if c.IsSet(flagPretty) {
		pretty = c.Bool(flagPretty)
	}
	Configure(level, pretty)
}
