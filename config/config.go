package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Telegram TelegramConfig `yaml:"telegram"`
	Source   SourceConfig   `yaml:"source"`
	Tracker  TrackerConfig  `yaml:"tracker"`
	Weather  WeatherConfig  `yaml:"weather"`
	Notify   NotifyConfig   `yaml:"notify"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) Enabled() bool {
	return d.URL != "" || d.Host != ""
}

func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	// zero disables caching of upstream lookups
	LookupTTLSeconds int `yaml:"lookup_ttl_seconds"`
}

func (r RedisConfig) LookupTTL() time.Duration {
	return time.Duration(r.LookupTTLSeconds) * time.Second
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type TelegramConfig struct {
	Token string `yaml:"token"`
	Debug bool   `yaml:"debug"`
}

type SourceConfig struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

type TrackerConfig struct {
	// base URL of the subscription API, used by the bot
	URL                   string `yaml:"url"`
	TickMillis            int    `yaml:"tick_millis"`
	PollIntervalSeconds   int    `yaml:"poll_interval_seconds"`
	HorizonHours          int    `yaml:"horizon_hours"`
	EstimateThresholdSecs int    `yaml:"estimate_threshold_seconds"`
	Timezone              string `yaml:"timezone"`
}

func (t TrackerConfig) Tick() time.Duration {
	return time.Duration(t.TickMillis) * time.Millisecond
}

func (t TrackerConfig) PollInterval() time.Duration {
	return time.Duration(t.PollIntervalSeconds) * time.Second
}

func (t TrackerConfig) Horizon() time.Duration {
	return time.Duration(t.HorizonHours) * time.Hour
}

func (t TrackerConfig) EstimateThreshold() time.Duration {
	return time.Duration(t.EstimateThresholdSecs) * time.Second
}

// Location resolves the configured timezone, falling back to the local zone.
func (t TrackerConfig) Location() *time.Location {
	if t.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

type WeatherConfig struct {
	MetarURL string `yaml:"metar_url"`
}

const (
	TransportTelegram = "telegram"
	TransportKafka    = "kafka"
)

type NotifyConfig struct {
	Transport string `yaml:"transport"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

func LoadConfig(path string) (*Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if cfg.Notify.Transport != TransportTelegram && cfg.Notify.Transport != TransportKafka {
		return nil, fmt.Errorf("unknown notify transport %q", cfg.Notify.Transport)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("SOURCE_URL"); v != "" {
		c.Source.URL = v
	}
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8421"
	}
	if c.GRPC.Address == "" {
		c.GRPC.Address = ":8422"
	}
	if c.Source.TimeoutSeconds == 0 {
		c.Source.TimeoutSeconds = 10
	}
	if c.Tracker.URL == "" {
		c.Tracker.URL = "http://localhost:8421"
	}
	if c.Tracker.TickMillis == 0 {
		c.Tracker.TickMillis = 1000
	}
	if c.Tracker.PollIntervalSeconds == 0 {
		c.Tracker.PollIntervalSeconds = 30
	}
	if c.Tracker.HorizonHours == 0 {
		c.Tracker.HorizonHours = 24
	}
	if c.Tracker.EstimateThresholdSecs == 0 {
		c.Tracker.EstimateThresholdSecs = 60
	}
	if c.Weather.MetarURL == "" {
		c.Weather.MetarURL = "https://tgftp.nws.noaa.gov/data/observations/metar/stations"
	}
	if c.Notify.Transport == "" {
		c.Notify.Transport = TransportTelegram
	}
	if c.Kafka.NotificationsTopic == "" {
		c.Kafka.NotificationsTopic = "flight-notifications"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "flightbot-worker"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
