package api_gateway_config

import (
	"time"

	"github.com/NordCoder/Restora/internal/obs"
	"github.com/NordCoder/Restora/internal/outbox"
	"github.com/NordCoder/Restora/internal/repository/redis"
	"github.com/NordCoder/Restora/internal/repository/store"
	"github.com/NordCoder/Restora/internal/services/api-gateway/realtime"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type Auth struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type Kafka struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Realtime struct {
	realtime.Config `mapstructure:",squash"`
	Origins         []string `mapstructure:"origins"`
}

type Config struct {
	App      App            `mapstructure:"app"`
	Server   Server         `mapstructure:"server"`
	Storage  store.Config   `mapstructure:"storage"`
	Redis    redis.Config   `mapstructure:"redis"`
	Kafka    Kafka          `mapstructure:"kafka"`
	Outbox   outbox.Config  `mapstructure:"outbox"`
	Realtime Realtime       `mapstructure:"realtime"`
	OTEL     obs.OTELConfig `mapstructure:"otel"`
	Log      Log            `mapstructure:"log"`
	Auth     Auth           `mapstructure:"auth"`
}

func (c *Config) LoggerConfig() obs.LogConfig {
	return obs.LogConfig{
		Level:  c.Log.Level,
		Pretty: c.Log.Pretty,
		App:    c.App.Name,
		Env:    c.App.Env,
		Ver:    c.App.Version,
	}
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
