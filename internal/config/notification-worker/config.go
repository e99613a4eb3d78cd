package notification_worker_config

import (
	"time"

	"github.com/NordCoder/Restora/internal/obs"
	kafkax "github.com/NordCoder/Restora/internal/repository/kafka"
	"github.com/NordCoder/Restora/internal/repository/redis"
	"github.com/NordCoder/Restora/internal/repository/store"
	fanout "github.com/NordCoder/Restora/internal/services/notification"
	worker "github.com/NordCoder/Restora/internal/services/notification-worker"
)

type KafkaIn struct {
	Brokers       []string `mapstructure:"brokers"`
	Topic         string   `mapstructure:"topic"`
	GroupID       string   `mapstructure:"group_id"`
	Partitions    int      `mapstructure:"partitions"`
	FromBeginning bool     `mapstructure:"from_beginning"`
}

func (k KafkaIn) AsConsumerConfig() *kafkax.ConsumerConfig {
	return &kafkax.ConsumerConfig{
		Brokers:       k.Brokers,
		GroupID:       k.GroupID,
		Topic:         k.Topic,
		Partitions:    k.Partitions,
		FromBeginning: k.FromBeginning,
	}
}

type Server struct {
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type Config struct {
	Storage       store.Config           `mapstructure:"storage"`
	Redis         redis.Config           `mapstructure:"redis"`
	Kafka         KafkaIn                `mapstructure:"kafka"`
	Notifications fanout.Config          `mapstructure:"notifications"`
	Retention     worker.RetentionConfig `mapstructure:"retention"`
	Server        Server                 `mapstructure:"server"`
	OTEL          obs.OTELConfig         `mapstructure:"otel"`
	Log           obs.LogConfig          `mapstructure:"log"`
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
