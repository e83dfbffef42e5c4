package notification_service_config

import (
	"strings"
	"time"

	domainauth "github.com/NordCoder/Credgate/internal/domain/auth"
	"github.com/NordCoder/Credgate/internal/obs"
	"github.com/NordCoder/Credgate/internal/repository/kafka"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

// Auth holds what this service needs to check callers: the access secret
// for bearer tokens and the shared webhook secret. It never issues tokens.
type Auth struct {
	AccessSecret  string `mapstructure:"access_secret"`
	Issuer        string `mapstructure:"issuer"`
	Audience      string `mapstructure:"audience"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	MaxBodyBytes  int64  `mapstructure:"max_body_bytes"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type Config struct {
	App    App                  `mapstructure:"app"`
	Server Server               `mapstructure:"server"`
	Auth   Auth                 `mapstructure:"auth"`
	Kafka  kafka.ProducerConfig `mapstructure:"kafka"`
	OTEL   OTEL                 `mapstructure:"otel"`
	Log    Log                  `mapstructure:"log"`
}

func (c *Config) LogConfig() obs.LogConfig {
	return obs.LogConfig{
		Level:  c.Log.Level,
		Pretty: c.Log.Pretty,
		App:    c.App.Name,
		Env:    c.App.Env,
		Ver:    c.App.Version,
	}
}

func (c *Config) OTELConfig() obs.OTELConfig {
	return obs.OTELConfig{
		Enable:      c.OTEL.Enable,
		Endpoint:    c.OTEL.OTLPEndpoint,
		ServiceName: c.OTEL.ServiceName,
		Version:     c.App.Version,
		Env:         c.App.Env,
		SampleRatio: c.OTEL.SampleRatio,
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.AccessSecret) == "" {
		return domainauth.Configuration("auth.access_secret is required")
	}
	if c.Auth.WebhookSecret == "" {
		return domainauth.Configuration("auth.webhook_secret is required")
	}
	if len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "" {
		return domainauth.Configuration("kafka.brokers and kafka.topic are required")
	}
	return nil
}
