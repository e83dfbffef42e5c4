package notification_service_config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	v.SetDefault("app.name", "notification-service")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("server.http_addr", ":8081")
	v.SetDefault("server.read_timeout", "5s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.graceful_timeout", "15s")

	v.SetDefault("auth.issuer", "transaction-api")
	v.SetDefault("auth.audience", "fintech-platform")
	v.SetDefault("auth.max_body_bytes", 1<<20)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "notifications")
	v.SetDefault("kafka.partitions", 3)
	v.SetDefault("kafka.write_timeout", "5s")

	v.SetDefault("otel.enable", false)
	v.SetDefault("otel.service_name", "notification-service")
	v.SetDefault("otel.sample_ratio", 1.0)
	v.SetDefault("otel.otlp_endpoint", "localhost:4317")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("auth.access_secret", "AUTH_ACCESS_SECRET", "JWT_SECRET")
	_ = v.BindEnv("auth.webhook_secret", "AUTH_WEBHOOK_SECRET", "WEBHOOK_SECRET")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
