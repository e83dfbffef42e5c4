package api_gateway_config

import (
	"strings"
	"time"

	"github.com/NordCoder/Credgate/internal/auth"
	domainauth "github.com/NordCoder/Credgate/internal/domain/auth"
	"github.com/NordCoder/Credgate/internal/obs"
	pg "github.com/NordCoder/Credgate/internal/repository/postgres"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	GRPCAddr        string        `mapstructure:"grpc_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
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

type Auth struct {
	AccessSecret     string        `mapstructure:"access_secret"`
	RefreshSecret    string        `mapstructure:"refresh_secret"`
	Issuer           string        `mapstructure:"issuer"`
	Audience         string        `mapstructure:"audience"`
	AccessTTL        time.Duration `mapstructure:"access_ttl"`
	RefreshTTL       time.Duration `mapstructure:"refresh_ttl"`
	PasswordCost     int           `mapstructure:"password_cost"`
	AllowAdminSignup bool          `mapstructure:"allow_admin_signup"`
	CookieName       string        `mapstructure:"cookie_name"`
	CookieDomain     string        `mapstructure:"cookie_domain"`
	CookiePath       string        `mapstructure:"cookie_path"`
	CookieSecure     bool          `mapstructure:"cookie_secure"`
}

func (a Auth) AsCodecConfig() auth.CodecConfig {
	return auth.CodecConfig{
		AccessSecret:  a.AccessSecret,
		RefreshSecret: a.RefreshSecret,
		AccessTTL:     a.AccessTTL,
		RefreshTTL:    a.RefreshTTL,
		Issuer:        a.Issuer,
		Audience:      a.Audience,
	}
}

const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

// Store selects the revocation store backend. Users always live in
// postgres unless the driver is memory.
type Store struct {
	Driver string `mapstructure:"driver"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type Janitor struct {
	Enable   bool          `mapstructure:"enable"`
	Interval time.Duration `mapstructure:"interval"`
}

type Config struct {
	App     App       `mapstructure:"app"`
	Server  Server    `mapstructure:"server"`
	DB      pg.Config `mapstructure:"db"`
	Redis   Redis     `mapstructure:"redis"`
	Store   Store     `mapstructure:"store"`
	OTEL    OTEL      `mapstructure:"otel"`
	Log     Log       `mapstructure:"log"`
	Auth    Auth      `mapstructure:"auth"`
	Janitor Janitor   `mapstructure:"janitor"`
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

// Validate reports the first setting the service cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.AccessSecret) == "" {
		return domainauth.Configuration("auth.access_secret is required")
	}
	if strings.TrimSpace(c.Auth.RefreshSecret) == "" {
		return domainauth.Configuration("auth.refresh_secret is required")
	}
	if c.Auth.AccessSecret == c.Auth.RefreshSecret {
		return domainauth.Configuration("auth.access_secret and auth.refresh_secret must differ")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		return domainauth.Configuration("auth token ttls must be positive")
	}
	switch c.Store.Driver {
	case StorePostgres, StoreMemory:
	case StoreRedis:
		if c.Redis.Addr == "" {
			return domainauth.Configuration("redis.addr is required for the redis store")
		}
	default:
		return domainauth.Configuration("store.driver must be one of postgres, redis, memory")
	}
	if c.Store.Driver != StoreMemory && c.DB.DSN == "" {
		return domainauth.Configuration("db.dsn is required")
	}
	if c.Janitor.Enable && c.Janitor.Interval <= 0 {
		return domainauth.Configuration("janitor.interval must be positive")
	}
	return nil
}
