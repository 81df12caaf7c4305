package liveserver

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/kochabonline/liveserver/config"
	"github.com/kochabonline/liveserver/log"
	"github.com/kochabonline/liveserver/transport"
	transporthttp "github.com/kochabonline/liveserver/transport/http"
	kvalidator "github.com/kochabonline/liveserver/validator"
)

const (
	// DefaultAddr is used when no address is configured.
	DefaultAddr = "localhost:8081-8179"
	// EnvPrefix prefixes environment overrides, e.g. LIVESERVER_ADDR.
	EnvPrefix = "LIVESERVER"
)

type Config struct {
	Addr    string                      `json:"addr" mapstructure:"addr" default:"localhost:8081-8179" validate:"required,addrspec"`
	Static  transport.Static            `json:"static" mapstructure:"static"`
	Health  transporthttp.HealthOption  `json:"health" mapstructure:"health"`
	Metrics transporthttp.MetricsOption `json:"metrics" mapstructure:"metrics"`
	Log     log.Config                  `json:"log" mapstructure:"log"`
}

func init() {
	err := kvalidator.RegisterValidation("addrspec", func(fl validator.FieldLevel) bool {
		_, _, err := transport.ParseAddr(fl.Field().String())
		return err == nil
	}, "must be an address specification like localhost:8081-8179")
	if err != nil {
		log.Errorf("register addrspec validation: %v", err)
	}
}

// LoadConfig reads Config from the environment and, when a file name is
// given through opts, from that file.
func LoadConfig(opts ...config.Option) (*Config, error) {
	cfg := new(Config)
	opts = append([]config.Option{
		config.WithDest(cfg),
		config.WithEnvPrefix(EnvPrefix),
		config.WithProvider(config.ProviderEnv),
	}, opts...)

	c, err := config.New(opts...)
	if err != nil {
		return nil, err
	}
	if err := c.ReadInConfig(); err != nil {
		return nil, err
	}
	if err := cfg.Static.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewFromConfig builds a LiveServer serving handler as described by cfg.
// A nil handler leaves the server without a backend unless opts supply one.
func NewFromConfig(cfg *Config, handler http.Handler, opts ...Option) *LiveServer {
	var base []Option
	if handler != nil {
		base = append(base, WithHandler(handler,
			transporthttp.WithHealthOptions(cfg.Health),
			transporthttp.WithMetricsOptions(cfg.Metrics),
		))
	}
	base = append(base, WithStatic(cfg.Static))
	return New(cfg.Addr, append(base, opts...)...)
}
