package config

import (
	"errors"
	"path"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/kochabonline/liveserver/core/reflect"
	"github.com/kochabonline/liveserver/log"
	"github.com/kochabonline/liveserver/validator"
)

type Provider int

const (
	ProviderFile Provider = iota
	ProviderEnv
)

var envKeyReplacer = strings.NewReplacer(".", "_")

type Config struct {
	viper     *viper.Viper
	Provider  Provider // ProviderEnv skips the configuration file entirely.
	Path      []string // Path is the path to the configuration file, can be multiple paths.
	Name      string   // Name is the configuration file name, the extension selects the format.
	EnvPrefix string   // EnvPrefix is prepended to environment keys, e.g. LIVESERVER_ADDR.
	Dest      any      // Dest is the destination where the configuration will be unmarshalled.
}

type Option func(*Config)

func WithViper(v *viper.Viper) Option {
	return func(c *Config) {
		c.viper = v
	}
}

func WithProvider(provider Provider) Option {
	return func(c *Config) {
		c.Provider = provider
	}
}

func WithPath(path ...string) Option {
	return func(c *Config) {
		c.Path = path
	}
}

func WithName(name string) Option {
	return func(c *Config) {
		c.Name = name
	}
}

func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.EnvPrefix = prefix
	}
}

func WithDest(dest any) Option {
	return func(c *Config) {
		c.Dest = dest
	}
}

func New(opts ...Option) (*Config, error) {
	c := &Config{
		Provider: ProviderFile,
		Path:     []string{"."},
		viper:    viper.New(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := reflect.SetDefaultTag(c.Dest); err != nil {
		return nil, err
	}

	if err := c.configureViper(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) configureViper() error {
	extension := path.Ext(c.Name)
	configType := strings.TrimPrefix(extension, ".")

	for _, configPath := range c.Path {
		c.viper.AddConfigPath(configPath)
	}

	c.viper.SetConfigName(strings.TrimSuffix(c.Name, extension))
	if configType != "" {
		c.viper.SetConfigType(configType)
	}
	c.viper.SetEnvPrefix(c.EnvPrefix)
	c.viper.SetEnvKeyReplacer(envKeyReplacer)
	c.viper.AutomaticEnv()

	// Unmarshal only sees keys viper knows about, so bind every field of
	// Dest explicitly to make environment-only configuration work.
	keys, err := reflect.Keys(c.Dest, "mapstructure")
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := c.viper.BindEnv(key); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) GetViper() *viper.Viper {
	return c.viper
}

// ReadInConfig reads the configuration file (a missing file is not an
// error), overlays the environment, unmarshals into Dest and validates it.
func (c *Config) ReadInConfig() error {
	if c.Provider == ProviderFile && c.Name != "" {
		if err := c.viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return err
			}
			log.Debug().Str("name", c.Name).Msg("config file not found, using defaults and environment")
		}
	}

	if err := c.viper.Unmarshal(c.Dest); err != nil {
		return err
	}

	return validator.Struct(c.Dest)
}

func (c *Config) WatchConfig() error {
	if c.Provider != ProviderFile {
		return nil
	}
	c.viper.OnConfigChange(func(e fsnotify.Event) {
		log.Infof("config file changed: %s", e.Name)
		if err := c.ReadInConfig(); err != nil {
			log.Error().Err(err).Msg("failed to reload config")
		}
	})
	c.viper.WatchConfig()
	return nil
}
