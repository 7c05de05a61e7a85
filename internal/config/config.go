package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	PathEnv     = "CONFIG_PATH"
	DefaultPath = "./config.yml"
)

type Config struct {
	LogLevel   string        `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	Port       string        `yaml:"port" env:"PORT" env-default:"9000"`
	HTTPPort   string        `yaml:"http-port" env:"HTTP_PORT"`
	Redis      Redis         `yaml:"redis"`
	ArchiveTTL time.Duration `yaml:"archive-ttl" env:"ARCHIVE_TTL" env-default:"24h"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// ClientConfig - settings of the terminal client, environment only.
type ClientConfig struct {
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`
}

// Path - the config file location, CONFIG_PATH or ./config.yml.
func Path() string {
	if path := os.Getenv(PathEnv); path != "" {
		return path
	}

	return DefaultPath
}

// Load - reads the yaml file at path with env overrides. A missing file is not an error,
// the environment and defaults are used instead.
func Load(path string) (*Config, error) {
	config := &Config{}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		if err = cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("unable to load config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("unable to read config from env: %w", err)
		}
	default:
		return nil, fmt.Errorf("unable to stat config file: %w", err)
	}

	return config, nil
}

// MustLoad - same as Load but panics on error.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func LoadClient() (*ClientConfig, error) {
	config := &ClientConfig{}

	if err := cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("unable to read client config from env: %w", err)
	}

	return config, nil
}

// GetRedisAddr - host:port of the archive, empty when no host is configured.
func (that *Redis) GetRedisAddr() string {
	if that.Host == "" {
		return ""
	}

	return net.JoinHostPort(that.Host, that.Port)
}
