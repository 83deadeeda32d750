package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/relocation-forecast/internal/config"
	"github.com/iwvelando/relocation-forecast/pkg/constants"
	"github.com/spf13/viper"
)

// Config holds the runtime parameters of the API server.
type Config struct {
	Address           string               `mapstructure:"address"`
	MaxUploadSize     string               `mapstructure:"maxUploadSize"`
	ReadHeaderTimeout time.Duration        `mapstructure:"readHeaderTimeout"`
	ShutdownTimeout   time.Duration        `mapstructure:"shutdownTimeout"`
	Logging           config.LoggingConfig `mapstructure:"logging"`
	uploadSizeBytes   int64
}

// LoadConfig reads the server configuration from a YAML file. A missing file
// yields the defaults. Every key can be overridden from the environment with
// the RELOCATION_SERVER_ prefix, e.g. RELOCATION_SERVER_ADDRESS.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(constants.EnvPrefix + "_SERVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("address", constants.DefaultServerAddress)
	v.SetDefault("maxUploadSize", strconv.FormatInt(constants.DefaultMaxUploadSizeBytes, 10))
	v.SetDefault("readHeaderTimeout", constants.DefaultReadHeaderTimeout)
	v.SetDefault("shutdownTimeout", constants.DefaultShutdownTimeout)
	// Logging has no defaults so an unset section leaves the CLI logger in
	// place; bind the keys so env overrides still resolve.
	for _, key := range []string{"logging.level", "logging.format", "logging.outputFile"} {
		_ = v.BindEnv(key)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read server config: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read server config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UploadSizeBytes returns the request body limit in bytes.
func (c *Config) UploadSizeBytes() int64 {
	return c.uploadSizeBytes
}

func (c *Config) normalize() error {
	if strings.TrimSpace(c.Address) == "" {
		c.Address = constants.DefaultServerAddress
	}
	if c.ReadHeaderTimeout <= 0 {
		c.ReadHeaderTimeout = constants.DefaultReadHeaderTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = constants.DefaultShutdownTimeout
	}

	size, err := ParseSize(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("maxUploadSize: %w", err)
	}
	c.uploadSizeBytes = size
	return nil
}

var sizeUnits = []struct {
	suffix     string
	multiplier int64
}{
	// Longest suffixes first so "KB" is not read as "B".
	{"KIB", 1 << 10}, {"MIB", 1 << 20}, {"GIB", 1 << 30},
	{"KB", 1 << 10}, {"MB", 1 << 20}, {"GB", 1 << 30},
	{"K", 1 << 10}, {"M", 1 << 20}, {"G", 1 << 30},
	{"B", 1},
}

// ParseSize converts a byte count such as "256K", "2MB" or "4096" into bytes.
// An empty value selects the default upload limit.
func ParseSize(value string) (int64, error) {
	s := strings.ToUpper(strings.TrimSpace(value))
	if s == "" {
		return constants.DefaultMaxUploadSizeBytes, nil
	}

	multiplier := int64(1)
	for _, u := range sizeUnits {
		if rest, ok := strings.CutSuffix(s, u.suffix); ok {
			s, multiplier = strings.TrimSpace(rest), u.multiplier
			break
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", value)
	}
	if n <= 0 {
		return 0, fmt.Errorf("size must be positive, got %q", value)
	}
	if n > (1<<63-1)/multiplier {
		return 0, fmt.Errorf("size %q overflows", value)
	}
	return n * multiplier, nil
}
