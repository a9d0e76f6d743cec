package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	spiralverse "github.com/issdandavis/Spiralverse-AetherMoore"
	"github.com/issdandavis/Spiralverse-AetherMoore/crypto"
	"github.com/issdandavis/Spiralverse-AetherMoore/geometry"
	"github.com/issdandavis/Spiralverse-AetherMoore/limits"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SPIRALVERSE_"

// Config is the root configuration of the authority daemon.
type Config struct {
	Protocol ProtocolConfig `yaml:"protocol"`
	KeyStore KeyStoreConfig `yaml:"keystore"`
	Server   ServerConfig   `yaml:"server"`
	Replay   ReplayConfig   `yaml:"replay"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ProtocolConfig contains the token protocol parameters.
type ProtocolConfig struct {
	ChaosIterations    int `yaml:"chaos_iterations"`
	BlockSize          int `yaml:"block_size"`
	ConsensusThreshold int `yaml:"consensus_threshold"`
	MaxPayloadSize     int `yaml:"max_payload_size"`
}

// KeyStoreConfig locates the encrypted master key.
type KeyStoreConfig struct {
	Dir     string `yaml:"dir"`
	KeyName string `yaml:"key_name"`
	// Password is only set from SPIRALVERSE_KEYSTORE_PASSWORD.
	Password string `yaml:"-"`
}

// SaltName is the key store entry holding the long-term key derivation salt.
func (k KeyStoreConfig) SaltName() string {
	return k.KeyName + "-salt"
}

// ServerConfig contains gRPC listener settings.
type ServerConfig struct {
	Address        string        `yaml:"address"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// ReplayConfig enables single-use token verification.
type ReplayConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir"`
	Window  time.Duration `yaml:"window"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults); an empty path skips the file
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern SPIRALVERSE_SECTION_KEY, for
// example SPIRALVERSE_SERVER_ADDRESS.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config with the protocol defaults.
func Default() *Config {
	return &Config{
		Protocol: ProtocolConfig{
			ChaosIterations:    crypto.DefaultChaosIterations,
			BlockSize:          crypto.DefaultBlockSize,
			ConsensusThreshold: spiralverse.DefaultConsensusThreshold,
			MaxPayloadSize:     limits.MaxPayloadSize,
		},
		KeyStore: KeyStoreConfig{
			Dir:     "./data/keys",
			KeyName: "master",
		},
		Server: ServerConfig{
			Address:        "127.0.0.1:7443",
			RequestTimeout: 10 * time.Second,
		},
		Replay: ReplayConfig{
			Enabled: false,
			Dir:     "./data/replay",
			Window:  crypto.DefaultReplayWindow,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvPrefix + "KEYSTORE_DIR"); v != "" {
		cfg.KeyStore.Dir = v
	}
	if v := os.Getenv(EnvPrefix + "KEYSTORE_KEY_NAME"); v != "" {
		cfg.KeyStore.KeyName = v
	}
	if v := os.Getenv(EnvPrefix + "KEYSTORE_PASSWORD"); v != "" {
		cfg.KeyStore.Password = v
	}

	if v := os.Getenv(EnvPrefix + "SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv(EnvPrefix + "SERVER_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parsing %sSERVER_REQUEST_TIMEOUT: %w", EnvPrefix, err)
		}
		cfg.Server.RequestTimeout = d
	}

	if v := os.Getenv(EnvPrefix + "REPLAY_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing %sREPLAY_ENABLED: %w", EnvPrefix, err)
		}
		cfg.Replay.Enabled = enabled
	}
	if v := os.Getenv(EnvPrefix + "REPLAY_DIR"); v != "" {
		cfg.Replay.Dir = v
	}

	if v := os.Getenv(EnvPrefix + "LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvPrefix + "LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	return nil
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Protocol.ChaosIterations < 0 {
		errs = append(errs, "protocol.chaos_iterations cannot be negative")
	}
	if c.Protocol.BlockSize < 1 || c.Protocol.BlockSize > 255 {
		errs = append(errs, "protocol.block_size must be between 1 and 255")
	}
	if c.Protocol.ConsensusThreshold < 1 || c.Protocol.ConsensusThreshold > geometry.TrajectoryLength {
		errs = append(errs, fmt.Sprintf("protocol.consensus_threshold must be between 1 and %d", geometry.TrajectoryLength))
	}
	if c.Protocol.MaxPayloadSize <= 0 || c.Protocol.MaxPayloadSize > limits.MaxPayloadSize {
		errs = append(errs, fmt.Sprintf("protocol.max_payload_size must be between 1 and %d", limits.MaxPayloadSize))
	}

	if c.KeyStore.Dir == "" {
		errs = append(errs, "keystore.dir is required")
	}
	if c.KeyStore.KeyName == "" || strings.ContainsAny(c.KeyStore.KeyName, `/\`) {
		errs = append(errs, "keystore.key_name must be a plain file name")
	}
	if c.KeyStore.Password == "" {
		errs = append(errs, "keystore password is required (set "+EnvPrefix+"KEYSTORE_PASSWORD)")
	}

	if c.Server.Address == "" {
		errs = append(errs, "server.address is required")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "server.request_timeout must be positive")
	}

	if c.Replay.Enabled && c.Replay.Window <= 0 {
		errs = append(errs, "replay.window must be positive")
	}

	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Sprintf("logging.level %q is not a valid level", c.Logging.Level))
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		errs = append(errs, "logging.format must be text or json")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Options converts the protocol section into System options. The long-term
// key salt is left for the caller to fill from the key store.
func (c *Config) Options() *spiralverse.Options {
	opts := spiralverse.NewOptions()
	opts.ChaosIterations = c.Protocol.ChaosIterations
	opts.BlockSize = c.Protocol.BlockSize
	opts.ConsensusThreshold = c.Protocol.ConsensusThreshold
	opts.Limits.MaxPayloadSize = c.Protocol.MaxPayloadSize
	return opts
}

// ConfigureLogging applies the logging section to the standard logrus logger.
func (c *Config) ConfigureLogging() error {
	level, err := logrus.ParseLevel(c.Logging.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	logrus.SetLevel(level)

	switch c.Logging.Format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}
