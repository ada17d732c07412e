// Package config loads writer configuration from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/robert-malhotra/h5stream/hdf5"
)

// Sentinel validation errors.
var (
	ErrInvalidChunkLen   = fmt.Errorf("%w: must be between 1 and %d", hdf5.ErrChunkLen, hdf5.MaxChunkLen)
	ErrInvalidSuperblock = errors.New("superblock version must be 2 or 3")
	ErrEmptySuffix       = errors.New("output suffix must not be empty")
	ErrEmptyExtension    = errors.New("output extension must not be empty")
	ErrInvalidLogLevel   = errors.New("invalid log level")
)

// EnvPrefix prefixes environment overrides, e.g. H5STREAM_DATASET_CHUNK_LEN.
const EnvPrefix = "H5STREAM"

// Default configuration values.
const (
	DefaultDir               = "."
	DefaultSuffix            = "DxData"
	DefaultExtension         = "h5"
	DefaultChunkLen          = 8
	DefaultSuperblockVersion = 3
	DefaultLogLevel          = "info"

	maxChunkLen = hdf5.MaxChunkLen
)

// Config holds writer configuration.
type Config struct {
	Output  OutputConfig  `mapstructure:"output"`
	Dataset DatasetConfig `mapstructure:"dataset"`
	File    FileConfig    `mapstructure:"file"`
	Log     LogConfig     `mapstructure:"log"`
}

// OutputConfig names the destination file: <dir>/<name>_<suffix>.<extension>.
type OutputConfig struct {
	Dir       string `mapstructure:"dir"`
	Suffix    string `mapstructure:"suffix"`
	Extension string `mapstructure:"extension"`
}

// DatasetConfig holds per-dataset settings.
type DatasetConfig struct {
	ChunkLen int `mapstructure:"chunk_len"`
}

// FileConfig holds file format settings.
type FileConfig struct {
	SuperblockVersion int  `mapstructure:"superblock_version"`
	Sync              bool `mapstructure:"sync"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Dir:       DefaultDir,
			Suffix:    DefaultSuffix,
			Extension: DefaultExtension,
		},
		Dataset: DatasetConfig{ChunkLen: DefaultChunkLen},
		File:    FileConfig{SuperblockVersion: DefaultSuperblockVersion},
		Log:     LogConfig{Level: DefaultLogLevel},
	}
}

// Load loads configuration from configPath and H5STREAM_* environment
// variables. With an empty configPath it looks for h5stream.yaml in the
// working directory and carries on with defaults if there is none.
func Load(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("h5stream")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
	}

	viperCfg.SetEnvPrefix(EnvPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("output.dir", DefaultDir)
	viperCfg.SetDefault("output.suffix", DefaultSuffix)
	viperCfg.SetDefault("output.extension", DefaultExtension)

	viperCfg.SetDefault("dataset.chunk_len", DefaultChunkLen)

	viperCfg.SetDefault("file.superblock_version", DefaultSuperblockVersion)
	viperCfg.SetDefault("file.sync", false)

	viperCfg.SetDefault("log.level", DefaultLogLevel)
}

// Validate checks the configuration for out-of-range values.
func (c *Config) Validate() error {
	if c.Dataset.ChunkLen <= 0 || c.Dataset.ChunkLen > maxChunkLen {
		return fmt.Errorf("%w: %d", ErrInvalidChunkLen, c.Dataset.ChunkLen)
	}

	if c.File.SuperblockVersion != 2 && c.File.SuperblockVersion != 3 {
		return fmt.Errorf("%w: %d", ErrInvalidSuperblock, c.File.SuperblockVersion)
	}

	if c.Output.Suffix == "" {
		return ErrEmptySuffix
	}

	if c.Output.Extension == "" {
		return ErrEmptyExtension
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}

	return nil
}

// SlogLevel parses the level name ("debug", "info", "warn", "error").
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, l.Level)
	}
	return level, nil
}
