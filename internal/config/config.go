package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the command line tool configuration.
type Config struct {
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	Parser ParserConfig `yaml:"parser" mapstructure:"parser"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Batch  BatchConfig  `yaml:"batch" mapstructure:"batch"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ParserConfig configures the location parser.
type ParserConfig struct {
	FuzzyDistance int `yaml:"fuzzy_distance" mapstructure:"fuzzy_distance"`
	MaxInputLen   int `yaml:"max_input_len" mapstructure:"max_input_len"`
}

// OutputConfig configures how results are written.
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"` // text, json or csv
}

// BatchConfig configures batch parsing.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("geoparse")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GEOPARSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("parser.fuzzy_distance", 0)
	v.SetDefault("parser.max_input_len", 256)
	v.SetDefault("output.format", FormatText)
	v.SetDefault("batch.concurrency", 4)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case FormatText, FormatJSON, FormatCSV:
	default:
		return eris.Errorf("config: output.format must be text, json or csv, got %q", c.Output.Format)
	}
	if c.Parser.FuzzyDistance < 0 || c.Parser.FuzzyDistance > 2 {
		return eris.Errorf("config: parser.fuzzy_distance must be between 0 and 2, got %d", c.Parser.FuzzyDistance)
	}
	if c.Parser.MaxInputLen <= 0 {
		return eris.Errorf("config: parser.max_input_len must be positive, got %d", c.Parser.MaxInputLen)
	}
	if c.Batch.Concurrency <= 0 {
		return eris.Errorf("config: batch.concurrency must be positive, got %d", c.Batch.Concurrency)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
