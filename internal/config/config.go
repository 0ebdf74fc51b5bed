package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Linker  LinkerConfig  `yaml:"linker" mapstructure:"linker"`
	Output  OutputConfig  `yaml:"output" mapstructure:"output"`
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	RunLog  RunLogConfig  `yaml:"runlog" mapstructure:"runlog"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SourceConfig locates one input dataset. File takes precedence over URL;
// URL may be http(s):// or ftp://.
type SourceConfig struct {
	URL   string `yaml:"url" mapstructure:"url"`
	File  string `yaml:"file" mapstructure:"file"`
	Sheet string `yaml:"sheet" mapstructure:"sheet"` // xlsx only
}

// SourcesConfig locates the two input datasets.
type SourcesConfig struct {
	Pricing   SourceConfig `yaml:"pricing" mapstructure:"pricing"`
	Directory SourceConfig `yaml:"directory" mapstructure:"directory"`
}

// LinkerConfig tunes the linkage engine.
type LinkerConfig struct {
	ZeroStripFloor int `yaml:"zero_strip_floor" mapstructure:"zero_strip_floor"`
	MinTokenLen    int `yaml:"min_token_len" mapstructure:"min_token_len"`
	Workers        int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig configures artifact publication.
type OutputConfig struct {
	Dir       string `yaml:"dir" mapstructure:"dir"`
	ChunkSize int    `yaml:"chunk_size" mapstructure:"chunk_size"`
}

// FetchConfig configures source downloads.
type FetchConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	TempDir     string `yaml:"temp_dir" mapstructure:"temp_dir"`
}

// RunLogConfig configures the local run log database.
type RunLogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RXLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("sources.pricing.url", "https://download.medicaid.gov/data/nadac-national-average-drug-acquisition-cost.csv")
	v.SetDefault("sources.directory.url", "https://www.accessdata.fda.gov/cder/ndctext.zip")
	v.SetDefault("linker.zero_strip_floor", 5)
	v.SetDefault("linker.min_token_len", 3)
	v.SetDefault("linker.workers", 0)
	v.SetDefault("output.dir", "dist")
	v.SetDefault("output.chunk_size", 4000)
	v.SetDefault("fetch.user_agent", "rxlink/1.0")
	v.SetDefault("fetch.timeout_secs", 300)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.temp_dir", "")
	v.SetDefault("runlog.path", "rxlink.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

	return &cfg, nil
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
