package config

import (
	"os"
	"strings"

	"github.com/jblebrun/NTJsonStore/internal/errors"
	"github.com/jblebrun/NTJsonStore/internal/sqlite"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel  = LogLevelWarning
	defaultEnvPrefix = "NTJSONSTORE"
	configName       = "ntjsonstore"
)

type Config struct {
	DBPath      string   `mapstructure:"db"`
	Driver      string   `mapstructure:"driver"`
	BusyTimeout int      `mapstructure:"busy_timeout"`
	LogLevel    string   `mapstructure:"log_level"`
	LogFile     string   `mapstructure:"log_file"`
	Debug       bool     `mapstructure:"debug"`
	Verbose     bool     `mapstructure:"verbose"`
	Exec        []string `mapstructure:"-"`
}

// Load reads configuration from defaults, the TOML config file, the
// environment and the command line, in increasing order of precedence.
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{envPrefix: defaultEnvPrefix}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	defaults := sqlite.DefaultConfig()

	// Define flags
	fs := pflag.NewFlagSet(configName, pflag.ContinueOnError)
	fs.String("db", defaults.Path, "Path to the store database")
	fs.String("driver", defaults.Driver, "SQLite driver: sqlite3 (cgo) or sqlite (pure Go)")
	fs.Int("busy-timeout", defaults.BusyTimeout, "SQLite busy timeout in milliseconds")
	fs.String("log-level", DefaultLogLevel.String(), "Log level: debug, info, warn, error")
	fs.String("log-file", "", "Also write JSON logs to this file, rotated")
	fs.Bool("debug", false, "Enable debugging mode")
	fs.Bool("verbose", false, "Enable verbose logging")
	fs.StringArray("exec", nil, "SQL statement to execute, may be repeated")
	fs.String("config", "", "Path to the configuration file")

	// Parse flags
	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err).WithMessage("failed to parse flags")
	}

	v := viper.New()
	for _, name := range []string{"db", "driver", "busy-timeout", "log-level", "log-file", "debug", "verbose"} {
		if err := v.BindPFlag(strings.ReplaceAll(name, "-", "_"), fs.Lookup(name)); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err).WithMessage("failed to bind flags")
		}
	}

	v.SetEnvPrefix(o.envPrefix)
	v.AutomaticEnv()

	// Load configuration from file
	configPath, _ := fs.GetString("config")
	if configPath == "" {
		configPath = o.configPath
	}
	if configPath == "" {
		configPath = os.Getenv(o.envPrefix + "_CONFIG")
	}

	v.SetConfigType("toml")
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath("/etc")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err).WithMessage("failed to read config file")
		}
	}

	// Unmarshal the configuration
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err).WithMessage("failed to unmarshal config")
	}

	cfg.Exec, _ = fs.GetStringArray("exec")

	if cfg.Debug {
		cfg.LogLevel = LogLevelDebug.String()
	} else if cfg.Verbose && cfg.LogLevel == DefaultLogLevel.String() {
		cfg.LogLevel = LogLevelInfo.String()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	if !LogLevel(c.LogLevel).IsValid() {
		return errors.New().Newf(errors.ErrInvalidConfig, "invalid log level %q", c.LogLevel)
	}

	return c.SQLite().Validate()
}

// SQLite returns the database connection settings
func (c *Config) SQLite() sqlite.Config {
	return sqlite.Config{
		Path:        c.DBPath,
		Driver:      c.Driver,
		BusyTimeout: c.BusyTimeout,
	}
}
