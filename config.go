package splitlog

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Default values used when a Config field is left empty.
const (
	DefaultTimeFormat  = "2006-01-02 15:04:05.000000"
	DefaultFileSize    = 2097152
	DefaultPath        = "./runtime/log/"
	DefaultLogName     = "App"
	DefaultFileName    = "app.log"
	DefaultSQLFileName = "sql.log"
	DefaultLogFormat   = "[%datetime%] #reqId# %level_name% %message%\n"
	DefaultRequestEnv  = "HTTP_X_REQUEST_ID"
)

// DefaultIgnorePatterns are the framework-internal markers dropped when IgnoreNoise is set.
var DefaultIgnorePatterns = []string{"[ ROUTE ]", "[ HEADER ]", "[ PARAM ]"}

// ArchiveConfig holds the settings passed through to the timberjack sink.
type ArchiveConfig struct {
	Compression string `mapstructure:"compression"`
	MaxAge      int    `mapstructure:"max_age"` // in days
}

// GormConfig holds the configuration for the GORM logger.
type GormConfig struct {
	Level                string `mapstructure:"level"`
	SlowQueryThresholdMs int    `mapstructure:"slow_query_threshold_ms"`
	LogQueryResult       bool   `mapstructure:"log_query_result"`
	LogResultMaxBytes    int    `mapstructure:"log_result_max_bytes"`
}

// Config holds the configuration for the router.
type Config struct {
	TimeFormat     string        `mapstructure:"time_format"`
	FileSize       int64         `mapstructure:"file_size"` // rotation threshold in bytes
	Path           string        `mapstructure:"path"`
	ApartLevel     []string      `mapstructure:"apart_level"`
	MaxFiles       int           `mapstructure:"max_files"` // accepted, archives are never pruned
	JSON           bool          `mapstructure:"json"`
	LogName        string        `mapstructure:"log_name"`
	FileName       string        `mapstructure:"file_name"`
	SQLFileName    string        `mapstructure:"sql_file_name"`
	LogFormat      string        `mapstructure:"log_format"`
	IgnoreNoise    bool          `mapstructure:"ignore_noise"`
	IgnorePatterns []string      `mapstructure:"ignore_patterns"`
	SeparateSQL    bool          `mapstructure:"separate_sql"`
	CLI            bool          `mapstructure:"cli"`
	Debug          bool          `mapstructure:"debug"` // adds the runtime summary to request logs
	RequestIDEnv   string        `mapstructure:"request_id_env"`
	RedactKeys     []string      `mapstructure:"redact_keys"`
	SkipPaths      []string      `mapstructure:"skip_paths"`
	Archive        ArchiveConfig `mapstructure:"archive"`
	Gorm           GormConfig    `mapstructure:"gorm"`
}

// DefaultConfig returns a Config with every default applied and both the
// noise filter and SQL separation switched on.
func DefaultConfig() Config {
	return Config{
		TimeFormat:     DefaultTimeFormat,
		FileSize:       DefaultFileSize,
		Path:           DefaultPath,
		LogName:        DefaultLogName,
		FileName:       DefaultFileName,
		SQLFileName:    DefaultSQLFileName,
		LogFormat:      DefaultLogFormat,
		IgnoreNoise:    true,
		IgnorePatterns: append([]string(nil), DefaultIgnorePatterns...),
		SeparateSQL:    true,
		RequestIDEnv:   DefaultRequestEnv,
	}
}

// normalize fills empty fields with defaults and makes Path end in a separator.
// A zero FileSize becomes DefaultFileSize; a negative one disables rotation.
// Boolean switches are left as the caller set them.
func (c Config) normalize() Config {
	if c.FileSize == 0 {
		c.FileSize = DefaultFileSize
	}
	if c.TimeFormat == "" {
		c.TimeFormat = DefaultTimeFormat
	}
	if c.Path == "" {
		c.Path = DefaultPath
	}
	if !strings.HasSuffix(c.Path, string(os.PathSeparator)) {
		c.Path += string(os.PathSeparator)
	}
	if c.LogName == "" {
		c.LogName = DefaultLogName
	}
	if c.FileName == "" {
		c.FileName = DefaultFileName
	}
	if c.SQLFileName == "" {
		c.SQLFileName = DefaultSQLFileName
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.RequestIDEnv == "" {
		c.RequestIDEnv = DefaultRequestEnv
	}
	return c
}

// setDefaults registers DefaultConfig on v so that keys absent from the file keep their defaults.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("time_format", d.TimeFormat)
	v.SetDefault("file_size", d.FileSize)
	v.SetDefault("path", d.Path)
	v.SetDefault("log_name", d.LogName)
	v.SetDefault("file_name", d.FileName)
	v.SetDefault("sql_file_name", d.SQLFileName)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("ignore_noise", d.IgnoreNoise)
	v.SetDefault("ignore_patterns", d.IgnorePatterns)
	v.SetDefault("separate_sql", d.SeparateSQL)
	v.SetDefault("request_id_env", d.RequestIDEnv)
	v.SetDefault("apart_level", []string{})
	v.SetDefault("max_files", 0)
	v.SetDefault("redact_keys", []string{})
	v.SetDefault("skip_paths", []string{})
	v.SetDefault("archive.compression", "")
	v.SetDefault("archive.max_age", 0)
	v.SetDefault("json", false)
	v.SetDefault("cli", false)
	v.SetDefault("debug", false)
	v.SetDefault("gorm.level", "info")
	v.SetDefault("gorm.slow_query_threshold_ms", 200)
	v.SetDefault("gorm.log_query_result", false)
	v.SetDefault("gorm.log_result_max_bytes", 0)
}

// NewViper returns a viper instance with the router defaults registered and
// SPLITLOG_* environment overrides enabled (e.g. SPLITLOG_FILE_SIZE).
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("splitlog")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads a YAML config file. An empty path yields the defaults
// plus any environment overrides.
func LoadConfig(path string) (Config, error) {
	v := NewViper()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("splitlog: read config %s: %w", path, err)
		}
	}
	return ConfigFromViper(v)
}

// ConfigFromViper decodes v into a Config.
func ConfigFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("splitlog: decode config: %w", err)
	}
	return cfg, nil
}
