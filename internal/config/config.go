package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env     string `yaml:"env" env:"ENV" env-default:"local" env-description:"logging environment: local, dev or prod"`
	Catalog string `yaml:"catalog" env:"BACKUPWATCH_CATALOG" env-description:"path to the archive catalog database, empty disables it"`
	Watch   Watch  `yaml:"watch"`
}

// Watch is the configuration of a single watch session. It is copied by the
// pipeline at start and never changed afterwards.
type Watch struct {
	Patterns          []string      `yaml:"patterns" env:"BACKUPWATCH_PATTERNS" env-default:"*.py,*.txt,*.ipynb,*.md,*.cpp,*.h" env-description:"file name globs to archive"`
	IgnorePatterns    []string      `yaml:"ignore_patterns" env:"BACKUPWATCH_IGNORE_PATTERNS" env-default:"~*,*.tmp,*.temp,*.bak,.git/*,__pycache__/*" env-description:"file name globs never archived"`
	BackupDir         string        `yaml:"backup_dir" env:"BACKUPWATCH_BACKUP_DIR" env-default:"backup" env-description:"archive directory"`
	LogFile           string        `yaml:"log_file" env:"BACKUPWATCH_LOG_FILE" env-default:"backup_log.txt" env-description:"name of the log file inside the archive directory"`
	Recursive         bool          `yaml:"recursive" env:"BACKUPWATCH_RECURSIVE" env-description:"watch subdirectories (default true)"`
	IgnoreDirectories bool          `yaml:"ignore_directories" env:"BACKUPWATCH_IGNORE_DIRECTORIES" env-description:"drop events for directories (default true)"`
	CaseSensitive     bool          `yaml:"case_sensitive" env:"BACKUPWATCH_CASE_SENSITIVE" env-description:"case sensitive pattern matching (default false)"`
	SettleDelay       time.Duration `yaml:"settle_delay" env:"BACKUPWATCH_SETTLE_DELAY" env-description:"pause between a change and its backup, 0 disables it (default 300ms)"`
	Coalesce          bool          `yaml:"coalesce" env:"BACKUPWATCH_COALESCE" env-description:"collapse repeated writes to one file within the settle delay (default false)"`
}

const (
	DefaultBackupDir   = "backup"
	DefaultLogFile     = "backup_log.txt"
	DefaultSettleDelay = 300 * time.Millisecond
)

var (
	DefaultPatterns       = []string{"*.py", "*.txt", "*.ipynb", "*.md", "*.cpp", "*.h"}
	DefaultIgnorePatterns = []string{"~*", "*.tmp", "*.temp", "*.bak", ".git/*", "__pycache__/*"}
)

// Default returns the configuration used when no file and no environment
// overrides are present.
//
// cleanenv applies env-default to every zero field, which would override an
// explicit false or 0 from the file, so booleans and the settle delay are
// seeded here rather than through tags.
func Default() Config {
	return Config{
		Env: "local",
		Watch: Watch{
			Patterns:          append([]string(nil), DefaultPatterns...),
			IgnorePatterns:    append([]string(nil), DefaultIgnorePatterns...),
			BackupDir:         DefaultBackupDir,
			LogFile:           DefaultLogFile,
			Recursive:         true,
			IgnoreDirectories: true,
			CaseSensitive:     false,
			SettleDelay:       DefaultSettleDelay,
		},
	}
}

// Load reads the configuration from configPath, then the environment.
// An empty configPath reads the environment only.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("%w: cannot read env: %v", ErrInvalidConfig, err)
		}
	} else {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("%w: config file %s: %v", ErrInvalidConfig, configPath, err)
		}
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("%w: cannot read config: %v", ErrInvalidConfig, err)
		}
	}

	if err := cfg.Watch.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ResolvePath picks the config file path.
// Priority: flag > env > default.
// default value is empty string.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("CONFIG_PATH")
}

// Dump renders cfg as YAML.
func Dump(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// Describe lists the environment variables understood by Load.
func Describe() (string, error) {
	header := "Environment variables:"
	cfg := Default()
	return cleanenv.GetDescription(&cfg, &header)
}
