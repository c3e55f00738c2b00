// Package config provides configuration loading and defaults for the md
// RAID checks and daemons.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/addisonbair/mdraid-sidecars/pkg/raid"
	"github.com/addisonbair/mdraid-sidecars/pkg/status"
)

// RaidConfig selects which arrays are checked and how.
type RaidConfig struct {
	// Device is "all" or an md device name (md0, /dev/md0, /sys/block/md0).
	Device  string `yaml:"device"`
	SpareOK bool   `yaml:"spare_ok"`
	// Timeout is the per-read time budget in seconds.
	Timeout   int    `yaml:"timeout"`
	SysfsRoot string `yaml:"sysfs_root"`
	DevRoot   string `yaml:"dev_root"`
}

// InhibitConfig controls the logind inhibitor daemons.
type InhibitConfig struct {
	Who  string `yaml:"who"`
	What string `yaml:"what"`
	Mode string `yaml:"mode"`
	// Interval between checks in seconds.
	Interval int `yaml:"interval"`
	// Threshold is the lowest severity that blocks (warning or critical).
	Threshold string `yaml:"threshold"`
}

// ServerConfig holds the HTTP status endpoint settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level   string `yaml:"level"`
	Journal bool   `yaml:"journal"`
}

// Config is the top-level configuration structure.
type Config struct {
	Raid    RaidConfig    `yaml:"raid"`
	Inhibit InhibitConfig `yaml:"inhibit"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// LoadConfig reads a YAML file on top of DefaultConfig. Keys missing from
// the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path if it exists and returns the defaults otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	cfg, err := LoadConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

// DefaultConfig returns a new Config populated with default values.
func DefaultConfig() *Config {
	return &Config{
		Raid: RaidConfig{
			Device:    "all",
			Timeout:   int(raid.DefaultReadTimeout / time.Second),
			SysfsRoot: raid.DefaultSysfsRoot,
			DevRoot:   raid.DefaultDevRoot,
		},
		Inhibit: InhibitConfig{
			Who:       "raid-inhibitor",
			What:      "shutdown:sleep",
			Mode:      "block",
			Interval:  60,
			Threshold: "warning",
		},
		Server: ServerConfig{
			Addr: ":9275",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyEnvOverrides updates cfg in place with values from environment variables.
// Recognized variables:
//   - MDRAID_DEVICE overrides cfg.Raid.Device
//   - MDRAID_SPARE_OK overrides cfg.Raid.SpareOK
//   - MDRAID_TIMEOUT overrides cfg.Raid.Timeout
//   - MDRAID_SYSFS_ROOT overrides cfg.Raid.SysfsRoot
//   - MDRAID_LOG_LEVEL overrides cfg.Log.Level
func ApplyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("MDRAID_DEVICE"); v != "" {
		cfg.Raid.Device = v
	}
	if v := os.Getenv("MDRAID_SPARE_OK"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MDRAID_SPARE_OK: %w", err)
		}
		cfg.Raid.SpareOK = b
	}
	if v := os.Getenv("MDRAID_TIMEOUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MDRAID_TIMEOUT: %w", err)
		}
		cfg.Raid.Timeout = n
	}
	if v := os.Getenv("MDRAID_SYSFS_ROOT"); v != "" {
		cfg.Raid.SysfsRoot = v
	}
	if v := os.Getenv("MDRAID_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error
	if _, err := raid.ParseTarget(c.Raid.Device); err != nil {
		errs = append(errs, fmt.Errorf("raid.device: %w", err))
	}
	if c.Raid.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("raid.timeout must be positive, got %d", c.Raid.Timeout))
	}
	if c.Inhibit.Interval <= 0 {
		errs = append(errs, fmt.Errorf("inhibit.interval must be positive, got %d", c.Inhibit.Interval))
	}
	if _, err := c.Threshold(); err != nil {
		errs = append(errs, fmt.Errorf("inhibit.threshold: %w", err))
	}
	switch strings.ToLower(c.Inhibit.Mode) {
	case "block", "delay":
	default:
		errs = append(errs, fmt.Errorf("inhibit.mode must be block or delay, got %q", c.Inhibit.Mode))
	}
	return errors.Join(errs...)
}

// Target returns the parsed device selector.
func (c *Config) Target() (raid.Target, error) {
	return raid.ParseTarget(c.Raid.Device)
}

// ReadTimeout returns the per-read budget as a duration.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Raid.Timeout) * time.Second
}

// InhibitInterval returns the check interval as a duration.
func (c *Config) InhibitInterval() time.Duration {
	return time.Duration(c.Inhibit.Interval) * time.Second
}

// Threshold returns the lowest severity that should block.
func (c *Config) Threshold() (status.Severity, error) {
	sev, err := status.ParseSeverity(c.Inhibit.Threshold)
	if err != nil {
		return status.Unknown, err
	}
	if sev == status.OK {
		return status.Unknown, fmt.Errorf("threshold OK would always block")
	}
	return sev, nil
}
