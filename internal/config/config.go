// Package config loads surfacefill CLI configuration from a YAML file,
// SURFACEFILL_* environment variables and defaults.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/gogpu/surfacefill"
	"github.com/gogpu/surfacefill/hal"
	"github.com/gogpu/surfacefill/sim"
)

// EnvPrefix is the prefix of environment variables overriding the file.
const EnvPrefix = "SURFACEFILL"

// Config represents the CLI configuration.
type Config struct {
	Filler  FillerConfig  `mapstructure:"filler"`
	Device  DeviceConfig  `mapstructure:"device"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// FillerConfig maps onto surfacefill.Config.
type FillerConfig struct {
	EnableRasterClear bool          `mapstructure:"enable_raster_clear"`
	AutoWait          bool          `mapstructure:"auto_wait"`
	WaitTimeout       time.Duration `mapstructure:"wait_timeout"`
	MaxCopyChunk      uint64        `mapstructure:"max_copy_chunk"`
	MappingWindow     uint64        `mapstructure:"mapping_window"`
	MaxClearWidth     uint32        `mapstructure:"max_clear_width"`
	MaxClearHeight    uint32        `mapstructure:"max_clear_height"`
	MappingCacheSize  int           `mapstructure:"mapping_cache_size"`
	Strategies        []string      `mapstructure:"strategies"`
}

// DeviceConfig maps onto sim.Config.
type DeviceConfig struct {
	Name              string        `mapstructure:"name"`
	Subdevices        int           `mapstructure:"subdevices"`
	NoCopyEngine      bool          `mapstructure:"no_copy_engine"`
	NoRaster          bool          `mapstructure:"no_raster"`
	ClearTableSlots   int           `mapstructure:"clear_table_slots"`
	Latency           time.Duration `mapstructure:"latency"`
	VidmemNotMappable bool          `mapstructure:"vidmem_not_mappable"`
}

// LoggingConfig selects the slog level of the CLI.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	fc := surfacefill.DefaultConfig()
	return &Config{
		Filler: FillerConfig{
			EnableRasterClear: true,
			AutoWait:          true,
			WaitTimeout:       fc.WaitTimeout,
			MaxCopyChunk:      fc.MaxCopyChunk,
			MappingWindow:     fc.MappingWindow,
			MaxClearWidth:     fc.MaxClearWidth,
			MaxClearHeight:    fc.MaxClearHeight,
			MappingCacheSize:  fc.MappingCacheSize,
			Strategies:        fc.Strategies,
		},
		Device: DeviceConfig{
			Name:            sim.DefaultName,
			Subdevices:      1,
			ClearTableSlots: sim.DefaultClearTableSlots,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// Load loads configuration from cfgFile (if not empty), the environment
// and defaults. Without cfgFile, surfacefill.yaml is looked up in the
// working directory; a missing file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	cfg := DefaultConfig()
	setDefaults(v, cfg)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("surfacefill")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	valid := []string{surfacefill.StrategyRasterClear, surfacefill.StrategyCopyEngine, surfacefill.StrategyMapped}
	for _, s := range c.Filler.Strategies {
		if !slices.Contains(valid, s) {
			return fmt.Errorf("filler.strategies: unknown strategy %q, must be one of %v", s, valid)
		}
	}
	if c.Device.Subdevices < 1 || c.Device.Subdevices > sim.MaxSubdevices {
		return fmt.Errorf("device.subdevices must be between 1 and %d", sim.MaxSubdevices)
	}
	if c.Filler.WaitTimeout < 0 {
		return errors.New("filler.wait_timeout must not be negative")
	}
	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}
	return nil
}

// FillConfig returns the library configuration.
func (c *Config) FillConfig() surfacefill.Config {
	return surfacefill.Config{
		EnableRasterClear: c.Filler.EnableRasterClear,
		DisableAutoWait:   !c.Filler.AutoWait,
		WaitTimeout:       c.Filler.WaitTimeout,
		MaxCopyChunk:      c.Filler.MaxCopyChunk,
		MappingWindow:     c.Filler.MappingWindow,
		MaxClearWidth:     c.Filler.MaxClearWidth,
		MaxClearHeight:    c.Filler.MaxClearHeight,
		MappingCacheSize:  c.Filler.MappingCacheSize,
		Strategies:        slices.Clone(c.Filler.Strategies),
	}
}

// SimConfig returns the software accelerator configuration.
func (c *Config) SimConfig() sim.Config {
	var classes []hal.ClassID
	if c.Device.NoCopyEngine || c.Device.NoRaster {
		classes = []hal.ClassID{}
		if !c.Device.NoCopyEngine {
			classes = append(classes, hal.ClassCopyEngine)
		}
		if !c.Device.NoRaster {
			classes = append(classes, hal.ClassRaster)
		}
	}
	return sim.Config{
		Name:              c.Device.Name,
		Subdevices:        c.Device.Subdevices,
		Classes:           classes,
		ClearTableSlots:   c.Device.ClearTableSlots,
		Latency:           c.Device.Latency,
		VidmemNotMappable: c.Device.VidmemNotMappable,
	}
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("filler.enable_raster_clear", cfg.Filler.EnableRasterClear)
	v.SetDefault("filler.auto_wait", cfg.Filler.AutoWait)
	v.SetDefault("filler.wait_timeout", cfg.Filler.WaitTimeout)
	v.SetDefault("filler.max_copy_chunk", cfg.Filler.MaxCopyChunk)
	v.SetDefault("filler.mapping_window", cfg.Filler.MappingWindow)
	v.SetDefault("filler.max_clear_width", cfg.Filler.MaxClearWidth)
	v.SetDefault("filler.max_clear_height", cfg.Filler.MaxClearHeight)
	v.SetDefault("filler.mapping_cache_size", cfg.Filler.MappingCacheSize)
	v.SetDefault("filler.strategies", cfg.Filler.Strategies)

	v.SetDefault("device.name", cfg.Device.Name)
	v.SetDefault("device.subdevices", cfg.Device.Subdevices)
	v.SetDefault("device.no_copy_engine", cfg.Device.NoCopyEngine)
	v.SetDefault("device.no_raster", cfg.Device.NoRaster)
	v.SetDefault("device.clear_table_slots", cfg.Device.ClearTableSlots)
	v.SetDefault("device.latency", cfg.Device.Latency)
	v.SetDefault("device.vidmem_not_mappable", cfg.Device.VidmemNotMappable)

	v.SetDefault("logging.level", cfg.Logging.Level)
}
