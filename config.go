package surfacefill

import "time"

// Strategy names.
const (
	StrategyRasterClear = "rasterclear"
	StrategyCopyEngine  = "copyengine"
	StrategyMapped      = "mapped"
)

// Defaults for zero Config fields.
const (
	DefaultWaitTimeout      = 10 * time.Second
	DefaultMaxCopyChunk     = 256 << 20
	DefaultMappingWindow    = 1 << 20
	DefaultMaxClearWidth    = 8192
	DefaultMaxClearHeight   = 8192
	DefaultMappingCacheSize = 64
)

// Config holds filler configuration.
type Config struct {
	// EnableRasterClear allows the raster-clear strategy. It is off by
	// default because clears depend on the raster class state of the device.
	EnableRasterClear bool

	// DisableAutoWait makes engine fills return after submission instead of
	// waiting for completion.
	DisableAutoWait bool

	// WaitTimeout bounds every Wait. Defaults to DefaultWaitTimeout if <= 0.
	WaitTimeout time.Duration

	// MaxCopyChunk is the largest byte count of one copy-engine launch.
	// Defaults to DefaultMaxCopyChunk if 0.
	MaxCopyChunk uint64

	// MappingWindow is the largest CPU mapping the mapped filler holds.
	// Defaults to DefaultMappingWindow if 0.
	MappingWindow uint64

	// MaxClearWidth and MaxClearHeight bound one clear rectangle in pixels.
	// Default to DefaultMaxClearWidth and DefaultMaxClearHeight if 0.
	MaxClearWidth  uint32
	MaxClearHeight uint32

	// MappingCacheSize is the number of surfaces an engine filler keeps
	// mapped in its address space. Defaults to DefaultMappingCacheSize if <= 0.
	MappingCacheSize int

	// Strategies is the order in which OptimalFiller tries strategies.
	// Defaults to rasterclear, copyengine, mapped.
	Strategies []string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{}.withDefaults()
}

// withDefaults returns c with zero fields replaced by defaults.
func (c Config) withDefaults() Config {
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = DefaultWaitTimeout
	}
	if c.MaxCopyChunk == 0 {
		c.MaxCopyChunk = DefaultMaxCopyChunk
	}
	if c.MappingWindow == 0 {
		c.MappingWindow = DefaultMappingWindow
	}
	if c.MaxClearWidth == 0 {
		c.MaxClearWidth = DefaultMaxClearWidth
	}
	if c.MaxClearHeight == 0 {
		c.MaxClearHeight = DefaultMaxClearHeight
	}
	if c.MappingCacheSize <= 0 {
		c.MappingCacheSize = DefaultMappingCacheSize
	}
	if len(c.Strategies) == 0 {
		c.Strategies = []string{StrategyRasterClear, StrategyCopyEngine, StrategyMapped}
	}
	return c
}
