package tilekit

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultCacheCapacity is the default byte budget of the request cache (30 MiB).
	DefaultCacheCapacity = 30 << 20
	// DefaultConnectTimeout bounds connection establishment.
	DefaultConnectTimeout = 10 * time.Second
	// DefaultReadTimeout bounds receiving a full response once connected.
	DefaultReadTimeout = 30 * time.Second
)

// Config holds every tunable of a MapView and its fetch subsystem.
type Config struct {
	// CacheCapacityBytes is the in-memory cache budget.
	CacheCapacityBytes int64 `mapstructure:"cache_capacity_bytes"`
	// CacheDir enables the persistent cache tier when non-empty.
	CacheDir string `mapstructure:"cache_dir"`
	// DiskCacheCapacityBytes is the persistent tier budget. Zero means
	// CacheCapacityBytes.
	DiskCacheCapacityBytes int64 `mapstructure:"disk_cache_capacity_bytes"`

	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	// MaxConnsPerHost limits transport connections per host; 0 leaves the
	// transport default (unlimited).
	MaxConnsPerHost int `mapstructure:"max_conns_per_host"`
	// DedupeInFlight shares one network fetch between concurrent submits
	// of the same URL.
	DedupeInFlight bool `mapstructure:"dedupe_in_flight"`

	// TileURL is the URLTemplate pattern used by MapView.RequestTile.
	TileURL    string   `mapstructure:"tile_url"`
	Subdomains []string `mapstructure:"subdomains"`

	// ViewportHeightPixels normalizes shove deltas.
	ViewportHeightPixels float64       `mapstructure:"viewport_height_pixels"`
	DragDeadZone         float64       `mapstructure:"drag_dead_zone"`
	DoubleTapTimeout     time.Duration `mapstructure:"double_tap_timeout"`
	WheelZoomStep        float64       `mapstructure:"wheel_zoom_step"`
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return Config{
		CacheCapacityBytes: DefaultCacheCapacity,
		ConnectTimeout:     DefaultConnectTimeout,
		ReadTimeout:        DefaultReadTimeout,
		UserAgent:          "tilekit",
		DragDeadZone:       defaultDragDeadZone,
		DoubleTapTimeout:   defaultDoubleTapTimeout,
		WheelZoomStep:      defaultWheelZoomStep,
	}
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.CacheCapacityBytes < 0:
		return fmt.Errorf("%w: cache_capacity_bytes %d < 0", ErrInvalidConfig, c.CacheCapacityBytes)
	case c.DiskCacheCapacityBytes < 0:
		return fmt.Errorf("%w: disk_cache_capacity_bytes %d < 0", ErrInvalidConfig, c.DiskCacheCapacityBytes)
	case c.ConnectTimeout <= 0:
		return fmt.Errorf("%w: connect_timeout must be positive", ErrInvalidConfig)
	case c.ReadTimeout <= 0:
		return fmt.Errorf("%w: read_timeout must be positive", ErrInvalidConfig)
	case c.MaxConnsPerHost < 0:
		return fmt.Errorf("%w: max_conns_per_host %d < 0", ErrInvalidConfig, c.MaxConnsPerHost)
	case c.ViewportHeightPixels < 0:
		return fmt.Errorf("%w: viewport_height_pixels %g < 0", ErrInvalidConfig, c.ViewportHeightPixels)
	case c.DragDeadZone < 0:
		return fmt.Errorf("%w: drag_dead_zone %g < 0", ErrInvalidConfig, c.DragDeadZone)
	case c.DoubleTapTimeout < 0:
		return fmt.Errorf("%w: double_tap_timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}

// diskCapacity resolves the persistent tier budget.
func (c Config) diskCapacity() int64 {
	if c.DiskCacheCapacityBytes > 0 {
		return c.DiskCacheCapacityBytes
	}
	return c.CacheCapacityBytes
}

// LoadConfig reads configuration from path (any format viper understands;
// empty path skips the file) and from TILEKIT_* environment variables, on
// top of DefaultConfig. Durations accept Go syntax such as "10s".
func LoadConfig(path string) (Config, error) {
	def := DefaultConfig()
	v := viper.New()

	v.SetDefault("cache_capacity_bytes", def.CacheCapacityBytes)
	v.SetDefault("cache_dir", def.CacheDir)
	v.SetDefault("disk_cache_capacity_bytes", def.DiskCacheCapacityBytes)
	v.SetDefault("connect_timeout", def.ConnectTimeout)
	v.SetDefault("read_timeout", def.ReadTimeout)
	v.SetDefault("user_agent", def.UserAgent)
	v.SetDefault("max_conns_per_host", def.MaxConnsPerHost)
	v.SetDefault("dedupe_in_flight", def.DedupeInFlight)
	v.SetDefault("tile_url", def.TileURL)
	v.SetDefault("subdomains", []string{})
	v.SetDefault("viewport_height_pixels", def.ViewportHeightPixels)
	v.SetDefault("drag_dead_zone", def.DragDeadZone)
	v.SetDefault("double_tap_timeout", def.DoubleTapTimeout)
	v.SetDefault("wheel_zoom_step", def.WheelZoomStep)

	v.SetEnvPrefix("TILEKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
