package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"geopick/internal/domain"
	"geopick/internal/eventbus"
)

// FileName is the config file name inside the user config directory
const FileName = "config.toml"

// Config represents the application configuration
type Config struct {
	Version  int              `toml:"version"`
	Geocoder GeocoderSettings `toml:"geocoder"`
	Search   SearchSettings   `toml:"search"`
	Map      MapSettings      `toml:"map"`
	Log      LogSettings      `toml:"log"`
	Server   ServerSettings   `toml:"server"`
}

// GeocoderSettings configures the provider client and its decorators
type GeocoderSettings struct {
	Endpoint      string   `toml:"endpoint"`
	UserAgent     string   `toml:"user_agent"`
	Locale        string   `toml:"locale"`
	CountryCodes  string   `toml:"country_codes"`
	QuerySuffix   string   `toml:"query_suffix"`
	Limit         int      `toml:"limit"`
	Timeout       Duration `toml:"timeout"`
	RatePerSecond float64  `toml:"rate_per_second"`
	RateBurst     int      `toml:"rate_burst"`
	CacheSize     int      `toml:"cache_size"`
	CacheTTL      Duration `toml:"cache_ttl"`
}

// SearchSettings configures the text search input
type SearchSettings struct {
	Debounce Duration `toml:"debounce"`
}

// MapSettings configures the initial map view
type MapSettings struct {
	DefaultLat  float64 `toml:"default_lat"`
	DefaultLon  float64 `toml:"default_lon"`
	DefaultZoom int     `toml:"default_zoom"`
	FitMaxZoom  int     `toml:"fit_max_zoom"`
}

// LogSettings configures logging
type LogSettings struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text or json
	File   string `toml:"file"`   // used by the terminal UI
}

// ServerSettings configures the HTTP surface
type ServerSettings struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port
func (s ServerSettings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DefaultCenter returns the configured initial map center
func (m MapSettings) DefaultCenter() domain.LatLng {
	return domain.LatLng{Lat: m.DefaultLat, Lon: m.DefaultLon}
}

// Duration is a time.Duration written as a Go duration string ("300ms")
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
}

// configService is the concrete implementation
type configService struct {
	bus      eventbus.EventBus
	filePath string
}

// NewConfigServiceWithBus creates a config service for the user config
// directory. bus may be nil.
func NewConfigServiceWithBus(bus eventbus.EventBus) ConfigService {
	return &configService{bus: bus, filePath: DefaultPath()}
}

// DefaultPath returns $XDG_CONFIG_HOME/geopick/config.toml or its platform equivalent
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}
	return filepath.Join(configDir, "geopick", FileName)
}

func (cs *configService) Path() string {
	return cs.filePath
}

// Load loads the configuration file, or the defaults when there is none
func (cs *configService) Load() (*Config, error) {
	if _, err := os.Stat(cs.filePath); errors.Is(err, os.ErrNotExist) {
		cfg := DefaultConfig()
		cs.publish(domain.ConfigLoadedEvent{Path: cs.filePath, Default: true})
		return cfg, nil
	}
	return cs.LoadFromPath(cs.filePath)
}

// Save saves the configuration file
func (cs *configService) Save(config *Config) error {
	return cs.SaveToPath(config, cs.filePath)
}

// LoadFromPath loads configuration from a specific path. Keys missing from
// the file keep their default values.
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	cs.publish(domain.ConfigLoadedEvent{Path: path})
	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	cs.publish(domain.ConfigSavedEvent{Path: path})
	return nil
}

func (cs *configService) publish(e domain.DomainEvent) {
	if cs.bus != nil {
		cs.bus.Publish(e)
	}
}

// Validate checks the values a running engine depends on
func (c *Config) Validate() error {
	var errs []error
	if c.Geocoder.Endpoint == "" {
		errs = append(errs, errors.New("geocoder.endpoint is required"))
	}
	if c.Geocoder.Limit < 0 {
		errs = append(errs, errors.New("geocoder.limit must not be negative"))
	}
	if c.Geocoder.Timeout.Duration < 0 {
		errs = append(errs, errors.New("geocoder.timeout must not be negative"))
	}
	if c.Geocoder.RatePerSecond < 0 {
		errs = append(errs, errors.New("geocoder.rate_per_second must not be negative"))
	}
	if c.Search.Debounce.Duration < 0 {
		errs = append(errs, errors.New("search.debounce must not be negative"))
	}
	if c.Map.DefaultLat < -90 || c.Map.DefaultLat > 90 {
		errs = append(errs, fmt.Errorf("map.default_lat %v out of range", c.Map.DefaultLat))
	}
	if c.Map.DefaultLon < -180 || c.Map.DefaultLon > 180 {
		errs = append(errs, fmt.Errorf("map.default_lon %v out of range", c.Map.DefaultLon))
	}
	if c.Map.DefaultZoom < 0 || c.Map.DefaultZoom > 19 {
		errs = append(errs, fmt.Errorf("map.default_zoom %d out of range", c.Map.DefaultZoom))
	}
	if c.Map.FitMaxZoom < 1 || c.Map.FitMaxZoom > 19 {
		errs = append(errs, fmt.Errorf("map.fit_max_zoom %d out of range", c.Map.FitMaxZoom))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	return errors.Join(errs...)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Geocoder: GeocoderSettings{
			Endpoint:      "https://nominatim.openstreetmap.org/search",
			UserAgent:     "geopick/1.0",
			Locale:        "pt-BR",
			QuerySuffix:   " brasil",
			Limit:         10,
			Timeout:       Duration{10 * time.Second},
			RatePerSecond: 1,
			RateBurst:     1,
			CacheSize:     128,
			CacheTTL:      Duration{60 * time.Second},
		},
		Search: SearchSettings{
			Debounce: Duration{300 * time.Millisecond},
		},
		Map: MapSettings{
			DefaultLat:  -24.02323,
			DefaultLon:  -48.9034806,
			DefaultZoom: 10,
			FitMaxZoom:  14,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "text",
			File:   "geopick.log",
		},
		Server: ServerSettings{
			Host: "127.0.0.1",
			Port: 8080,
		},
	}
}
