package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geopick/internal/domain"
	"geopick/internal/eventbus"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 300*time.Millisecond, cfg.Search.Debounce.Duration)
	assert.Equal(t, domain.LatLng{Lat: -24.02323, Lon: -48.9034806}, cfg.Map.DefaultCenter())
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Empty(t, cfg.Geocoder.CountryCodes, "no country filter by default")
	assert.Equal(t, " brasil", cfg.Geocoder.QuerySuffix)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	svc := NewConfigServiceWithBus(nil)

	cfg := DefaultConfig()
	cfg.Geocoder.Locale = "en"
	cfg.Search.Debounce = Duration{150 * time.Millisecond}
	cfg.Server.Port = 9090
	require.NoError(t, svc.SaveToPath(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "150ms")

	loaded, err := svc.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(`
[geocoder]
locale = "en-US"
timeout = "3s"

[map]
default_zoom = 12
`), 0o644))

	cfg, err := NewConfigServiceWithBus(nil).LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "en-US", cfg.Geocoder.Locale)
	assert.Equal(t, 3*time.Second, cfg.Geocoder.Timeout.Duration)
	assert.Equal(t, 12, cfg.Map.DefaultZoom)
	assert.Equal(t, DefaultConfig().Geocoder.Endpoint, cfg.Geocoder.Endpoint)
	assert.Equal(t, 300*time.Millisecond, cfg.Search.Debounce.Duration)
}

func TestLoadFromPathErrors(t *testing.T) {
	dir := t.TempDir()
	svc := NewConfigServiceWithBus(nil)

	_, err := svc.LoadFromPath(filepath.Join(dir, "missing.toml"))
	assert.ErrorContains(t, err, "config file not found")

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[geocoder\n"), 0o644))
	_, err = svc.LoadFromPath(bad)
	assert.ErrorContains(t, err, "failed to parse config")

	badDuration := filepath.Join(dir, "duration.toml")
	require.NoError(t, os.WriteFile(badDuration, []byte("[search]\ndebounce = \"soon\"\n"), 0o644))
	_, err = svc.LoadFromPath(badDuration)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.toml")
	require.NoError(t, os.WriteFile(invalid, []byte("[map]\ndefault_lat = 123.0\n[log]\nformat = \"xml\"\n"), 0o644))
	_, err = svc.LoadFromPath(invalid)
	require.Error(t, err)
	assert.ErrorContains(t, err, "map.default_lat")
	assert.ErrorContains(t, err, "log.format")
}

func TestLoadUsesUserConfigDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)

	bus := eventbus.New(nil)
	var loaded []domain.ConfigLoadedEvent
	bus.Subscribe(domain.EventConfigLoaded, func(e eventbus.DomainEvent) {
		loaded = append(loaded, e.(domain.ConfigLoadedEvent))
	})
	var saved int
	bus.Subscribe(domain.EventConfigSaved, func(eventbus.DomainEvent) { saved++ })

	svc := NewConfigServiceWithBus(bus)
	assert.Equal(t, filepath.Join(home, "geopick", FileName), svc.Path())

	cfg, err := svc.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	require.Len(t, loaded, 1)
	assert.True(t, loaded[0].Default)

	cfg.Log.Level = "debug"
	require.NoError(t, svc.Save(cfg))
	assert.Equal(t, 1, saved)

	again, err := svc.Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", again.Log.Level)
	require.Len(t, loaded, 2)
	assert.False(t, loaded[1].Default)
}

func TestPathOperationsPublishEvents(t *testing.T) {
	bus := eventbus.New(nil)
	var events []eventbus.DomainEvent
	bus.SubscribeAll(func(e eventbus.DomainEvent) { events = append(events, e) })

	svc := NewConfigServiceWithBus(bus)
	path := filepath.Join(t.TempDir(), "nested", FileName)
	require.NoError(t, svc.SaveToPath(DefaultConfig(), path))
	_, err := svc.LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, []eventbus.DomainEvent{
		domain.ConfigSavedEvent{Path: path},
		domain.ConfigLoadedEvent{Path: path},
	}, events)
}
