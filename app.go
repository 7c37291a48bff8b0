package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"geopick/internal/config"
	"geopick/internal/domain"
	"geopick/internal/engine"
	"geopick/internal/eventbus"
	"geopick/internal/geocode"
	"geopick/internal/locale"
	"geopick/internal/logger"
	"geopick/internal/web"
)

// rootFlags override values from the config file when set
type rootFlags struct {
	configPath string
	endpoint   string
	locale     string
	logLevel   string
	logFormat  string
	noCache    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "geopick",
		Short:         "Pick a location by searching for it or marking it on a map",
		Version:       web.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "config file (default "+config.DefaultPath()+")")
	pf.StringVar(&flags.endpoint, "endpoint", "", "geocoder search endpoint")
	pf.StringVar(&flags.locale, "locale", "", "language for messages and results, e.g. pt-BR")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&flags.logFormat, "log-format", "", "text or json")
	pf.BoolVar(&flags.noCache, "no-cache", false, "disable the search result cache")

	root.AddCommand(
		newTUICmd(flags),
		newServeCmd(flags),
		newSearchCmd(flags),
		newReverseCmd(flags),
		newSpecCmd(flags),
		newConfigCmd(flags),
	)
	return root
}

// app bundles what the commands build from the configuration
type app struct {
	cfg      *config.Config
	svc      config.ConfigService
	log      *slog.Logger
	loc      *locale.Locale
	logClose io.Closer
}

// setup loads the configuration and applies flag overrides. logOut is
// where logs go; nil means the file named in the config.
func setup(flags *rootFlags, logOut io.Writer) (*app, error) {
	// The logger is built from the config, so config events are held
	// until it exists.
	bus := eventbus.New(logger.Discard())
	var pending []eventbus.DomainEvent
	stop := bus.SubscribeAll(func(ev eventbus.DomainEvent) {
		pending = append(pending, ev)
	})
	svc := config.NewConfigServiceWithBus(bus)
	var (
		cfg *config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = svc.LoadFromPath(flags.configPath)
	} else {
		cfg, err = svc.Load()
	}
	stop()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if flags.endpoint != "" {
		cfg.Geocoder.Endpoint = flags.endpoint
	}
	if flags.locale != "" {
		cfg.Geocoder.Locale = flags.locale
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &app{cfg: cfg, svc: svc, loc: locale.New(cfg.Geocoder.Locale)}
	if logOut != nil {
		a.log = logger.New(logOut, cfg.Log.Level, cfg.Log.Format)
	} else {
		l, closer, err := logger.OpenFile(cfg.Log.File, cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			// Fall back to discarding rather than writing over the UI
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			l = logger.Discard()
		} else {
			a.logClose = closer
		}
		a.log = l
	}
	logger.Install(a.log)
	for _, ev := range pending {
		logConfigEvent(a.log, ev)
	}
	bus.SubscribeAll(func(ev eventbus.DomainEvent) { logConfigEvent(a.log, ev) })
	a.log.Debug("locale resolved", "locale", a.loc.Tag().String())
	return a, nil
}

func logConfigEvent(log *slog.Logger, ev eventbus.DomainEvent) {
	switch e := ev.(type) {
	case domain.ConfigLoadedEvent:
		log.Debug("config loaded", "path", e.Path, "defaults", e.Default)
	case domain.ConfigSavedEvent:
		log.Info("config saved", "path", e.Path)
	}
}

func (a *app) close() {
	if a.logClose != nil {
		_ = a.logClose.Close()
	}
}

func (a *app) gateway(flags *rootFlags) (geocode.Gateway, error) {
	g := a.cfg.Geocoder
	return geocode.NewStack(geocode.Config{
		Endpoint:     g.Endpoint,
		UserAgent:    g.UserAgent,
		Language:     a.loc.AcceptLanguage(),
		CountryCodes: g.CountryCodes,
		QuerySuffix:  g.QuerySuffix,
		Limit:        g.Limit,
		Timeout:      g.Timeout.Duration,
		Logger:       a.log,
	}, geocode.StackOptions{
		RatePerSecond: g.RatePerSecond,
		RateBurst:     g.RateBurst,
		CacheSize:     g.CacheSize,
		CacheTTL:      g.CacheTTL.Duration,
		DisableCache:  flags.noCache,
	})
}

func (a *app) engine(gw geocode.Gateway) *engine.Engine {
	return engine.New(gw, engine.Options{
		Debounce: a.cfg.Search.Debounce.Duration,
		Locale:   a.loc,
		Logger:   a.log,
	})
}
