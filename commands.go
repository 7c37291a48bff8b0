package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"geopick/internal/config"
	"geopick/internal/domain"
	"geopick/internal/eventbus"
	"geopick/internal/geobox"
	"geopick/internal/logger"
	"geopick/internal/ui"
	"geopick/internal/viewsync"
	"geopick/internal/web"
)

func viewOptions(cfg *config.Config) viewsync.Options {
	opts := viewsync.DefaultOptions()
	opts.MaxFitZoom = cfg.Map.FitMaxZoom
	return opts
}

func newTUICmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal UI (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, flags)
		},
	}
}

func runTUI(cmd *cobra.Command, flags *rootFlags) error {
	a, err := setup(flags, nil)
	if err != nil {
		return err
	}
	defer a.close()

	gw, err := a.gateway(flags)
	if err != nil {
		return err
	}
	eng := a.engine(gw)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	loopDone := make(chan error, 1)
	go func() {
		loopDone <- eng.Run(ctx)
	}()

	model := ui.NewModel(eng, ui.Options{
		Locale: a.loc,
		Center: a.cfg.Map.DefaultCenter(),
		Zoom:   a.cfg.Map.DefaultZoom,
		View:   viewOptions(a.cfg),
		Logger: a.log,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	model.SetProgram(p)

	// Forward engine state to the UI in the background
	stop := ui.Forward(eng.Store(), p.Send)

	a.log.Info("starting UI")
	_, err = p.Run()
	stop()
	eng.Close()
	cancel()
	<-loopDone

	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		a.log.Error("error running program", "error", err)
		return fmt.Errorf("run ui: %w", err)
	}
	a.log.Info("UI exited normally")
	return nil
}

func newServeCmd(flags *rootFlags) *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API, the Datastar event stream and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(flags, os.Stderr)
			if err != nil {
				return err
			}
			defer a.close()
			if cmd.Flags().Changed("host") {
				a.cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}

			gw, err := a.gateway(flags)
			if err != nil {
				return err
			}
			eng := a.engine(gw)
			srv := web.New(eng, web.Config{
				Host:     a.cfg.Server.Host,
				Port:     a.cfg.Server.Port,
				Fallback: a.cfg.Map.DefaultCenter(),
				View:     viewOptions(a.cfg),
				Logger:   a.log,
			})

			baseURL := "http://" + a.cfg.Server.Addr()
			fmt.Fprintf(cmd.OutOrStdout(), "geopick API server starting...\n")
			fmt.Fprintf(cmd.OutOrStdout(), "  Server:  %s\n", baseURL)
			fmt.Fprintf(cmd.OutOrStdout(), "  Docs:    %s/docs\n", baseURL)
			fmt.Fprintf(cmd.OutOrStdout(), "  Events:  %s/api/v1/events\n", baseURL)
			fmt.Fprintf(cmd.OutOrStdout(), "  Metrics: %s/metrics\n\n", baseURL)

			g, gctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				// stopped by Close once the server is down
				return eng.Run(context.WithoutCancel(gctx))
			})
			g.Go(func() error {
				defer eng.Close()
				return srv.Run(gctx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "host to bind to (default from config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (default from config)")
	return cmd
}

func newSearchCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search places by text once and print the candidates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(flags, os.Stderr)
			if err != nil {
				return err
			}
			defer a.close()
			gw, err := a.gateway(flags)
			if err != nil {
				return err
			}

			term := args[0]
			for _, more := range args[1:] {
				term += " " + more
			}
			results, err := gw.SearchByText(cmd.Context(), term)
			if err != nil {
				return err
			}
			return printCandidates(cmd.OutOrStdout(), results, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newReverseCmd(flags *rootFlags) *cobra.Command {
	var (
		asJSON bool
		radius float64
	)
	cmd := &cobra.Command{
		Use:   "reverse <lat> <lon>",
		Short: "Look up what is at a coordinate and print the candidates",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseLatLng(args[0], args[1])
			if err != nil {
				return err
			}
			if radius <= 0 {
				return fmt.Errorf("radius must be positive, got %v", radius)
			}

			a, err := setup(flags, os.Stderr)
			if err != nil {
				return err
			}
			defer a.close()
			gw, err := a.gateway(flags)
			if err != nil {
				return err
			}

			box := geobox.Around(at, radius, radius)
			results, err := gw.SearchByCoordinateAndBounds(cmd.Context(), at.String(), box)
			if err != nil {
				return err
			}
			return printCandidates(cmd.OutOrStdout(), results, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	cmd.Flags().Float64Var(&radius, "radius", 0.05, "half size of the search box in degrees")
	return cmd
}

func parseLatLng(latArg, lonArg string) (domain.LatLng, error) {
	lat, err := strconv.ParseFloat(latArg, 64)
	if err != nil {
		return domain.LatLng{}, fmt.Errorf("invalid latitude %q: %w", latArg, err)
	}
	lon, err := strconv.ParseFloat(lonArg, 64)
	if err != nil {
		return domain.LatLng{}, fmt.Errorf("invalid longitude %q: %w", lonArg, err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return domain.LatLng{}, fmt.Errorf("coordinate out of range: %v, %v", lat, lon)
	}
	return domain.LatLng{Lat: lat, Lon: lon}, nil
}

func printCandidates(w io.Writer, results []domain.LocationCandidate, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "no results")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLAT\tLON\tNAME")
	for _, c := range results {
		fmt.Fprintf(tw, "%d\t%.6f\t%.6f\t%s\n", c.ID, c.Center.Lat, c.Center.Lon, c.DisplayName)
	}
	return tw.Flush()
}

func newSpecCmd(flags *rootFlags) *cobra.Command {
	var useYAML bool
	cmd := &cobra.Command{
		Use:   "spec",
		Short: "Export the OpenAPI document (JSON by default, --yaml for YAML)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			srv := web.New(nil, web.Config{Host: cfg.Server.Host, Port: cfg.Server.Port})
			doc := srv.OpenAPI()

			var (
				output []byte
				err    error
			)
			if useYAML {
				output, err = yaml.Marshal(doc)
			} else {
				output, err = json.MarshalIndent(doc, "", "  ")
			}
			if err != nil {
				return fmt.Errorf("marshal spec: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
			return err
		},
	}
	cmd.Flags().BoolVarP(&useYAML, "yaml", "y", false, "Output as YAML instead of JSON")
	return cmd
}

func newConfigCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := flags.configPath
			if path == "" {
				path = config.DefaultPath()
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bus := eventbus.New(logger.Discard())
			var wrote []string
			bus.Subscribe(domain.EventConfigSaved, func(ev eventbus.DomainEvent) {
				wrote = append(wrote, ev.(domain.ConfigSavedEvent).Path)
			})
			svc := config.NewConfigServiceWithBus(bus)
			path := flags.configPath
			if path == "" {
				path = svc.Path()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := svc.SaveToPath(config.DefaultConfig(), path); err != nil {
				return err
			}
			for _, p := range wrote {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", p); err != nil {
					return err
				}
			}
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}
