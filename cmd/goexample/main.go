package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/nomis52/goexample/buildinfo"
	"github.com/nomis52/goexample/config"
	"github.com/nomis52/goexample/logging"
	"github.com/nomis52/goexample/metrics"
	"github.com/nomis52/goexample/report"
	"github.com/nomis52/goexample/runner"
	"github.com/nomis52/goexample/schedule"
	"github.com/nomis52/goexample/server"
	"github.com/nomis52/goexample/server/runs"
	"github.com/nomis52/goexample/session"
	"github.com/nomis52/goexample/suites"
)

type Args struct {
	ConfigPath  string
	Suites      []string
	Format      string
	List        bool
	Validate    bool
	Once        bool
	ShowVersion bool
}

func main() {
	args, err := parseArgs(os.Args[0], os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx, args, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args Args, stdout io.Writer) error {
	if args.ShowVersion {
		fmt.Fprintln(stdout, buildinfo.Get())
		return nil
	}

	if args.List {
		return listSuites(stdout)
	}

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	names := cfg.Suites
	if len(names) == 0 {
		names = suites.Names()
	}
	defs, err := suites.Select(names)
	if err != nil {
		return err
	}
	scheduled := strings.TrimSpace(cfg.Schedule) != "" && !args.Once

	var triggers []schedule.TriggerSpec
	if scheduled {
		triggers, err = schedule.ParseTriggerSpecs(cfg.Schedule, available())
		if err != nil {
			return fmt.Errorf("invalid schedule: %w", err)
		}
	}

	if args.Validate {
		fmt.Fprintf(stdout, "Configuration validation successful: %s (%d suites, %d triggers)\n",
			describePath(args.ConfigPath), len(defs), len(triggers))
		return nil
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	slog.SetDefault(logger)

	props := buildinfo.Get()
	logger.Info("goexample started",
		"version", props.Version,
		"git_commit", props.GitCommit,
		"config_path", args.ConfigPath,
		"suites", names,
		"scheduled", scheduled,
	)

	if scheduled {
		return serve(ctx, cfg, logger)
	}
	return runOnce(ctx, cfg, logger, names, stdout)
}

func loadConfig(args Args) (config.Config, error) {
	cfg := config.Default()
	if args.ConfigPath != "" {
		var err error
		cfg, err = config.LoadConfig(args.ConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if len(args.Suites) > 0 {
		cfg.Suites = args.Suites
	}
	if args.Format != "" {
		cfg.Report.Format = args.Format
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func listSuites(w io.Writer) error {
	for _, name := range suites.Names() {
		def, err := suites.Catalog()[name]()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-24s %d examples\n", name, def.Registry.Size())
	}
	return nil
}

// runOnce runs the selected suites, writes their reports and pushes
// metrics when a push URL is configured.
func runOnce(ctx context.Context, cfg config.Config, logger *slog.Logger, names []string, stdout io.Writer) error {
	var reg metrics.Registry
	if cfg.Monitoring.VictoriaMetricsURL != "" {
		hostname, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("failed to get hostname: %w", err)
		}
		instance := cfg.Monitoring.Instance
		if instance == "" {
			instance = hostname
		}
		reg = metrics.NewPushRegistry(metrics.PushConfig{
			URL:      cfg.Monitoring.VictoriaMetricsURL,
			Prefix:   cfg.Monitoring.MetricsPrefix,
			Job:      cfg.Monitoring.JobName,
			Instance: instance,
			Timeout:  cfg.Monitoring.PushTimeout,
		})
	}

	runnerOpts, err := runnerOptions(cfg, reg)
	if err != nil {
		return err
	}

	defs, err := suites.Select(names)
	if err != nil {
		return err
	}
	outcome, runErr := session.Run(ctx, defs,
		session.WithLogger(logger),
		session.WithRunnerOptions(runnerOpts...),
		session.WithLogCapture(cfg.Runner.CaptureLogs))

	if err := writeReports(cfg.Report, outcome.Reports(), stdout); err != nil {
		return err
	}

	if reg != nil {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Monitoring.PushTimeout)
		defer cancel()
		if err := metrics.Flush(flushCtx, reg); err != nil {
			logger.Error("failed to push metrics", "error", err)
		}
	}

	return runErr
}

// serve re-runs suites on the configured schedule until ctx is cancelled.
func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	scrape, err := metrics.NewScrapeRegistry(metrics.ScrapeConfig{
		Prefix:  cfg.Monitoring.MetricsPrefix,
		Runtime: true,
	})
	if err != nil {
		return err
	}
	runnerOpts, err := runnerOptions(cfg, scrape)
	if err != nil {
		return err
	}

	coordinator := runs.New(logger, func(ctx context.Context, names []string) (*session.Outcome, error) {
		defs, err := suites.Select(names)
		if err != nil {
			return nil, err
		}
		return session.Run(ctx, defs,
			session.WithLogger(logger),
			session.WithRunnerOptions(runnerOpts...),
			session.WithLogCapture(cfg.Runner.CaptureLogs))
	}, runs.WithStore(runs.NewMemoryStore(cfg.Server.HistorySize)))

	manager, err := schedule.NewManager(cfg.Schedule, coordinator, logger, available())
	if err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}

	opts := []server.Option{
		server.WithListenAddr(cfg.Server.ListenAddress),
		server.WithSchedule(manager),
		server.WithMetricsHandler(scrape.Handler()),
		server.WithSuites(suites.Names()),
		server.WithConfig(&cfg),
	}
	if cfg.Server.TLSCertFile != "" {
		opts = append(opts, server.WithTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile))
	}
	srv, err := server.New(logger, coordinator, opts...)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Run(ctx)
}

func runnerOptions(cfg config.Config, reg metrics.Registry) ([]runner.Option, error) {
	var opts []runner.Option
	if strategy := cfg.CloneStrategy(); strategy != nil {
		opts = append(opts, runner.WithCloneStrategy(strategy))
	}
	if reg != nil {
		m, err := runner.NewMetrics(reg)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		opts = append(opts, runner.WithMetrics(m))
	}
	return opts, nil
}

func writeReports(cfg config.ReportConfig, reports []*report.Report, stdout io.Writer) error {
	w := stdout
	toStdout := cfg.Output == "" || cfg.Output == "-"
	if !toStdout {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		w = f
	}

	colorize := false
	switch cfg.Color {
	case config.ColorAlways:
		colorize = true
	case config.ColorAuto:
		colorize = toStdout && stdout == io.Writer(os.Stdout) && !color.NoColor
	}
	return report.WriteAll(w, reports, cfg.Format, colorize)
}

func available() map[string]bool {
	out := make(map[string]bool)
	for _, name := range suites.Names() {
		out[name] = true
	}
	return out
}

func describePath(path string) string {
	if path == "" {
		return "defaults"
	}
	return path
}

func parseArgs(name string, arguments []string, output io.Writer) (Args, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	configPath := fs.String("config", "", "Path to config file")
	configPathShort := fs.String("c", "", "Path to config file (shorthand)")
	suiteList := fs.String("suite", "", "Comma separated suites to run, overrides the config")
	format := fs.String("format", "", "Report format: text, yaml or json")
	list := fs.Bool("list", false, "List the bundled suites and exit")
	validate := fs.Bool("validate", false, "Validate configuration and exit")
	once := fs.Bool("once", false, "Run the suites once even when a schedule is configured")
	showVersion := fs.Bool("version", false, "Show version information")
	versionShort := fs.Bool("v", false, "Show version information (shorthand)")

	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: %s [options]\n", name)
		fmt.Fprintf(output, "\nExample-driven suite runner\n\n")
		fmt.Fprintf(output, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(output, "\nExamples:\n")
		fmt.Fprintf(output, "  %s -suite MoneyExample,WalletExample -format yaml\n", name)
		fmt.Fprintf(output, "  %s --config /etc/goexample/config.yaml --validate\n", name)
		fmt.Fprintf(output, "  %s -c config.yaml\n", name)
	}

	if err := fs.Parse(arguments); err != nil {
		return Args{}, err
	}

	path := *configPath
	if path == "" && *configPathShort != "" {
		path = *configPathShort
	}

	var selected []string
	for _, s := range strings.Split(*suiteList, ",") {
		if s = strings.TrimSpace(s); s != "" {
			selected = append(selected, s)
		}
	}

	return Args{
		ConfigPath:  path,
		Suites:      selected,
		Format:      *format,
		List:        *list,
		Validate:    *validate,
		Once:        *once,
		ShowVersion: *showVersion || *versionShort,
	}, nil
}
