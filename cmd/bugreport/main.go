package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/modoterra/bugreport/internal/buildinfo"
	"github.com/modoterra/bugreport/pkg/config"
	"github.com/modoterra/bugreport/pkg/logbuf"
	"github.com/modoterra/bugreport/pkg/report"
	"github.com/modoterra/bugreport/pkg/sysinfo"
	"github.com/modoterra/bugreport/pkg/tui/dialog"
)

var (
	configPath  string
	plainFlag   bool
	verbose     bool
	attachLog   string
	attachLines int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bugreport",
	Short: "Compose bug and crash reports for terminal applications",
	Long: "bugreport collects recent log lines, build identity and system properties into a " +
		"plain-text report the user can edit and send. Nothing is submitted automatically.",
	SilenceUsage: true,
	RunE:         runReport,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: user config dir)")
	rootCmd.PersistentFlags().BoolVar(&plainFlag, "plain", false, "print reports as plain text instead of opening the dialog")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "echo all log lines to stderr")
	rootCmd.PersistentFlags().StringVar(&attachLog, "attach-log", "", "include the tail of this log file in the error log")
	rootCmd.PersistentFlags().IntVar(&attachLines, "attach-lines", 200, "lines to take from --attach-log")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(crashCmd)
	rootCmd.AddCommand(sysinfoCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

// env is everything a command needs to compose and present reports.
type env struct {
	cfg       *config.Config
	buf       *logbuf.Buffer
	logger    *slog.Logger
	collector *sysinfo.Collector
	composer  *report.Composer
	presenter report.Presenter
	stop      context.CancelFunc
}

func setup(cmd *cobra.Command) (*env, error) {
	cfg := config.Default()
	path, pathErr := resolveConfigPath()
	if pathErr == nil {
		var err error
		if cfg, err = config.LoadOrDefault(path); err != nil {
			return nil, err
		}
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", path, errors.Join(errs...))
	}
	minLevel, _ := cfg.Level()

	stderrLevel := slog.LevelWarn
	if verbose {
		stderrLevel = slog.LevelDebug
	}
	buf := logbuf.New(cfg.Buffer.Capacity)
	logger := slog.New(logbuf.NewHandler(buf,
		slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: stderrLevel}),
		&logbuf.HandlerOptions{Level: logbuf.SlogLevel(minLevel)},
	))

	if pathErr != nil {
		logger.Warn("no config location, using default config", "err", pathErr)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	if cfg.Buffer.Journal {
		sink := logbuf.NewJournalSink("bugreport", logger)
		if sink.Available() {
			go sink.Run(ctx, buf)
		} else {
			logger.Info("journal not available, not forwarding log lines")
		}
	}

	collector := sysinfo.New(cfg.App.Name, buildinfo.New(), sysinfo.NewEnvSource())
	collector.Escape = cfg.EscapeFunc()

	e := &env{
		cfg:       cfg,
		buf:       buf,
		logger:    logger,
		collector: collector,
		composer:  report.NewComposer(collector, buf),
		stop:      cancel,
	}
	e.presenter = e.choosePresenter(cmd)
	if attachLog != "" {
		e.attach(ctx, attachLog)
	}
	logger.Debug("configured", "config", path, "capacity", buf.Cap(), "min_level", minLevel)
	return e, nil
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.DefaultPath()
}

// choosePresenter opens the dialog on a terminal and prints plain text
// everywhere else.
func (e *env) choosePresenter(cmd *cobra.Command) report.Presenter {
	if plainFlag || !term.IsTerminal(int(os.Stdout.Fd())) {
		return report.WriterPresenter{W: cmd.OutOrStdout()}
	}
	return dialog.Presenter{Logs: e.buf, AltScreen: true}
}

// attach imports the tail of an application log file. While the dialog is
// open, lines appended to the file keep arriving in its log pane.
func (e *env) attach(ctx context.Context, path string) {
	source := filepath.Base(path)
	n, err := logbuf.ImportTail(path, attachLines, e.buf, source)
	if err != nil {
		e.logger.Warn("cannot attach log file", "path", path, "err", err)
		return
	}
	e.logger.Debug("attached log file", "path", path, "lines", n)

	if _, ok := e.presenter.(dialog.Presenter); ok {
		go func() {
			if err := logbuf.Follow(ctx, path, e.buf, source, e.logger); err != nil {
				e.logger.Warn("following log file stopped", "path", path, "err", err)
			}
		}()
	}
}

// --- Report ---

var (
	templateFile string
	noTemplate   bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compose a manual bug report",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&templateFile, "template", "", "read the questionnaire from a file")
	reportCmd.Flags().BoolVar(&noTemplate, "no-template", false, "leave out the questionnaire")
}

func runReport(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.stop()

	tmpl := report.DefaultManualTemplate
	switch {
	case noTemplate:
		tmpl = ""
	case templateFile != "":
		data, err := os.ReadFile(templateFile)
		if err != nil {
			return fmt.Errorf("read template: %w", err)
		}
		tmpl = string(data)
	}

	e.logger.Info("composing manual report", "component", "report", "template", templateFile != "")
	return e.presenter.Present(e.composer.Manual(tmpl, e.cfg.Contact()))
}

// --- Crash ---

var crashKind string

var crashCmd = &cobra.Command{
	Use:   "crash",
	Short: "Run a failing workload under the crash guard",
	Long:  "Kinds: panic (an uncaught panic recovered by the guard), error (a returned error reported directly).",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.stop()

		g := report.NewGuard(e.composer, e.presenter, e.cfg.Contact(), e.logger)
		g.Repanic = e.cfg.Report.Repanic

		switch crashKind {
		case "panic":
			func() {
				defer g.Recover()
				if err := simulate(e.logger); err != nil {
					panic(err)
				}
			}()
		case "error":
			if err := simulate(e.logger); err != nil {
				g.Report(err, report.CurrentGoroutine())
			}
		default:
			return fmt.Errorf("unknown crash kind %q: expected panic or error", crashKind)
		}
		return nil
	},
}

func init() {
	crashCmd.Flags().StringVar(&crashKind, "kind", "panic", "panic or error")
}

// --- Sysinfo ---

var sysinfoCmd = &cobra.Command{
	Use:   "sysinfo",
	Short: "Print the system information section",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.stop()
		fmt.Fprint(cmd.OutOrStdout(), e.collector.Collect())
		return nil
	},
}

// --- Version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bugreport %s\n", buildinfo.String())
	},
}

// --- Config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage bugreport.yaml",
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write a default bugreport.yaml",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configArg(args)
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.Save(config.Default(), path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a bugreport.yaml",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configArg(args)
		if err != nil {
			return err
		}
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}

		errs := config.Validate(cfg)
		if len(errs) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", path)
			return nil
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d error(s)\n", path, len(errs))
		for _, e := range errs {
			fmt.Fprintf(cmd.ErrOrStderr(), "  • %s\n", e)
		}
		return fmt.Errorf("%s: invalid config", path)
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
}

func configArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return resolveConfigPath()
}
