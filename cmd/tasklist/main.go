package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	serveradapter "github.com/hylla/tasklist/internal/adapters/server"
	"github.com/hylla/tasklist/internal/adapters/storage/sqlite"
	"github.com/hylla/tasklist/internal/app"
	"github.com/hylla/tasklist/internal/config"
	"github.com/hylla/tasklist/internal/executor"
	"github.com/hylla/tasklist/internal/platform"
	"github.com/hylla/tasklist/internal/tasks"
	"github.com/hylla/tasklist/internal/tui"
	"github.com/spf13/cobra"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(ctx context.Context, m tea.Model) program {
	return tea.NewProgram(m, tea.WithContext(ctx))
}

// serveCommandRunner starts the HTTP+MCP serve flow.
var serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
	return serveradapter.Run(ctx, cfg, deps)
}

// getenv is swapped in tests.
var getenv = os.Getenv

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		stop()
		os.Exit(1)
	}
}

// run executes the command tree through fang, which renders help and errors.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return fang.Execute(ctx, root, fang.WithVersion(version))
}

// globalOptions holds persistent flag values.
type globalOptions struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

// runtimeDeps bundles everything one command needs after startup.
type runtimeDeps struct {
	appName string
	devMode bool
	paths   platform.Paths
	cfg     config.Config
	logger  *runtimeLogger
	repo    *sqlite.Repository
	svc     *app.Service
}

// Close releases the repository and the log file.
func (d *runtimeDeps) Close(stderr io.Writer) {
	if d == nil {
		return
	}
	if d.repo != nil {
		if err := d.repo.Close(); err != nil {
			d.logger.Warn("sqlite close failed", "db_path", d.cfg.Database.Path, "err", err)
		}
	}
	if err := d.logger.Close(); err != nil && d.logger.shouldLogToSink(d.logger.consoleSink) {
		_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", err)
	}
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{
		appName: platform.DefaultAppName,
		devMode: platform.DevModeFromEnv(getenv, version == "dev"),
	}
	root := &cobra.Command{
		Use:           "tasklist",
		Short:         "A terminal to-do list with a REST and MCP server",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts, stderr)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML (env "+platform.EnvConfigPath+")")
	flags.StringVar(&opts.dbPath, "db", "", "path to sqlite database (env "+platform.EnvDBPath+")")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		newPathsCommand(opts, stdout),
		newInitConfigCommand(opts, stdout),
		newListCommand(opts, stdout, stderr),
		newAddCommand(opts, stdout, stderr),
		newEditCommand(opts, stdout, stderr),
		newDeleteCommand(opts, stdout, stderr),
		newSetCompletedCommand(opts, stdout, stderr, true),
		newSetCompletedCommand(opts, stdout, stderr, false),
		newClearCompletedCommand(opts, stdout, stderr),
		newStatsCommand(opts, stdout, stderr),
		newExportCommand(opts, stdout, stderr),
		newImportCommand(opts, stdout, stderr),
		newServeCommand(opts, stderr),
	)
	return root
}

// resolvePaths applies flag and environment overrides to the platform defaults.
func resolvePaths(opts *globalOptions) (platform.Paths, bool, error) {
	defaults, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: opts.appName,
		DevMode: opts.devMode,
	})
	if err != nil {
		return platform.Paths{}, false, err
	}
	paths, dbOverridden := defaults.WithOverrides(opts.configPath, opts.dbPath, getenv)
	return paths, dbOverridden, nil
}

// startup loads config, builds the logger and opens the repository.
func startup(command string, opts *globalOptions, stderr io.Writer) (*runtimeDeps, error) {
	paths, dbOverridden, err := resolvePaths(opts)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(paths.ConfigPath, config.Default(paths.DBPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", paths.ConfigPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = paths.DBPath
	}

	logger, err := newRuntimeLogger(stderr, opts.appName, opts.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if command == "tui" {
		// Runtime logs stay in the dev-file sink while the list is on screen.
		logger.SetConsoleEnabled(false)
	}
	deps := &runtimeDeps{
		appName: opts.appName,
		devMode: opts.devMode,
		paths:   paths,
		cfg:     cfg,
		logger:  logger,
	}

	logger.Info("startup configuration resolved", "app", opts.appName, "dev_mode", opts.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", paths.ConfigPath, "data_dir", paths.DataDir, "db_path", paths.DBPath)
	logger.Info("configuration loaded", "config_path", paths.ConfigPath, "db_path", cfg.Database.Path, "log_level", cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		deps.Close(stderr)
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}
	deps.repo = repo
	deps.svc = app.NewService(repo, uuid.NewString, nil)
	logger.Info("sqlite repository ready", "db_path", cfg.Database.Path, "migrations", "ensured")
	return deps, nil
}

// withRuntime wraps one command flow with startup, logging and cleanup.
func withRuntime(ctx context.Context, command string, opts *globalOptions, stderr io.Writer, fn func(context.Context, *runtimeDeps) error) error {
	deps, err := startup(command, opts, stderr)
	if err != nil {
		return err
	}
	defer deps.Close(stderr)

	deps.logger.Info("command flow start", "command", command)
	if err := fn(ctx, deps); err != nil {
		deps.logger.Error("command flow failed", "command", command, "err", err)
		return fmt.Errorf("run %s command: %w", command, err)
	}
	deps.logger.Info("command flow complete", "command", command)
	return nil
}

// runTUI starts the interactive list.
func runTUI(ctx context.Context, opts *globalOptions, stderr io.Writer) error {
	return withRuntime(ctx, "tui", opts, stderr, func(ctx context.Context, deps *runtimeDeps) error {
		state := tasks.NewSavedState()
		if filter, err := deps.cfg.UI.Filter(); err == nil {
			state.SetFilter(filter)
		}

		loop := executor.NewLoop(executor.LoopOptions{IOLimit: 4})
		defer loop.Close()
		vm := tasks.New(deps.repo,
			tasks.WithExecutor(loop),
			tasks.WithSavedState(state),
			tasks.WithLogger(deps.logger.Component("tasks")),
		)
		defer vm.Close()

		m := tui.NewModel(vm, deps.svc,
			tui.WithContext(ctx),
			tui.WithLoop(loop),
			tui.WithLogger(deps.logger.Component("tui")),
			tui.WithShowDescription(deps.cfg.UI.ShowDescription),
			tui.WithConfirmClear(deps.cfg.UI.ConfirmClear),
		)
		deps.logger.Info("starting tui program loop", "filter", vm.Filter().String())
		if _, err := programFactory(ctx, m).Run(); err != nil {
			deps.logger.Error("tui program terminated with error", "err", err)
			return fmt.Errorf("run tui program: %w", err)
		}
		return nil
	})
}

// firstLine trims text to its first line for one-row output.
func firstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return strings.TrimSpace(line)
}
