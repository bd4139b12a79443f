package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	serveradapter "github.com/hylla/tasklist/internal/adapters/server"
	servercommon "github.com/hylla/tasklist/internal/adapters/server/common"
	"github.com/hylla/tasklist/internal/app"
	"github.com/hylla/tasklist/internal/config"
	"github.com/hylla/tasklist/internal/domain"
	"github.com/spf13/cobra"
)

func newPathsCommand(opts *globalOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			paths, _, err := resolvePaths(opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "app: %s\n", opts.appName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "db: %s\n", paths.DBPath)
			return nil
		},
	}
}

func newInitConfigCommand(opts *globalOptions, stdout io.Writer) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			paths, _, err := resolvePaths(opts)
			if err != nil {
				return err
			}
			if _, err := os.Stat(paths.ConfigPath); err == nil && !force {
				return fmt.Errorf("config %q already exists (use --force to overwrite)", paths.ConfigPath)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("stat config: %w", err)
			}
			if err := config.Save(paths.ConfigPath, config.Default(paths.DBPath)); err != nil {
				return fmt.Errorf("write config %q: %w", paths.ConfigPath, err)
			}
			_, _ = fmt.Fprintf(stdout, "wrote %s\n", paths.ConfigPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func newListCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var filterName string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := domain.ParseFilter(filterName)
			if err != nil {
				return fmt.Errorf("--filter %q: %w", filterName, err)
			}
			return withRuntime(cmd.Context(), "list", opts, stderr, func(ctx context.Context, deps *runtimeDeps) error {
				listed, err := deps.svc.ListTasks(ctx, filter)
				if err != nil {
					return err
				}
				return writeTaskTable(stdout, listed, filter)
			})
		},
	}
	cmd.Flags().StringVar(&filterName, "filter", "all", "all, active or completed")
	return cmd
}

func newAddCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var in app.CreateTaskInput
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an active task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), "add", opts, stderr, func(ctx context.Context, deps *runtimeDeps) error {
				task, err := deps.svc.CreateTask(ctx, in)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(stdout, task.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "task title")
	cmd.Flags().StringVar(&in.Description, "description", "", "task description (markdown)")
	return cmd
}

// newEditCommand builds `edit ID`; flags left unset keep the stored value.
func newEditCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var title, description string
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a task's title or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			titleSet := cmd.Flags().Changed("title")
			descriptionSet := cmd.Flags().Changed("description")
			if !titleSet && !descriptionSet {
				return fmt.Errorf("nothing to change: pass --title or --description")
			}
			return withRuntime(cmd.Context(), "edit", opts, stderr, func(ctx context.Context, deps *runtimeDeps) error {
				current, err := deps.svc.GetTask(ctx, args[0])
				if err != nil {
					return err
				}
				in := app.UpdateTaskInput{
					TaskID:      current.ID,
					Title:       current.Title,
					Description: current.Description,
				}
				if titleSet {
					in.Title = title
				}
				if descriptionSet {
					in.Description = description
				}
				task, err := deps.svc.UpdateTask(ctx, in)
				if err != nil {
					return err
				}
				return writeTaskTable(stdout, []domain.Task{task}, domain.FilterAll)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new task title")
	cmd.Flags().StringVar(&description, "description", "", "new task description (markdown)")
	return cmd
}

func newDeleteCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), "delete", opts, stderr, func(ctx context.Context, deps *runtimeDeps) error {
				if err := deps.svc.DeleteTask(ctx, args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(stdout, "deleted %s\n", args[0])
				return nil
			})
		},
	}
}

// newSetCompletedCommand builds `complete ID` or `activate ID`.
func newSetCompletedCommand(opts *globalOptions, stdout, stderr io.Writer, complete bool) *cobra.Command {
	use, short := "activate", "Mark a completed task active again"
	if complete {
		use, short = "complete", "Mark a task completed"
	}
	return &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), use, opts, stderr, func(ctx context.Context, deps *runtimeDeps) error {
				var (
					task domain.Task
					err  error
				)
				if complete {
					task, err = deps.svc.CompleteTask(ctx, args[0])
				} else {
					task, err = deps.svc.ActivateTask(ctx, args[0])
				}
				if err != nil {
					return err
				}
				return writeTaskTable(stdout, []domain.Task{task}, domain.FilterAll)
			})
		},
	}
}

func newClearCompletedCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-completed",
		Short: "Delete every completed task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), "clear-completed", opts, stderr, func(ctx context.Context, deps *runtimeDeps) error {
				removed, err := deps.svc.ClearCompletedTasks(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(stdout, "removed %d completed task(s)\n", removed)
				return nil
			})
		},
	}
}

func newStatsCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show active and completed counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), "stats", opts, stderr, func(ctx context.Context, deps *runtimeDeps) error {
				stats, err := deps.svc.Statistics(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(stdout, "total: %d\n", stats.Total)
				_, _ = fmt.Fprintf(stdout, "active: %d (%.1f%%)\n", stats.Active, stats.ActivePercent)
				_, _ = fmt.Fprintf(stdout, "completed: %d (%.1f%%)\n", stats.Completed, stats.CompletedPercent)
				return nil
			})
		},
	}
}

func newExportCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every task as a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), "export", opts, stderr, func(ctx context.Context, deps *runtimeDeps) error {
				snap, err := deps.svc.ExportSnapshot(ctx)
				if err != nil {
					return fmt.Errorf("export snapshot: %w", err)
				}
				encoded, err := json.MarshalIndent(snap, "", "  ")
				if err != nil {
					return fmt.Errorf("encode snapshot json: %w", err)
				}
				encoded = append(encoded, '\n')

				if outPath == "-" {
					if _, err := stdout.Write(encoded); err != nil {
						return fmt.Errorf("write snapshot to stdout: %w", err)
					}
					return nil
				}
				if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
					return fmt.Errorf("create export output dir: %w", err)
				}
				if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
					return fmt.Errorf("write export file: %w", err)
				}
				_, _ = fmt.Fprintf(stdout, "exported %d task(s) to %s\n", len(snap.Tasks), outPath)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout)")
	return cmd
}

func newImportCommand(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var (
		inPath  string
		replace bool
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Upsert tasks from a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(inPath) == "" {
				return fmt.Errorf("--in is required")
			}
			content, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			var snap app.Snapshot
			if err := json.Unmarshal(content, &snap); err != nil {
				return fmt.Errorf("decode snapshot json: %w", err)
			}
			return withRuntime(cmd.Context(), "import", opts, stderr, func(ctx context.Context, deps *runtimeDeps) error {
				importFn := deps.svc.ImportSnapshot
				if replace {
					importFn = deps.svc.ReplaceWithSnapshot
				}
				n, err := importFn(ctx, snap)
				if err != nil {
					return fmt.Errorf("import snapshot: %w", err)
				}
				_, _ = fmt.Fprintf(stdout, "imported %d task(s)\n", n)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot JSON file")
	cmd.Flags().BoolVar(&replace, "replace", false, "delete every existing task before importing")
	return cmd
}

func newServeCommand(opts *globalOptions, stderr io.Writer) *cobra.Command {
	var bind, apiEndpoint, mcpEndpoint string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API and MCP tools over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd.Context(), "serve", opts, stderr, func(ctx context.Context, deps *runtimeDeps) error {
				cfg := serveradapter.Config{
					HTTPBind:      firstNonEmpty(bind, deps.cfg.Server.Bind),
					APIEndpoint:   firstNonEmpty(apiEndpoint, deps.cfg.Server.APIEndpoint),
					MCPEndpoint:   firstNonEmpty(mcpEndpoint, deps.cfg.Server.MCPEndpoint),
					ServerName:    deps.appName,
					ServerVersion: version,
				}
				return serveCommandRunner(ctx, cfg, serveradapter.Dependencies{
					Tasks:  servercommon.NewAppServiceAdapter(deps.svc),
					Logger: deps.logger.Component("server"),
				})
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "HTTP listen address (default from config server.bind)")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", "", "HTTP API base endpoint")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "", "MCP streamable HTTP endpoint")
	return cmd
}

// writeTaskTable prints one row per task, or the empty-list text for filter.
func writeTaskTable(w io.Writer, listed []domain.Task, filter domain.Filter) error {
	if len(listed) == 0 {
		_, err := fmt.Fprintln(w, filter.NoTasksText())
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, task := range listed {
		box := "[ ]"
		if task.Completed {
			box = "[x]"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", box, task.ID, firstLine(task.TitleForList()))
	}
	return tw.Flush()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
