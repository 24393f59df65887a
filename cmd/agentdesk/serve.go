package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/agentdesk/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the coordination API over HTTP",
	Long: `Start the HTTP coordination API.

Endpoints:
  POST /coordination               delegate_task, update_task_status,
                                   get_project_workflow, agent_handoff
  GET  /coordination/{projectId}   project workflow and stats
  GET  /agents, /workflows, /projects
  GET  /healthz, /metrics

Workflow templates in workflows.dir are reloaded when they change. Overdue
in_progress records are failed every coordination.sweep_interval.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		return withApp(ctx, appOptions{events: true}, func(ctx context.Context, a *app) error {
			if cfg.Workflows.Dir != "" {
				if err := a.catalog.Watch(ctx, cfg.Workflows.Dir); err != nil {
					logger.Warn("Workflow reload disabled", "dir", cfg.Workflows.Dir, "error", err)
				}
			}

			srv := server.New(a.svc, server.Config{
				Addr:            cfg.Server.Addr,
				ReadTimeout:     cfg.Server.ReadTimeout,
				WriteTimeout:    cfg.Server.WriteTimeout,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
				SweepInterval:   cfg.Coordination.SweepInterval,
			}, logger)

			logger.Info("Starting agentdesk", "addr", cfg.Server.Addr, "db", a.db.Path(),
				"workflows", len(a.catalog.Types()))
			return srv.ListenAndServe(ctx)
		})
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
}
