package main

import (
	"context"
	"fmt"

	"github.com/ShayCichocki/agentdesk/internal/config"
	"github.com/ShayCichocki/agentdesk/internal/coordination"
	"github.com/ShayCichocki/agentdesk/internal/events"
	"github.com/ShayCichocki/agentdesk/internal/registry"
	"github.com/ShayCichocki/agentdesk/internal/state"
	"github.com/ShayCichocki/agentdesk/internal/workflow"
)

// app is the wired service stack shared by every command.
type app struct {
	db        *state.DB
	catalog   *workflow.Catalog
	publisher events.Publisher
	svc       *coordination.Service
}

// appOptions selects the optional parts of the stack.
type appOptions struct {
	// events connects the NATS publisher when events.nats_url is set.
	events bool
}

// openApp opens and migrates the store and wires the service over it.
func openApp(c *config.Config, opts appOptions) (*app, error) {
	path := c.Database.Path
	if path == "" {
		path = state.DefaultDBPath()
	}
	db, err := state.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	catalog := workflow.Builtin()
	if c.Workflows.Dir != "" {
		if err := catalog.LoadDir(c.Workflows.Dir); err != nil {
			db.Close()
			return nil, fmt.Errorf("load workflows: %w", err)
		}
	}

	var publisher events.Publisher = events.NopPublisher{}
	if opts.events && c.Events.NATSURL != "" {
		nc, err := events.ConnectNATS(c.Events.NATSURL, c.Events.SubjectPrefix, logger)
		if err != nil {
			// Events are optional; coordination works without them.
			logger.Warn("NATS unavailable, events disabled", "url", c.Events.NATSURL, "error", err)
		} else {
			publisher = nc
		}
	}

	agents := registry.Default()
	svc := coordination.NewService(db, agents, workflow.NewEngine(catalog, agents), coordination.Options{
		TaskTimeout: c.Coordination.TaskTimeout,
		Publisher:   publisher,
		Logger:      logger,
	})

	return &app{db: db, catalog: catalog, publisher: publisher, svc: svc}, nil
}

// Close flushes events and closes the store.
func (a *app) Close() error {
	if err := a.publisher.Close(); err != nil {
		logger.Warn("Failed to drain event publisher", "error", err)
	}
	return a.db.Close()
}

// withApp runs fn against a freshly opened app.
func withApp(ctx context.Context, opts appOptions, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(cfg, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
