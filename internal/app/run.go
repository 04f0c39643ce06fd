package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/specialistvlad/behaviourgrid/internal/ctxlog"
	"github.com/specialistvlad/behaviourgrid/internal/events"
)

// Run seeds the configured entities, starts the admin server and the events
// feed, and blocks until ctx is cancelled. On return every behaviour has been
// released and every module closed.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")
	defer a.shutdown(ctx)

	if url := a.settings.Events.URL; url != "" {
		feed, err := events.Dial(ctx, events.Options{URL: url, Namespace: a.settings.Events.Namespace})
		if err != nil {
			return fmt.Errorf("failed to connect events feed: %w", err)
		}
		a.relay.feed.Store(feed)
	}

	for _, e := range a.model.Entities {
		if _, err := a.store.Create(ctx, e.Type, e.ID, e.Properties); err != nil {
			return fmt.Errorf("failed to create entity %q from %s: %w", e.Type, e.Source, err)
		}
	}
	a.logger.Info("🚀 Entities seeded.", "entities", a.store.Len(), "behaviours", a.provider.Snapshot())

	a.server.Start(a.settings.Port)

	<-ctx.Done()
	a.logger.Info("🏁 Shutting down.")
	a.logger.Debug("App.Run method finished.")
	return nil
}

// shutdown stops the server, releases every behaviour and closes modules and
// the events feed.
func (a *App) shutdown(ctx context.Context) {
	var errs []error
	if err := a.server.Shutdown(context.WithoutCancel(ctx)); err != nil {
		errs = append(errs, err)
	}

	a.provider.Close(ctx)

	for _, mod := range a.modules {
		if c, ok := mod.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if feed := a.relay.feed.Swap(nil); feed != nil {
		if err := feed.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("Shutdown completed with errors.", "error", err)
		return
	}
	a.logger.Debug("Shutdown completed.")
}
