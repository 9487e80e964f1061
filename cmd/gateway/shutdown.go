package main

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/vyrodovalexey/edgegw/internal/observability"
)

// run serves until ctx is canceled or a listener fails, then shuts down.
func (app *application) run(ctx context.Context) error {
	ln, err := net.Listen("tcp", app.config.Listen)
	if err != nil {
		app.close(context.Background())
		return err
	}

	var adminLn net.Listener
	if app.config.Admin.Enabled {
		adminLn, err = net.Listen("tcp", app.config.Admin.Listen)
		if err != nil {
			_ = ln.Close()
			app.close(context.Background())
			return err
		}
	}

	return app.serve(ctx, ln, adminLn)
}

// serve runs the public listener and, when adminLn is not nil, the admin
// listener.
func (app *application) serve(ctx context.Context, ln, adminLn net.Listener) error {
	errCh := make(chan error, 2)

	app.server = newServer(ln.Addr().String(), app.handler)
	go func() {
		app.logger.Info("gateway listening", observability.String("address", ln.Addr().String()))
		if err := app.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if adminLn != nil {
		app.adminServer = createAdminServer(adminLn.Addr().String(),
			newAdminRouter(app.metrics, app.healthChecker), app.logger)
		go func() {
			if err := app.adminServer.Serve(adminLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		app.logger.Info("received shutdown signal")
	case runErr = <-errCh:
		app.logger.Error("listener failed", observability.Error(runErr))
	}

	app.shutdown()
	return runErr
}

// shutdown drains in-flight requests within the configured timeout, then
// releases the limiter store and flushes traces.
func (app *application) shutdown() {
	app.healthChecker.SetDraining()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout.Duration())
	defer cancel()

	if app.server != nil {
		if err := app.server.Shutdown(shutdownCtx); err != nil {
			app.logger.Error("failed to stop gateway gracefully", observability.Error(err))
		}
	}

	if app.adminServer != nil {
		app.logger.Info("stopping admin server")
		if err := app.adminServer.Shutdown(shutdownCtx); err != nil {
			app.logger.Error("failed to stop admin server gracefully", observability.Error(err))
		}
	}

	app.close(shutdownCtx)
	app.logger.Info("gateway stopped")
}

// close releases resources that outlive the listeners.
func (app *application) close(ctx context.Context) {
	if app.limiter != nil {
		if err := app.limiter.Close(); err != nil {
			app.logger.Error("failed to close rate limiter", observability.Error(err))
		}
	}

	if err := app.tracer.Shutdown(ctx); err != nil {
		app.logger.Error("failed to shutdown tracer", observability.Error(err))
	}
}
