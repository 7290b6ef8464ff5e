package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"frontdesk/pkg/config"
	"frontdesk/pkg/contracts"
	"frontdesk/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

type Application struct {
	cfg              *config.Config
	server           *http.Server
	idempotencyStore *middleware.InMemoryIdempotencyStore
	healthHandler    http.Handler
	appHttpHandler   http.Handler
	workers          []contracts.Worker
	closers          []func()
}

func NewApplication(cfg *config.Config) *Application {
	return &Application{cfg: cfg}
}

func (a *Application) SetApp(deps []Dependency, handlers ...contracts.Handler) {
	a.setHealthHandler(deps)
	a.setAppHandler(handlers)
	a.setAppServer()
}

// AddWorker registers a background task started by Run and stopped on shutdown.
func (a *Application) AddWorker(w contracts.Worker) {
	a.workers = append(a.workers, w)
}

// OnShutdown registers fn to run after the server and workers have stopped.
func (a *Application) OnShutdown(fn func()) {
	a.closers = append(a.closers, fn)
}

func (a *Application) setHealthHandler(deps []Dependency) {
	healthRouter := httprouter.New()
	NewHealthHandler(a.cfg.Log, deps...).RegisterRoutes(healthRouter)

	var healthHTTPHandler http.Handler = healthRouter
	healthHTTPHandler = middleware.RequestLogging(a.cfg.Log)(healthHTTPHandler)
	healthHTTPHandler = middleware.Recovery(a.cfg.Log)(healthHTTPHandler)
	a.healthHandler = healthHTTPHandler
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

func (a *Application) setAppHandler(handlers []contracts.Handler) {
	appRouter := httprouter.New()
	for _, h := range handlers {
		h.RegisterRoutes(appRouter)
	}

	a.idempotencyStore = middleware.NewInMemoryIdempotencyStore(a.cfg.IdempotencyTTL)

	var appHttpHandler http.Handler = appRouter
	appHttpHandler = middleware.Idempotency(a.idempotencyStore, "Idempotency-Key")(appHttpHandler)
	appHttpHandler = middleware.Actor()(appHttpHandler)
	appHttpHandler = middleware.RequestTimeout(a.cfg.RequestTimeout)(appHttpHandler)
	appHttpHandler = middleware.ContentTypeValidation(a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(appHttpHandler)
	appHttpHandler = middleware.RequestLogging(a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.Recovery(a.cfg.Log)(appHttpHandler)
	a.appHttpHandler = appHttpHandler
	a.cfg.Log.Info("Application endpoints configured", "handlers", len(handlers))
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle("/", a.appHttpHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for _, w := range a.workers {
		wg.Add(1)
		go func(w contracts.Worker) {
			defer wg.Done()
			a.cfg.Log.Info("Starting background worker", "worker", w.Name())
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.cfg.Log.Error("Background worker stopped with error", "worker", w.Name(), "error", err)
			}
		}(w)
	}

	serverErrors := make(chan error, 1)
	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		cancel()
		a.gracefulShutdown(&wg)
	}
}

func (a *Application) gracefulShutdown(wg *sync.WaitGroup) {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Stopping background workers...")
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		a.cfg.Log.Info("Background workers stopped")
	case <-ctx.Done():
		a.cfg.Log.Warn("Background workers did not stop before the shutdown timeout")
	}
	a.idempotencyStore.Stop()

	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.cfg.GracefulShutdown()

	a.cfg.Log.Info("Server stopped gracefully")
}
