package surrealcrud

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/hlog"

	"github.com/surrealdb/surrealcrud/pkg/schema"
)

const shutdownTimeout = 5 * time.Second

// Handler returns the application's HTTP handler with every route and middleware
// installed.
func (a *App) Handler() http.Handler {
	middleware := []mux.MiddlewareFunc{
		hlog.NewHandler(a.log),
		hlog.AccessHandler(logAccess),
		a.metrics.instrument,
	}

	router := mux.NewRouter()
	// mux only applies Use middleware to matched routes.
	router.NotFoundHandler = chain(http.HandlerFunc(a.handleNotFound), middleware)
	router.MethodNotAllowedHandler = chain(http.HandlerFunc(a.handleMethodNotAllowed), middleware)
	router.Use(middleware...)

	router.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", a.metrics.handler()).Methods(http.MethodGet)

	mountResource[schema.UserCreate, schema.UserUpdate](a, router, a.users)
	mountResource[schema.ItemCreate, schema.ItemUpdate](a, router, a.items)

	return router
}

func chain(h http.Handler, middleware []mux.MiddlewareFunc) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i].Middleware(h)
	}
	return h
}

func logAccess(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}

// Run listens on the configured host and cmd.Port and serves the API until ctx is
// cancelled. Port 0 picks a free port.
func (a *App) Run(ctx context.Context, cmd *RunCommand) error {
	addr := net.JoinHostPort(a.config.Host, strconv.Itoa(cmd.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return a.Serve(ctx, listener)
}

// Serve serves the API on listener until ctx is cancelled, then shuts the server down
// gracefully. The listener is closed on return.
func (a *App) Serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.logStartup(listener.Addr())

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}

func (a *App) logStartup(addr net.Addr) {
	a.log.Info().Str("database", a.store.Database()).Msg("using db")

	event := a.log.Info().
		Str("backend", a.store.Backend()).
		Str("address", addr.String()).
		Bool("read_only", a.IsReadOnly())
	if tcp, ok := addr.(*net.TCPAddr); ok && tcp.IP.IsUnspecified() {
		event = event.Str("network", "http://"+net.JoinHostPort(localIP(), strconv.Itoa(tcp.Port)))
	}
	event.Msg("listening")
}
