package httpapp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/avdeyev/authsvc/internal/config"
	authhttp "github.com/avdeyev/authsvc/internal/http/auth"
	"github.com/avdeyev/authsvc/internal/http/middleware"
	"github.com/gin-gonic/gin"
)

type App struct {
	log    *slog.Logger
	server *http.Server
	port   int
}

func New(
	log *slog.Logger,
	env string,
	handler *authhttp.Handler,
	parser middleware.TokenParser,
	cfg config.HTTPConfig,
) *App {
	if env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	handler.RegisterRoutes(router, middleware.Authenticate(parser))

	server := &http.Server{
		Addr:        net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:     router,
		ReadTimeout: cfg.Timeout,
		IdleTimeout: cfg.IdleTimeout,
	}

	return &App{
		log:    log,
		server: server,
		port:   cfg.Port,
	}
}

// MustRun runs the HTTP server and panics if any error occurs.
func (a *App) MustRun() {
	if err := a.Run(); err != nil {
		panic(err)
	}
}

// Run runs the HTTP server.
func (a *App) Run() error {
	const op = "httpapp.Run"

	log := a.log.With(
		slog.String("op", op),
		slog.Int("port", a.port),
	)

	log.Info("HTTP server is running", slog.String("addr", a.server.Addr))

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Stop shuts the HTTP server down gracefully.
func (a *App) Stop(ctx context.Context) {
	const op = "httpapp.Stop"

	a.log.With(slog.String("op", op)).
		Info("stopping HTTP server")

	if err := a.server.Shutdown(ctx); err != nil {
		a.log.Error("failed to shut down HTTP server", slog.Any("error", err))
	}
}
