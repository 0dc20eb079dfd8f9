package app

import (
	"log/slog"

	httpapp "github.com/avdeyev/authsvc/internal/app/http"
	"github.com/avdeyev/authsvc/internal/config"
	authhttp "github.com/avdeyev/authsvc/internal/http/auth"
	jwtlib "github.com/avdeyev/authsvc/internal/lib/jwt"
	"github.com/avdeyev/authsvc/internal/notify"
	"github.com/avdeyev/authsvc/internal/services/auth"
	"github.com/avdeyev/authsvc/internal/services/reset"
	"github.com/avdeyev/authsvc/internal/storage/sqlite"
)

type App struct {
	HTTPSrv *httpapp.App
	storage *sqlite.Storage
}

func New(
	log *slog.Logger,
	cfg *config.Config,
) *App {
	storage, err := sqlite.New(cfg.StoragePath)
	if err != nil {
		panic(err)
	}

	issuer := jwtlib.New(cfg.Tokens.Secret, cfg.Tokens.TTL, cfg.Tokens.RememberTTL)
	resetStore := reset.New(log, storage, storage, cfg.Reset.TTL)
	notifier := notify.NewEmailNotifier(cfg.SMTP, log)

	authService := auth.New(log, storage, storage, issuer, resetStore, notifier, cfg.Password, cfg.Reset.LinkBase)
	handler := authhttp.NewHandler(authService)

	httpApp := httpapp.New(log, cfg.Env, handler, issuer, cfg.HTTP)

	return &App{
		HTTPSrv: httpApp,
		storage: storage,
	}
}

func (a *App) Close() error {
	return a.storage.Close()
}
