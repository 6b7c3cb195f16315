package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/shortlink/internal/adapter/repository/memory"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
	"golang.org/x/sync/errgroup"

	delivery "github.com/vadimbarashkov/shortlink/internal/adapter/delivery/http"
)

func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger, err := NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("%s: failed to create logger: %w", op, err)
	}

	urlRepo := memory.NewURLRepository()
	unsubscribe := urlRepo.Subscribe(LogEvents(logger.Logger))
	defer unsubscribe()

	urlUseCase := usecase.New(urlRepo,
		usecase.WithShortCodeLength(cfg.ShortCodeLength),
		usecase.WithDefaultValidity(cfg.DefaultValidity),
		usecase.WithMaxCustomCodeLength(cfg.MaxCustomCodeLength),
		usecase.WithRecentLimit(cfg.RecentLimit),
		usecase.WithExpiryEnforcement(cfg.EnforceExpiry),
		usecase.WithClickDefaults(cfg.Click.Source, cfg.Click.Location),
		usecase.WithLogger(logger.Logger),
	)

	router := delivery.NewRouter(logger, urlUseCase, delivery.Options{
		BaseURL:           cfg.BaseURL,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
		LimiterIdleTTL:    cfg.RateLimit.IdleTTL,
		TrustProxy:        cfg.HTTPServer.TrustProxy,
		SwaggerFile:       cfg.SwaggerFile,
	})

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        router,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", slog.String("addr", server.Addr), slog.String("env", cfg.Env))

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down server")

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}

// NewLogger builds the request logger described by cfg.Log.
func NewLogger(cfg *config.Config) (*httplog.Logger, error) {
	const op = "app.NewLogger"

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return nil, fmt.Errorf("%s: invalid log level %q: %w", op, cfg.Log.Level, err)
	}

	return httplog.NewLogger("shortlink", httplog.Options{
		LogLevel: level,
		JSON:     cfg.Log.JSON,
		Concise:  cfg.Log.Concise,
		Tags: map[string]string{
			"env": cfg.Env,
		},
	}), nil
}

// LogEvents returns a store subscriber that writes every event to logger.
// Failed clicks and redirects are logged as warnings.
func LogEvents(logger *slog.Logger) func(entity.Event) {
	return func(ev entity.Event) {
		level := slog.LevelInfo
		if ev.Type == entity.EventClickFailed || ev.Type == entity.EventRedirectFailed {
			level = slog.LevelWarn
		}

		attrs := make([]any, 0, len(ev.Data)+1)
		attrs = append(attrs, slog.String("type", string(ev.Type)))
		for k, v := range ev.Data {
			attrs = append(attrs, slog.Any(k, v))
		}

		logger.Log(context.Background(), level, ev.Message, attrs...)
	}
}
