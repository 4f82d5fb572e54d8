package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"technowear/internal/adapter/gotrue"
	adapthttp "technowear/internal/adapter/http"
	"technowear/internal/adapter/memory"
	"technowear/internal/adapter/mongo"
	"technowear/internal/adapter/postgres"
	"technowear/internal/adapter/redis"
	"technowear/internal/adapter/sso"
	"technowear/internal/app"
	"technowear/internal/config"
	"technowear/internal/domain"
	"technowear/internal/logging"

	"go.uber.org/zap"
)

type repositories struct {
	garments domain.GarmentRepository
	goals    domain.GoalRepository
	eco      domain.EcoImpactRepository
	metrics  domain.HealthMetricRepository
	auth     domain.AuthProvider
	sessions domain.SessionStore
	feed     domain.ChangeFeed
	closers  []func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}

func run(cfg *config.Config, log *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repos repositories
	var err error
	if cfg.Backend == config.BackendHosted {
		repos, err = hostedBackend(ctx, cfg, log)
	} else {
		repos = memoryBackend(cfg, log)
	}
	defer func() {
		for _, c := range repos.closers {
			_ = c()
		}
	}()
	if err != nil {
		return err
	}

	oauth, err := oauthProviders(ctx, cfg)
	if err != nil {
		return err
	}

	garments := app.NewGarmentService(repos.garments, repos.feed, log)
	svc := adapthttp.Services{
		Auth:     app.NewAuthService(repos.auth, oauth, repos.sessions, cfg.SiteURL, log),
		Health:   app.NewHealthService(repos.metrics, app.NewJitterSource(time.Now().UnixNano())),
		Trends:   app.NewTrendsService(),
		Goals:    app.NewGoalService(repos.goals, repos.feed, log),
		Eco:      app.NewEcoService(repos.eco),
		Garments: garments,
		Pairing:  app.NewPairingService(app.NewSimulatedPairer(), garments, log),
	}
	h := adapthttp.New(svc, adapthttp.Options{
		WebDir:         cfg.WebDir,
		AllowedOrigins: cfg.AllowedOrigins,
		SecureCookies:  cfg.Production(),
	}, log).Handler()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Infow("listening", "addr", cfg.Addr, "backend", cfg.Backend, "env", cfg.Env)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func memoryBackend(cfg *config.Config, log *zap.SugaredLogger) repositories {
	db := memory.New()
	return repositories{
		garments: db,
		goals:    db,
		eco:      db,
		metrics:  db,
		auth:     memory.NewAuth(memory.LogMailer{Log: log}, cfg.SessionTTL),
		sessions: memory.NewSessionStore(),
		feed:     memory.NewFeed(),
	}
}

func hostedBackend(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (repositories, error) {
	var r repositories

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		return r, fmt.Errorf("postgres: %w", err)
	}
	r.closers = append(r.closers, db.Close)
	r.garments, r.goals, r.eco, r.metrics = db, db, db, db

	if cfg.MongoURI != "" {
		store, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return r, fmt.Errorf("mongo: %w", err)
		}
		r.closers = append(r.closers, store.Close)
		r.metrics = store
	}

	if cfg.RedisURL != "" {
		rdb, err := redis.Connect(cfg.RedisURL)
		if err != nil {
			return r, fmt.Errorf("redis: %w", err)
		}
		r.closers = append(r.closers, rdb.Close)
		r.sessions = redis.NewSessionStore(rdb, cfg.SessionTTL, log)
		r.feed = redis.NewFeed(rdb, log)
	} else {
		log.Warnw("REDIS_URL not set; sessions and change feed are local to this process")
		r.sessions = memory.NewSessionStore()
		r.feed = memory.NewFeed()
	}

	r.auth = gotrue.New(cfg.GoTrueURL, cfg.AnonKey, log)
	return r, nil
}

// oauthProviders returns nil when no provider is configured so the auth
// service reports redirect sign-in as unavailable.
func oauthProviders(ctx context.Context, cfg *config.Config) (domain.OAuthProvider, error) {
	callback := func(p domain.OAuthProviderName) string {
		return cfg.SiteURL + "/api/auth/oauth/" + string(p) + "/callback"
	}
	reg, err := sso.New(ctx, []sso.ProviderConfig{
		{
			Name:         domain.ProviderGoogle,
			Issuer:       sso.GoogleIssuer,
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  callback(domain.ProviderGoogle),
		},
		{
			Name:         domain.ProviderApple,
			Issuer:       sso.AppleIssuer,
			ClientID:     cfg.AppleClientID,
			ClientSecret: cfg.AppleClientSecret,
			RedirectURL:  callback(domain.ProviderApple),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("oauth: %w", err)
	}
	if reg.Len() == 0 {
		return nil, nil
	}
	return reg, nil
}
