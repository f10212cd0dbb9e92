package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	adapthttp "nutriportal/internal/adapter/http"
	"nutriportal/internal/adapter/memory"
	"nutriportal/internal/adapter/mongodb"
	"nutriportal/internal/adapter/postgres"
	rediscache "nutriportal/internal/adapter/redis"
	"nutriportal/internal/app"
	"nutriportal/internal/config"
	"nutriportal/internal/domain"
	"nutriportal/internal/logging"
)

// backend is the set of ports one store provides.
type backend struct {
	docs     domain.DocumentStore
	accounts domain.AccountRepository
	sessions domain.SessionRepository
	ping     adapthttp.HealthCheck
	close    func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mem := memory.New()
	store, err := openStore(ctx, cfg, mem)
	if err != nil {
		logger.WithError(err).Fatal("open store")
	}
	defer store.close()

	cache, cachePing, closeCache, err := openCache(ctx, cfg, mem)
	if err != nil {
		logger.WithError(err).Fatal("open cache")
	}
	defer closeCache()

	measurementSvc := app.NewMeasurementService(store.docs,
		app.WithLogger(logger),
		app.WithAutoCreate(cfg.AutoCreateDocuments),
	)
	grocerySvc := app.NewGroceryService(store.docs)
	reminderSvc := app.NewReminderService(cache, cfg.DraftTTL)
	authSvc := app.NewAuthService(store.accounts, store.sessions)

	srv := adapthttp.New(measurementSvc, grocerySvc, reminderSvc, authSvc).WithLogger(logger)
	if store.ping != nil {
		srv.WithHealthCheck("store", store.ping)
	}
	if cachePing != nil {
		srv.WithHealthCheck("cache", cachePing)
	}
	if cfg.DisableAuth {
		logger.Warn("authentication disabled")
		srv.WithoutAuth()
	}
	if cfg.OIDC.Enabled() {
		oidcCfg, err := newOIDC(ctx, cfg.OIDC)
		if err != nil {
			logger.WithError(err).Fatal("oidc provider")
		}
		srv.WithOIDC(oidcCfg)
	}

	go sweepSessions(ctx, store.sessions, logger)

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	logger.WithFields(logrus.Fields{
		"addr":  cfg.Addr,
		"store": cfg.StoreBackend,
		"cache": cfg.CacheBackend,
	}).Info("listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("serve")
	}
}

func openStore(ctx context.Context, cfg *config.Config, mem *memory.DB) (*backend, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return &backend{
			docs:     db,
			accounts: db,
			sessions: postgres.NewSessionRepo(db),
			ping:     db.Ping,
			close:    func() { _ = db.Close() },
		}, nil
	case config.StoreMongo:
		st, err := mongodb.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return &backend{
			docs:     st,
			accounts: st,
			sessions: mongodb.NewSessionRepo(st),
			ping:     st.Ping,
			close:    func() { _ = st.Close(context.Background()) },
		}, nil
	}
	return &backend{
		docs:     mem,
		accounts: mem,
		sessions: mem.NewSessionRepo(),
		close:    func() {},
	}, nil
}

func openCache(ctx context.Context, cfg *config.Config, mem *memory.DB) (domain.KeyValueCache, adapthttp.HealthCheck, func(), error) {
	if cfg.CacheBackend != config.CacheRedis {
		return mem.NewCache(), nil, func() {}, nil
	}
	client, err := rediscache.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	c := rediscache.New(client)
	return c, c.Ping, func() { _ = client.Close() }, nil
}

func newOIDC(ctx context.Context, cfg config.OIDC) (adapthttp.OIDCConfig, error) {
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return adapthttp.OIDCConfig{}, err
	}
	return adapthttp.OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

func sweepSessions(ctx context.Context, sessions domain.SessionRepository, logger logrus.FieldLogger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sessions.DeleteExpired(ctx); err != nil {
				logger.WithError(err).Warn("delete expired sessions")
			}
		}
	}
}
