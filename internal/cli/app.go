package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/flowtask/flowtask/internal/core/domain"
	"github.com/flowtask/flowtask/internal/core/ports"
	"github.com/flowtask/flowtask/internal/core/service"
	"github.com/flowtask/flowtask/internal/infrastructure/api"
	"github.com/flowtask/flowtask/internal/infrastructure/config"
	mongostore "github.com/flowtask/flowtask/internal/infrastructure/db/mongo"
	redisstore "github.com/flowtask/flowtask/internal/infrastructure/db/redis"
	"github.com/flowtask/flowtask/internal/infrastructure/db/sqlite"
	"github.com/flowtask/flowtask/internal/metrics"
	"github.com/flowtask/flowtask/pkg/logger"
)

var errNotSignedIn = fmt.Errorf("%w: no stored session", domain.ErrNotAuthenticated)

// app is the wired client: one store, one gateway, one session, one cache.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	store   ports.SessionStore
	gateway *api.Client
	session *service.SessionService
	tasks   *service.TaskService
	notice  *loginNotice
}

type bootstrapFunc func(ctx context.Context, stderr io.Writer) (*app, error)

func newApp(ctx context.Context, stderr io.Writer) (*app, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.Init(logger.Options{
		Level:    cfg.LogLevel,
		Fallback: zerolog.WarnLevel,
		Pretty:   cfg.Pretty(),
		Output:   stderr,
	})

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return assemble(cfg, store, log, stderr)
}

func openStore(ctx context.Context, cfg *config.Config) (ports.SessionStore, error) {
	switch cfg.Store {
	case config.StoreRedis:
		store, err := redisstore.Open(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, cfg.Instance)
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
		return store, nil
	case config.StoreMongo:
		store, err := mongostore.Open(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database}, cfg.Instance)
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
		return store, nil
	default:
		store, err := sqlite.Open(cfg.StatePath, cfg.Instance)
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
		return store, nil
	}
}

// assemble wires the services around store. The session subscribes to the
// gateway's authorization failures.
func assemble(cfg *config.Config, store ports.SessionStore, log zerolog.Logger, stderr io.Writer) (*app, error) {
	gw, err := api.NewClient(api.Config{BaseURL: cfg.APIURL, Timeout: cfg.RequestTimeout}, store, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	notice := &loginNotice{w: stderr}
	session := service.NewSessionService(gw, store, notice, log)
	gw.OnUnauthorized(session.Invalidate)

	return &app{
		cfg:     cfg,
		log:     log,
		store:   store,
		gateway: gw,
		session: session,
		tasks:   service.NewTaskService(gw, gw, session, log),
		notice:  notice,
	}, nil
}

func (a *app) close() {
	if err := a.session.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close session store")
	}
	if a.cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
			a.log.Warn().Err(err).Str("path", a.cfg.MetricsFile).Msg("write metrics textfile")
		}
	}
}

// env carries the lazily built app through one invocation.
type env struct {
	boot    bootstrapFunc
	streams streams
	app     *app
}

// load builds the app on first use and resolves the stored session.
func (e *env) load(ctx context.Context) (*app, error) {
	if e.app != nil {
		return e.app, nil
	}
	a, err := e.boot(ctx, e.streams.err)
	if err != nil {
		return nil, err
	}
	e.app = a
	if _, err := a.session.Initialize(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// signedIn is load plus the requirement that a user is signed in.
func (e *env) signedIn(ctx context.Context) (*app, domain.Session, error) {
	a, err := e.load(ctx)
	if err != nil {
		return nil, domain.Session{}, err
	}
	s := a.session.Current()
	if !s.IsAuthenticated {
		return nil, s, errNotSignedIn
	}
	return a, s, nil
}

func (e *env) close() {
	if e.app != nil {
		e.app.close()
	}
}
