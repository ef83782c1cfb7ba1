package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/docdesigner/internal/config"
	"github.com/matzehuels/docdesigner/pkg/designer"
	"github.com/matzehuels/docdesigner/pkg/errors"
	"github.com/matzehuels/docdesigner/pkg/mirror"
	"github.com/matzehuels/docdesigner/pkg/persist"
	"github.com/matzehuels/docdesigner/pkg/template"
)

// closeTimeout bounds how long a command waits for background mirror writes
// before exiting.
const closeTimeout = 5 * time.Second

// env is the opened working state for one command run.
type env struct {
	cfg     *config.Config
	backend *persist.FileBackend
	store   *designer.Store

	// dispatcher is nil when no mirror is configured.
	dispatcher *mirror.Dispatcher
	// redis is set when the Redis mirror connected.
	redis *mirror.Redis
	// remote reads back mirrored templates; nil when not connected.
	remote fetcher
	// origin tags events published by this process.
	origin string
	log    *log.Logger
}

// open loads configuration, connects the mirror and opens the store.
// A mirror that cannot be reached does not fail the command: writes are
// queued locally for a later "sync flush".
func (c *CLI) open(ctx context.Context) (*env, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	logger := loggerFromContext(ctx)
	if logger.GetLevel() == LogInfo {
		logger.SetLevel(cfg.LogLevel())
	}

	backend, err := persist.NewFileBackend(cfg.Storage.Dir, cfg.Storage.Key)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "open storage")
	}

	e := &env{cfg: cfg, backend: backend, origin: uuid.NewString(), log: logger}
	opts := []designer.Option{designer.WithLogger(logger)}

	if m := e.connect(ctx, c.noMirror); m != nil {
		e.dispatcher = mirror.NewDispatcher(m, backend,
			mirror.WithLogger(logger),
			mirror.WithTimeout(cfg.Mirror.Timeout.Duration),
		)
		opts = append(opts, designer.WithPublisher(e.dispatcher))
	}

	e.store = designer.Open(ctx, backend, opts...)
	logger.Debug("store opened", "path", backend.Path(), "templates", len(e.store.Templates()))
	return e, nil
}

// connect returns the configured mirror, or nil when mirroring is off.
func (e *env) connect(ctx context.Context, disabled bool) mirror.Mirror {
	backend := e.cfg.MirrorBackend()
	if backend == config.BackendNone || disabled {
		return nil
	}

	var (
		m   mirror.Mirror
		err error
	)
	switch backend {
	case config.BackendRedis:
		rc := e.cfg.Mirror.Redis
		var r *mirror.Redis
		r, err = mirror.NewRedis(ctx, mirror.RedisConfig{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
			Prefix:   rc.Prefix,
			Channel:  rc.Channel,
			Origin:   e.origin,
		}, e.log)
		if err == nil {
			e.redis = r
			m = r
		}
	case config.BackendMongo:
		mc := e.cfg.Mirror.Mongo
		m, err = mirror.NewMongo(ctx, mirror.MongoConfig{
			URI:        mc.URI,
			Database:   mc.Database,
			Collection: mc.Collection,
		})
	}
	if err != nil {
		e.log.Warn("mirror unavailable, changes will be queued", "backend", backend, "error", err)
		return offline{backend: backend}
	}
	e.log.Debug("mirror connected", "backend", backend)
	e.remote, _ = m.(fetcher)
	return m
}

// Close waits for background mirror writes and closes the connection.
func (e *env) Close() {
	if e.dispatcher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := e.dispatcher.Close(ctx); err != nil {
		e.log.Warn("close mirror", "error", err)
	}
}

// fetcher is implemented by mirrors that can read templates back.
type fetcher interface {
	Fetch(ctx context.Context, templateID string) (*template.Template, bool, error)
}

var (
	_ fetcher = (*mirror.Redis)(nil)
	_ fetcher = (*mirror.Mongo)(nil)
)

// offline stands in for a mirror that could not be reached. Every write
// fails without retry so the dispatcher queues it.
type offline struct{ backend string }

func (o offline) fail() error {
	return errors.New(errors.ErrCodeRemoteUnavailable, "%s mirror is not connected", o.backend)
}

func (o offline) Upsert(context.Context, *template.Template) error { return o.fail() }
func (o offline) Delete(context.Context, string) error             { return o.fail() }
func (o offline) SetActive(context.Context, string) error          { return o.fail() }
func (o offline) Close() error                                     { return nil }

var _ mirror.Mirror = offline{}
