package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	goredis "github.com/redis/go-redis/v9"

	"github.com/matzehuels/docdesigner/pkg/buildinfo"
	"github.com/matzehuels/docdesigner/pkg/persist"
	"github.com/matzehuels/docdesigner/pkg/template"
)

// RedisConfig configures the Redis mirror.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// Prefix namespaces every key, e.g. "docdesigner:invoice_templates".
	Prefix string
	// Channel receives an [Event] per write. Defaults to Prefix + ":changes".
	Channel string
	// Origin tags published events so a watcher can skip its own writes.
	Origin string

	DialTimeout time.Duration
}

// Redis mirrors templates into a Redis hash.
//
// Keys:
//
//	<prefix>:templates   hash  template id -> template JSON
//	<prefix>:active      string active template id
type Redis struct {
	rdb     *goredis.Client
	prefix  string
	channel string
	origin  string
	log     *log.Logger
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg RedisConfig, logger *log.Logger) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis: missing address")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "docdesigner:" + persist.DefaultKey
	}
	if cfg.Channel == "" {
		cfg.Channel = cfg.Prefix + ":changes"
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = log.Default()
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
		ClientName:  buildinfo.UserAgent(),
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Redis{
		rdb:     rdb,
		prefix:  cfg.Prefix,
		channel: cfg.Channel,
		origin:  cfg.Origin,
		log:     logger.With("mirror", "redis"),
	}, nil
}

func (r *Redis) templatesKey() string { return r.prefix + ":templates" }
func (r *Redis) activeKey() string    { return r.prefix + ":active" }

// Upsert stores the template JSON and announces the change.
func (r *Redis) Upsert(ctx context.Context, t *template.Template) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal template: %w", err)
	}
	return r.write(ctx, persist.OpUpsert, t.ID, func(p goredis.Pipeliner) {
		p.HSet(ctx, r.templatesKey(), t.ID, raw)
	})
}

// Delete removes the template and announces the change.
func (r *Redis) Delete(ctx context.Context, templateID string) error {
	return r.write(ctx, persist.OpDelete, templateID, func(p goredis.Pipeliner) {
		p.HDel(ctx, r.templatesKey(), templateID)
	})
}

// SetActive records the active template preference.
func (r *Redis) SetActive(ctx context.Context, templateID string) error {
	return r.write(ctx, persist.OpSetActive, templateID, func(p goredis.Pipeliner) {
		p.Set(ctx, r.activeKey(), templateID, 0)
	})
}

// write runs the change and its event publish in one MULTI/EXEC.
func (r *Redis) write(ctx context.Context, op persist.OpKind, id string, fn func(goredis.Pipeliner)) error {
	ev, err := Event{Op: op, TemplateID: id, At: time.Now().UTC(), Origin: r.origin}.encode()
	if err != nil {
		return err
	}
	_, err = r.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		fn(p)
		p.Publish(ctx, r.channel, ev)
		return nil
	})
	return classifyRedis(err)
}

// Fetch returns the mirrored copy of a template. ok is false when absent.
func (r *Redis) Fetch(ctx context.Context, templateID string) (*template.Template, bool, error) {
	raw, err := r.rdb.HGet(ctx, r.templatesKey(), templateID).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var t template.Template
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, false, fmt.Errorf("decode template %s: %w", templateID, err)
	}
	return &t, true, nil
}

// Active returns the mirrored active template id, or "" when unset.
func (r *Redis) Active(ctx context.Context) (string, error) {
	id, err := r.rdb.Get(ctx, r.activeKey()).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	return id, err
}

// Watch subscribes to the change channel and calls fn for every event until
// ctx is cancelled. It returns once the subscription is established.
func (r *Redis) Watch(ctx context.Context, fn func(Event)) error {
	if fn == nil {
		return fmt.Errorf("watch callback required")
	}
	sub := r.rdb.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				ev, err := DecodeEvent([]byte(m.Payload))
				if err != nil {
					r.log.Warn("bad change payload", "error", err)
					continue
				}
				fn(ev)
			}
		}
	}()
	return nil
}

// Channel returns the change channel name.
func (r *Redis) Channel() string { return r.channel }

// Close closes the client.
func (r *Redis) Close() error {
	if r == nil || r.rdb == nil {
		return nil
	}
	return r.rdb.Close()
}

// classifyRedis marks connection-level failures as retryable. Command errors
// reported by the server are final.
func classifyRedis(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var rerr goredis.Error
	if errors.As(err, &rerr) {
		return err
	}
	return Retryable(err)
}

var _ Mirror = (*Redis)(nil)
