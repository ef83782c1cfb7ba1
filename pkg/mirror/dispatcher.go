package mirror

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/docdesigner/pkg/observability"
	"github.com/matzehuels/docdesigner/pkg/persist"
	"github.com/matzehuels/docdesigner/pkg/template"
)

// DefaultTimeout bounds a single remote write including retries.
const DefaultTimeout = 30 * time.Second

// Dispatcher runs mirror writes in the background.
type Dispatcher struct {
	m       Mirror
	queue   persist.QueueStore
	log     *log.Logger
	backoff Backoff
	timeout time.Duration
	now     func() time.Time

	wg  sync.WaitGroup
	qmu sync.Mutex // serialises queue read-modify-write
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the logger used for write failures.
func WithLogger(l *log.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.log = l }
}

// WithBackoff overrides the retry policy.
func WithBackoff(b Backoff) DispatcherOption {
	return func(d *Dispatcher) { d.backoff = b }
}

// WithTimeout bounds each background write.
func WithTimeout(t time.Duration) DispatcherOption {
	return func(d *Dispatcher) { d.timeout = t }
}

// NewDispatcher wraps m. Writes that fail after retries are appended to
// queue when it is non-nil.
func NewDispatcher(m Mirror, queue persist.QueueStore, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		m:       m,
		queue:   queue,
		log:     log.Default(),
		backoff: DefaultBackoff,
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Upsert mirrors t in the background. t must not be modified afterwards.
func (d *Dispatcher) Upsert(t *template.Template) {
	d.spawn(persist.OpUpsert, t.ID, func(ctx context.Context) error {
		return d.m.Upsert(ctx, t)
	})
}

// Delete removes a template from the mirror in the background.
func (d *Dispatcher) Delete(templateID string) {
	d.spawn(persist.OpDelete, templateID, func(ctx context.Context) error {
		return d.m.Delete(ctx, templateID)
	})
}

// SetActive mirrors the active template preference in the background.
func (d *Dispatcher) SetActive(templateID string) {
	d.spawn(persist.OpSetActive, templateID, func(ctx context.Context) error {
		return d.m.SetActive(ctx, templateID)
	})
}

func (d *Dispatcher) spawn(op persist.OpKind, id string, fn func(context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.deliver(ctx, op, id, fn); err != nil {
			d.log.Warn("remote sync failed", "op", op, "template", id, "error", err)
			d.enqueue(context.Background(), persist.Op{Kind: op, TemplateID: id, QueuedAt: d.now().UTC()})
		}
	}()
}

func (d *Dispatcher) deliver(ctx context.Context, op persist.OpKind, id string, fn func(context.Context) error) error {
	start := time.Now()
	attempts, err := d.backoff.Retry(ctx, func() error { return fn(ctx) })
	observability.Mirror().OnWrite(ctx, string(op), id, attempts, time.Since(start), err)
	return err
}

func (d *Dispatcher) enqueue(ctx context.Context, op persist.Op) {
	if d.queue == nil {
		return
	}
	d.qmu.Lock()
	defer d.qmu.Unlock()

	ops, err := d.queue.LoadQueue(ctx)
	if err != nil {
		d.log.Error("read sync queue", "error", err)
		return
	}
	if err := d.queue.SaveQueue(ctx, persist.Coalesce(ops, op)); err != nil {
		d.log.Error("write sync queue", "error", err)
		return
	}
	observability.Mirror().OnQueued(ctx, string(op.Kind), op.TemplateID)
}

// Pending returns the queued writes.
func (d *Dispatcher) Pending(ctx context.Context) ([]persist.Op, error) {
	if d.queue == nil {
		return nil, nil
	}
	d.qmu.Lock()
	defer d.qmu.Unlock()
	return d.queue.LoadQueue(ctx)
}

// Flush replays the sync queue synchronously against the current local
// state. Upserts of templates that no longer exist locally are dropped.
// Writes that still fail stay queued. It returns the number of writes
// delivered.
func (d *Dispatcher) Flush(ctx context.Context, snap *persist.Snapshot) (int, error) {
	if d.queue == nil {
		return 0, nil
	}
	d.qmu.Lock()
	defer d.qmu.Unlock()

	ops, err := d.queue.LoadQueue(ctx)
	if err != nil || len(ops) == 0 {
		return 0, err
	}

	var remaining []persist.Op
	delivered := 0
	for _, op := range ops {
		var fn func(context.Context) error
		switch op.Kind {
		case persist.OpUpsert:
			t, ok := snap.Find(op.TemplateID)
			if !ok {
				continue
			}
			t = t.Clone()
			fn = func(ctx context.Context) error { return d.m.Upsert(ctx, t) }
		case persist.OpDelete:
			fn = func(ctx context.Context) error { return d.m.Delete(ctx, op.TemplateID) }
		case persist.OpSetActive:
			// Send whatever is active now rather than the stale id.
			active := snap.ActiveTemplateID
			fn = func(ctx context.Context) error { return d.m.SetActive(ctx, active) }
		default:
			d.log.Warn("dropping unknown sync op", "op", op.Kind)
			continue
		}

		if err := d.deliver(ctx, op.Kind, op.TemplateID, fn); err != nil {
			if ctx.Err() != nil {
				return delivered, ctx.Err()
			}
			op.Attempts++
			remaining = append(remaining, op)
			continue
		}
		delivered++
	}

	if err := d.queue.SaveQueue(ctx, remaining); err != nil {
		return delivered, err
	}
	observability.Mirror().OnFlush(ctx, delivered, len(remaining))
	return delivered, nil
}

// Close waits for in-flight writes to finish or ctx to expire, then closes
// the mirror.
func (d *Dispatcher) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		d.log.Warn("remote writes still in flight at shutdown")
	}
	return d.m.Close()
}
