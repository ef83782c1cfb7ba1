// Package mirror replicates the template collection to a remote store.
//
// The local snapshot is always authoritative; the mirror is best effort.
// A [Mirror] performs one remote write synchronously. The [Dispatcher] wraps
// a Mirror for the template store: each write runs on its own goroutine,
// retries transient failures with exponential backoff, and parks writes that
// still fail in a persisted sync queue that [Dispatcher.Flush] replays.
// Callers are never blocked by, or told about, remote failures.
//
// Backends:
//   - [Redis]: templates in a hash, the active id in a string key, and a
//     pub/sub channel announcing every change
//   - [Mongo]: templates in a collection keyed by id, the active id in a
//     preferences collection
//   - [Null]: discards every write
//
// Remote writes are last-write-wins; a slow goroutine may land after a newer
// one. A later Flush or mutation converges the remote copy.
package mirror

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/docdesigner/pkg/persist"
	"github.com/matzehuels/docdesigner/pkg/template"
)

// Mirror performs remote writes.
type Mirror interface {
	Upsert(ctx context.Context, t *template.Template) error
	Delete(ctx context.Context, templateID string) error
	SetActive(ctx context.Context, templateID string) error
	Close() error
}

// Event announces a remote change.
type Event struct {
	Op         persist.OpKind `json:"op"`
	TemplateID string         `json:"templateId"`
	At         time.Time      `json:"at"`
	Origin     string         `json:"origin,omitempty"`
}

func (e Event) encode() ([]byte, error) { return json.Marshal(e) }

// DecodeEvent parses an event payload.
func DecodeEvent(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}

// Null is a Mirror that discards all writes.
type Null struct{}

func (Null) Upsert(context.Context, *template.Template) error { return nil }
func (Null) Delete(context.Context, string) error             { return nil }
func (Null) SetActive(context.Context, string) error          { return nil }
func (Null) Close() error                                     { return nil }

var _ Mirror = Null{}
