// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about store mutations, local persistence, remote mirror
// writes and API requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, never by libraries, which keeps the library
// packages free of import cycles and of any particular metrics backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetStoreHooks(&myStoreHooks{})
//	    observability.SetMirrorHooks(&myMirrorHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Mirror().OnWrite(ctx, "upsert", id, attempts, elapsed, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from the template store.
type StoreHooks interface {
	// OnMutation records a state change. templateID is empty for
	// collection-wide changes.
	OnMutation(op, templateID string)

	// OnSave records a local snapshot write.
	OnSave(ctx context.Context, templates int, duration time.Duration, err error)
}

// =============================================================================
// Mirror Hooks
// =============================================================================

// MirrorHooks receives events from remote mirror writes.
type MirrorHooks interface {
	// OnWrite records the outcome of a mirror write after all retries.
	OnWrite(ctx context.Context, op, templateID string, attempts int, duration time.Duration, err error)

	// OnQueued records a failed write parked in the sync queue.
	OnQueued(ctx context.Context, op, templateID string)

	// OnFlush records a sync queue replay.
	OnFlush(ctx context.Context, replayed, remaining int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the API server.
type HTTPHooks interface {
	// OnResponse records a served request.
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnMutation(string, string)                         {}
func (NoopStoreHooks) OnSave(context.Context, int, time.Duration, error) {}

// NoopMirrorHooks is a no-op implementation of MirrorHooks.
type NoopMirrorHooks struct{}

func (NoopMirrorHooks) OnWrite(context.Context, string, string, int, time.Duration, error) {}
func (NoopMirrorHooks) OnQueued(context.Context, string, string)                           {}
func (NoopMirrorHooks) OnFlush(context.Context, int, int)                                  {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	storeHooks  StoreHooks  = NoopStoreHooks{}
	mirrorHooks MirrorHooks = NoopMirrorHooks{}
	httpHooks   HTTPHooks   = NoopHTTPHooks{}
	hooksMu     sync.RWMutex
)

// SetStoreHooks registers custom store hooks.
// This should be called once at application startup before the store is opened.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// SetMirrorHooks registers custom mirror hooks.
func SetMirrorHooks(h MirrorHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		mirrorHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Mirror returns the registered mirror hooks.
func Mirror() MirrorHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return mirrorHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	storeHooks = NoopStoreHooks{}
	mirrorHooks = NoopMirrorHooks{}
	httpHooks = NoopHTTPHooks{}
}
