package server

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"zenwriter/composer"
	"zenwriter/storage"
)

// registry keeps one open Controller per document id. Documents nobody has
// touched for the idle timeout are flushed and closed.
type registry struct {
	mu      sync.Mutex
	docs    *cache.Cache
	backend storage.Backend
	open    func(ctx context.Context, id string, store composer.Store) (*composer.Controller, error)
	log     *zap.Logger
}

// janitorInterval is how often expired documents are swept for idle.
func janitorInterval(idle time.Duration) time.Duration {
	if idle/2 <= 0 {
		return time.Minute
	}
	return idle / 2
}

func newRegistry(backend storage.Backend, idle, cleanup time.Duration, open func(context.Context, string, composer.Store) (*composer.Controller, error), log *zap.Logger) *registry {
	r := &registry{
		docs:    cache.New(idle, cleanup),
		backend: backend,
		open:    open,
		log:     log,
	}
	r.docs.OnEvicted(func(id string, v interface{}) {
		ctrl := v.(*composer.Controller)
		ctrl.Flush()
		ctrl.Close()
		r.log.Info("document closed", zap.String("document", id))
	})
	return r
}

// get returns the open document, loading it from the backend on a miss.
// Every call extends the document's idle deadline.
func (r *registry) get(ctx context.Context, id string) (*composer.Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.docs.Get(id); ok {
		ctrl := v.(*composer.Controller)
		r.docs.SetDefault(id, ctrl)
		return ctrl, nil
	}
	// An expired entry the janitor has not reached yet is closed before the
	// document is reopened, so two autosavers never share a store.
	r.docs.Delete(id)

	store, err := r.backend.Open(id)
	if err != nil {
		return nil, err
	}
	ctrl, err := r.open(ctx, id, store)
	if err != nil {
		return nil, err
	}
	r.docs.SetDefault(id, ctrl)
	r.log.Info("document opened", zap.String("document", id))
	return ctrl, nil
}

// touch extends the idle deadline of an open document.
func (r *registry) touch(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.docs.Get(id); ok {
		r.docs.SetDefault(id, v)
	}
}

func (r *registry) len() int {
	return r.docs.ItemCount()
}

// close flushes and closes every open document, including expired ones the
// janitor has not reached yet.
func (r *registry) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs.DeleteExpired()
	for id := range r.docs.Items() {
		r.docs.Delete(id)
	}
}
