package live

import (
	"context"
	"sync"

	"playcafe/internal/events"

	"github.com/rs/zerolog"
)

// Registry starts café views on first use and drops them when they stop.
type Registry struct {
	ctx    context.Context
	loader Loader
	hub    *events.Hub
	opts   Options
	logger *zerolog.Logger

	mu    sync.Mutex
	views map[string]*View
	wg    sync.WaitGroup
}

// NewRegistry ties every view it starts to ctx.
func NewRegistry(ctx context.Context, loader Loader, hub *events.Hub, opts Options, logger *zerolog.Logger) *Registry {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Registry{
		ctx:    ctx,
		loader: loader,
		hub:    hub,
		opts:   opts,
		logger: logger,
		views:  make(map[string]*View),
	}
}

// View returns the running view for cafeID, waiting for its first load.
func (r *Registry) View(ctx context.Context, cafeID string) (*View, error) {
	r.mu.Lock()
	v, ok := r.views[cafeID]
	if !ok {
		v = NewView(cafeID, r.loader, r.hub, r.opts, r.logger)
		r.views[cafeID] = v
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			v.Run(r.ctx)
			r.mu.Lock()
			if r.views[cafeID] == v {
				delete(r.views, cafeID)
			}
			r.mu.Unlock()
		}()
	}
	r.mu.Unlock()
	v.touch()

	select {
	case <-v.Ready():
		return v, nil
	default:
	}
	// The first load failed or is still running; try it on the caller's context.
	if err := v.Refresh(ctx); err != nil {
		return nil, err
	}
	return v, nil
}

// Len reports how many views are running.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// Wait blocks until every view has stopped. Cancel the registry context first.
func (r *Registry) Wait() {
	r.wg.Wait()
}
