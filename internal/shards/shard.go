// Package shards implements the renovation specialists and the dispatcher
// that routes each user turn to one of them.
package shards

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"renoplan/internal/logging"
	"renoplan/internal/perception"
	"renoplan/internal/rendering"
	"renoplan/internal/session"
	"renoplan/internal/types"
)

// Request is one user turn. The dispatcher fills Uploads and
// AttachReferences from the session.
type Request struct {
	Text string
	// Uploads are the registered reference filenames, in registration order.
	Uploads []string
	// AttachReferences mirrors the session toggle at the time of the turn.
	AttachReferences bool
}

// attached returns the uploads that accompany the turn.
func (r Request) attached() []string {
	if !r.AttachReferences {
		return nil
	}
	return r.Uploads
}

// Response is what the caller shows. Rendering carries the produced file
// as data when the turn created one.
type Response struct {
	Destination perception.Destination
	Decision    perception.Decision
	Shard       string
	Text        string
	Rendering   *rendering.Result
	Sources     []string
	Err         error
}

// Shard handles turns routed to one destination.
type Shard interface {
	Name() string
	Handle(ctx context.Context, sess *session.Session, req Request) (*Response, error)
}

// Deps are the collaborators injected into shard factories.
type Deps struct {
	LLM      types.MultimodalClient
	Search   types.LLMClient // nil when search grounding is disabled
	Renderer *rendering.Service
}

// Factory builds a shard from its dependencies.
type Factory func(deps Deps) Shard

// Manager holds the registered shards keyed by destination.
type Manager struct {
	mu        sync.RWMutex
	deps      Deps
	factories map[perception.Destination]Factory
	shards    map[perception.Destination]Shard
}

// NewManager creates an empty manager.
func NewManager(deps Deps) *Manager {
	logging.Shards("Creating new shard manager")
	return &Manager{
		deps:      deps,
		factories: make(map[perception.Destination]Factory),
		shards:    make(map[perception.Destination]Shard),
	}
}

// RegisterShard binds a factory to a destination. Shards are built lazily.
func (m *Manager) RegisterShard(dest perception.Destination, factory Factory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.factories[dest] = factory
	delete(m.shards, dest)
	logging.ShardsDebug("registered shard factory for %s", dest)
}

// Get returns the shard for dest, building it on first use.
func (m *Manager) Get(dest perception.Destination) (Shard, error) {
	m.mu.RLock()
	s, ok := m.shards[dest]
	m.mu.RUnlock()
	if ok {
		return s, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.shards[dest]; ok {
		return s, nil
	}
	factory, ok := m.factories[dest]
	if !ok {
		return nil, fmt.Errorf("no shard registered for %s", dest)
	}
	s = factory(m.deps)
	m.shards[dest] = s
	logging.Shards("spawned %s shard for %s", s.Name(), dest)
	return s, nil
}

// Destinations lists registered destinations, sorted.
func (m *Manager) Destinations() []perception.Destination {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]perception.Destination, 0, len(m.factories))
	for d := range m.factories {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RegisterAllShards registers the info, editor and planning shards.
func RegisterAllShards(m *Manager) {
	m.RegisterShard(perception.DestinationInfo, func(d Deps) Shard {
		return NewInfoShard(d.LLM)
	})
	m.RegisterShard(perception.DestinationEdit, func(d Deps) Shard {
		return NewEditorShard(d.LLM, d.Renderer)
	})
	m.RegisterShard(perception.DestinationPlan, func(d Deps) Shard {
		var search *SearchShard
		if d.Search != nil {
			search = NewSearchShard(d.Search)
		}
		var loader ImageLoader
		if d.Renderer != nil {
			loader = d.Renderer.Loader()
		}
		return NewPlanningPipeline(loader,
			NewVisualAssessor(d.LLM, search),
			NewDesignPlanner(d.LLM),
			NewProjectCoordinator(d.LLM, d.Renderer),
		)
	})
}
