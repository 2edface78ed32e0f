package anvil

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/seantiz/anvil/engine"
)

// arenaState pairs an execution context with its initialization flag. Once
// initialized is observed true under the registry lock, ctx is valid and
// immutable until Release.
type arenaState struct {
	ctx         engine.Context
	initialized bool
}

// ArenaInfo describes one live arena for inspection surfaces.
type ArenaInfo struct {
	Name        string `json:"name"`
	Concurrency int    `json:"concurrency"`
}

// Manager is the process-wide coordinator for named execution arenas. It
// lazily creates exactly one engine context per arena name, reuses it across
// dispatches, and tracks per-item execution records. Construct one Manager
// per process (or per isolated subsystem) and pass it to dispatch sites.
type Manager struct {
	engine    engine.Engine
	overrides *OverrideResolver
	logger    *slog.Logger
	sink      Sink
	ids       taskIDGenerator
	tracker   *Tracker

	mu       sync.RWMutex
	arenas   map[string]*arenaState
	released bool
}

// New creates a Manager. With no options it uses engine.NewPoolEngine(),
// overrides from the ANVIL_PARALLEL_OVERRIDES environment variable, a
// discarded logger, and no sink.
func New(opts ...Option) (*Manager, error) {
	m := &Manager{
		tracker: NewTracker(),
		arenas:  make(map[string]*arenaState),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.engine == nil {
		m.engine = engine.NewPoolEngine()
	}
	if m.overrides == nil {
		m.overrides = NewOverrideResolverFromEnv()
	}
	if m.logger == nil {
		m.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return m, nil
}

// Tracker returns the manager's execution tracker.
func (m *Manager) Tracker() *Tracker {
	return m.tracker
}

// GetOrCreate returns the execution context for name, creating it on first
// use. Creation happens exactly once per name: the fast path checks under a
// read lock, and the slow path re-checks under the exclusive lock before
// constructing, so racing first callers all observe the same context. The
// context's concurrency comes from the override mapping, falling back to the
// engine's default.
func (m *Manager) GetOrCreate(name string) (engine.Context, error) {
	m.mu.RLock()
	if st, ok := m.arenas[name]; ok && st.initialized {
		m.mu.RUnlock()
		return st.ctx, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.released {
		return nil, ErrReleased
	}
	// Re-check in case another goroutine created the arena while we were
	// waiting on the exclusive lock.
	if st, ok := m.arenas[name]; ok && st.initialized {
		return st.ctx, nil
	}

	overrides, err := m.overrides.Resolve()
	if err != nil {
		return nil, fmt.Errorf("resolve concurrency overrides: %w", err)
	}

	concurrency := m.engine.DefaultConcurrency()
	if c, ok := overrides[name]; ok {
		concurrency = c
	}

	ctx, err := m.engine.CreateContext(concurrency)
	if err != nil {
		return nil, fmt.Errorf("create arena %q: %w", name, err)
	}

	m.arenas[name] = &arenaState{ctx: ctx, initialized: true}
	arenasCreatedTotal.Inc()
	m.logger.Debug("arena created", "arena", name, "concurrency", concurrency)

	return ctx, nil
}

// Arenas returns info for every live arena, sorted by name.
func (m *Manager) Arenas() []ArenaInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]ArenaInfo, 0, len(m.arenas))
	for name, st := range m.arenas {
		infos = append(infos, ArenaInfo{Name: name, Concurrency: st.ctx.Concurrency()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Release closes every arena's execution context, clears the registry and
// all tracked records, and marks the manager released. Later calls to
// GetOrCreate or the dispatch entry points return ErrReleased.
//
// Release must not run concurrently with in-flight dispatches; callers own
// that ordering.
func (m *Manager) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.released {
		return nil
	}

	var errs []error
	for name, st := range m.arenas {
		if err := st.ctx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close arena %q: %w", name, err))
		}
	}
	m.arenas = make(map[string]*arenaState)
	m.released = true
	m.tracker.Reset()
	m.logger.Debug("manager released")

	return errors.Join(errs...)
}
