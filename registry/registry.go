// Package registry maps configuration names to strategy constructors. A
// Registry is an explicit value built once at startup and passed to
// whatever assembles a run.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/evolution"
	"github.com/pthm-cable/evogrid/neural"
	"github.com/pthm-cable/evogrid/repopulation"
	"github.com/pthm-cable/evogrid/selection"
	"github.com/pthm-cable/evogrid/terrain"
)

// Category is a family of pluggable strategies.
type Category string

const (
	CategorySelection    Category = "selection"
	CategoryRepopulation Category = "repopulation"
	CategoryTerrain      Category = "terrain"
	CategoryObserver     Category = "observer"
)

var ErrExists = errors.New("strategy already registered")

// Env is what observer constructors may depend on.
type Env struct {
	Context   context.Context
	Config    *config.Config
	Logger    *slog.Logger
	RunID     string
	OutputDir string // run directory, empty when file output is off
	Topology  neural.Topology
	Headless  bool
	Cancel    context.CancelFunc // ends the run at the next generation boundary, may be nil
}

type (
	SelectionFactory    func(block config.Strategy) (selection.Strategy, error)
	RepopulationFactory func(block config.Strategy) (repopulation.Strategy, error)
	TerrainFactory      func(block config.Strategy) (terrain.Generator, error)
)

// ObserverFactory builds the observer configured under callbacks.<name>. It
// may return a nil Observer to opt out of a run, for example a window in
// headless mode.
type ObserverFactory func(env Env, name string, block config.Strategy) (evolution.Observer, error)

// Registry holds one constructor table per category.
type Registry struct {
	mu           sync.RWMutex
	selection    map[string]SelectionFactory
	repopulation map[string]RepopulationFactory
	terrain      map[string]TerrainFactory
	observers    map[string]ObserverFactory
}

// Empty returns a registry with nothing registered.
func Empty() *Registry {
	return &Registry{
		selection:    make(map[string]SelectionFactory),
		repopulation: make(map[string]RepopulationFactory),
		terrain:      make(map[string]TerrainFactory),
		observers:    make(map[string]ObserverFactory),
	}
}

// New returns a registry with every built-in strategy and observer.
func New() *Registry {
	r := Empty()
	registerBuiltins(r)
	return r
}

func register[F any](r *Registry, m map[string]F, c Category, key string, f F) error {
	if key == "" {
		return fmt.Errorf("%s strategy name is required", c)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := m[key]; exists {
		return fmt.Errorf("%w: %s %q", ErrExists, c, key)
	}
	m[key] = f
	return nil
}

func resolve[F any](r *Registry, m map[string]F, c Category, key string) (F, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := m[key]
	if !ok {
		var zero F
		return zero, notFound(c, key)
	}
	return f, nil
}

func notFound(c Category, key string) error {
	return fmt.Errorf("%w: no %s strategy registered under %q", config.ErrInvalid, c, key)
}

// invalid marks a constructor failure as a configuration error.
func invalid(what string, err error) error {
	if errors.Is(err, config.ErrInvalid) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", config.ErrInvalid, what, err)
}

func (r *Registry) RegisterSelection(key string, f SelectionFactory) error {
	return register(r, r.selection, CategorySelection, key, f)
}

func (r *Registry) RegisterRepopulation(key string, f RepopulationFactory) error {
	return register(r, r.repopulation, CategoryRepopulation, key, f)
}

func (r *Registry) RegisterTerrain(key string, f TerrainFactory) error {
	return register(r, r.terrain, CategoryTerrain, key, f)
}

func (r *Registry) RegisterObserver(key string, f ObserverFactory) error {
	return register(r, r.observers, CategoryObserver, key, f)
}

// Selection builds the selection strategy named by block.
func (r *Registry) Selection(block config.Strategy) (selection.Strategy, error) {
	f, err := resolve(r, r.selection, CategorySelection, block.Method)
	if err != nil {
		return nil, err
	}
	s, err := f(block)
	if err != nil {
		return nil, invalid(string(CategorySelection)+" "+block.Method, err)
	}
	return s, nil
}

// Repopulation builds the repopulation strategy named by block.
func (r *Registry) Repopulation(block config.Strategy) (repopulation.Strategy, error) {
	f, err := resolve(r, r.repopulation, CategoryRepopulation, block.Method)
	if err != nil {
		return nil, err
	}
	s, err := f(block)
	if err != nil {
		return nil, invalid(string(CategoryRepopulation)+" "+block.Method, err)
	}
	return s, nil
}

// Terrain builds the terrain generator named by block. A block without a
// method means no terrain.
func (r *Registry) Terrain(block config.Strategy) (terrain.Generator, error) {
	key := block.Method
	if key == "" {
		key = string(terrain.KindNone)
	}
	f, err := resolve(r, r.terrain, CategoryTerrain, key)
	if err != nil {
		return nil, err
	}
	g, err := f(block)
	if err != nil {
		return nil, invalid(string(CategoryTerrain)+" "+key, err)
	}
	return g, nil
}

// Observers builds every enabled observer in env.Config.Callbacks, in name
// order. The driver sorts them by priority.
func (r *Registry) Observers(env Env) ([]evolution.Observer, error) {
	names := make([]string, 0, len(env.Config.Callbacks))
	for name := range env.Config.Callbacks {
		names = append(names, name)
	}
	slices.Sort(names)

	var out []evolution.Observer
	for _, name := range names {
		block := env.Config.Callbacks[name]
		if !block.Enabled() {
			continue
		}
		f, err := resolve(r, r.observers, CategoryObserver, name)
		if err != nil {
			return nil, err
		}
		o, err := f(env, name, block)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("observer %s: %w", name, err), closeAll(out))
		}
		if o != nil {
			out = append(out, o)
		}
	}
	return out, nil
}

func closeAll(obs []evolution.Observer) error {
	var errs []error
	for _, o := range obs {
		if c, ok := o.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

// Names lists the registered keys of a category in sorted order.
func (r *Registry) Names(c Category) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	switch c {
	case CategorySelection:
		names = keys(r.selection)
	case CategoryRepopulation:
		names = keys(r.repopulation)
	case CategoryTerrain:
		names = keys(r.terrain)
	case CategoryObserver:
		names = keys(r.observers)
	}
	slices.Sort(names)
	return names
}

func keys[F any](m map[string]F) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
