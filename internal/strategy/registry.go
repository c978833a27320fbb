package strategy

import (
	"sort"
	"sync"

	"github.com/quantframe-lab/quantframe/pkg/errors"
)

// Built-in strategy names as referenced from the config file.
const (
	StrategyBuyAndHold  = "BuyAndHold"
	StrategySmaCross    = "SmaCross"
	StrategyRsiMomentum = "RsiMomentum"
	StrategyFVG         = "FVGStrategy"
	StrategyIchimoku    = "IchimokuStrategy"
	StrategyPriceLevel  = "PriceLevelStrategy"
)

// Factory creates a fresh, uninitialized strategy instance.
type Factory func() Strategy

// Registry maps strategy names to factories. The engine asks it for a new
// instance per (strategy, asset) pair so runs never share state.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty strategy registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// NewDefaultRegistry creates a registry with every built-in strategy
// registered.
func NewDefaultRegistry() *Registry {
	registry := NewRegistry()

	registry.MustRegister(StrategyBuyAndHold, func() Strategy { return NewBuyAndHold() })
	registry.MustRegister(StrategySmaCross, func() Strategy { return NewSmaCross() })
	registry.MustRegister(StrategyRsiMomentum, func() Strategy { return NewRsiMomentum() })
	registry.MustRegister(StrategyFVG, func() Strategy { return NewFVG() })
	registry.MustRegister(StrategyIchimoku, func() Strategy { return NewIchimoku() })
	registry.MustRegister(StrategyPriceLevel, func() Strategy { return NewPriceLevel() })

	return registry
}

// Register adds a strategy factory under the given name.
func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return errors.Newf(errors.ErrCodeStrategyConfig, "strategy %s already registered", name)
	}

	r.factories[name] = factory

	return nil
}

// MustRegister is Register for static registrations that cannot collide.
func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// Create returns a new instance of the named strategy, initialized with
// params on top of its defaults.
func (r *Registry) Create(name string, params Params) (Strategy, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrCodeStrategyNotFound, "unknown strategy %s (available: %v)", name, r.List())
	}

	s := factory()
	if err := s.Initialize(params); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStrategyConfig, err, "failed to initialize strategy %s", name)
	}

	return s, nil
}

// List returns the registered strategy names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
