package graph

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-flow/flow/block"
)

// Params carries a node's decoded configuration values.
type Params map[string]any

// Factory builds one block instance for a described node.
type Factory func(name string, params Params) (block.Worker, error)

// Registry maps block type names to their factories.
type Registry struct {
	factories map[string]Factory
}

var errDuplicateType = errors.New("duplicate block type")

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for the given block type.
func (r *Registry) Register(blockType string, factory Factory) error {
	if blockType == "" {
		return errors.New("empty block type")
	}

	if factory == nil {
		return errors.New("nil factory")
	}

	if _, exists := r.factories[blockType]; exists {
		return fmt.Errorf("%w: %s", errDuplicateType, blockType)
	}

	r.factories[blockType] = factory

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(blockType string, factory Factory) {
	err := r.Register(blockType, factory)
	if err != nil {
		panic("graph registry: " + err.Error())
	}
}

// Lookup returns the factory for the given block type, or nil.
func (r *Registry) Lookup(blockType string) Factory {
	return r.factories[blockType]
}

// Float returns the float64 parameter under key, or def when absent.
// JSON and YAML decoders deliver numbers as float64 or int.
func (p Params) Float(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}

// Int returns the integer parameter under key, or def when absent.
func (p Params) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// Bool returns the boolean parameter under key, or def when absent.
func (p Params) Bool(key string, def bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}

// Floats returns the []float64 parameter under key, or nil.
func (p Params) Floats(key string) []float64 {
	raw, ok := p[key].([]any)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(raw))
	for _, e := range raw {
		switch v := e.(type) {
		case float64:
			out = append(out, v)
		case int:
			out = append(out, float64(v))
		case int64:
			out = append(out, float64(v))
		}
	}
	return out
}
