package network

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultKey is the reserved environment key used as fallback when a
// per-environment parameter has no entry for the requested environment.
const DefaultKey = "default"

// Param is either a scalar or a mapping from environment label to value.
type Param[T any] struct {
	scalar T
	perEnv map[string]T
}

func Scalar[T any](v T) Param[T] {
	return Param[T]{scalar: v}
}

// PerEnvironment copies m. An empty mapping is still a per-environment
// parameter that resolves to the fallback everywhere.
func PerEnvironment[T any](m map[string]T) Param[T] {
	c := make(map[string]T, len(m))
	for k, v := range m {
		c[k] = v
	}
	return Param[T]{perEnv: c}
}

func (p Param[T]) IsPerEnvironment() bool {
	return p.perEnv != nil
}

// Resolve returns the scalar value, or the mapping entry for env, then the
// "default" entry, then fallback.
func (p Param[T]) Resolve(env string, fallback T) T {
	if p.perEnv == nil {
		return p.scalar
	}
	if v, ok := p.perEnv[env]; ok {
		return v
	}
	if v, ok := p.perEnv[DefaultKey]; ok {
		return v
	}
	return fallback
}

// Value returns the scalar and true for scalar parameters.
func (p Param[T]) Value() (T, bool) {
	return p.scalar, p.perEnv == nil
}

// Entries returns a copy of the mapping of a per-environment parameter.
func (p Param[T]) Entries() map[string]T {
	if p.perEnv == nil {
		return nil
	}
	return PerEnvironment(p.perEnv).perEnv
}

// Map applies fn to every value and keeps the shape of p.
func (p Param[T]) Map(fn func(T) T) Param[T] {
	if p.perEnv == nil {
		return Scalar(fn(p.scalar))
	}
	m := make(map[string]T, len(p.perEnv))
	for k, v := range p.perEnv {
		m[k] = fn(v)
	}
	return Param[T]{perEnv: m}
}

func (p Param[T]) String() string {
	if p.perEnv == nil {
		return fmt.Sprint(p.scalar)
	}
	keys := make([]string, 0, len(p.perEnv))
	for k := range p.perEnv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %v", k, p.perEnv[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// UnmarshalYAML accepts a scalar or a mapping. A mapping key may name several
// environments separated by commas ("a, b: 1").
func (p *Param[T]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		var v T
		if err := node.Decode(&v); err != nil {
			return err
		}
		*p = Scalar(v)
		return nil
	}

	var raw map[string]T
	if err := node.Decode(&raw); err != nil {
		return err
	}
	m := make(map[string]T, len(raw))
	for key, v := range raw {
		for _, env := range strings.Split(key, ",") {
			m[strings.TrimSpace(env)] = v
		}
	}
	*p = Param[T]{perEnv: m}
	return nil
}

func (p Param[T]) MarshalYAML() (any, error) {
	if p.perEnv == nil {
		return p.scalar, nil
	}
	return p.perEnv, nil
}
