package evaluator

import (
	"sort"
)

// Environment resolves names referenced by interpolation expressions
type Environment interface {
	Lookup(name string) (interface{}, bool)
}

// namer is implemented by environments that can list their names; it feeds
// "did you mean" suggestions.
type namer interface {
	Names() []string
}

// Env is a scope of name bindings with an optional parent scope. Lookups search
// innermost first. Evaluation never writes to an Env.
type Env struct {
	bindings map[string]interface{}
	parent   Environment
}

// NewEnv creates an empty scope with the given parent, which may be nil
func NewEnv(parent Environment) *Env {
	return &Env{bindings: make(map[string]interface{}), parent: parent}
}

// Vars creates a root scope from a map. The map is copied.
func Vars(vars map[string]interface{}) *Env {
	env := NewEnv(nil)
	for name, value := range vars {
		env.bindings[name] = value
	}
	return env
}

// Child creates a scope whose parent is e
func (e *Env) Child(vars map[string]interface{}) *Env {
	child := Vars(vars)
	child.parent = e
	return child
}

// Set binds name in this scope and returns the scope for chaining
func (e *Env) Set(name string, value interface{}) *Env {
	e.bindings[name] = value
	return e
}

// Lookup resolves name in this scope or its ancestors
func (e *Env) Lookup(name string) (interface{}, bool) {
	if e == nil {
		return nil, false
	}
	if value, ok := e.bindings[name]; ok {
		return value, true
	}
	if e.parent != nil {
		return e.parent.Lookup(name)
	}
	return nil, false
}

// Names returns every visible name, sorted
func (e *Env) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for scope := Environment(e); scope != nil; {
		env, ok := scope.(*Env)
		if !ok {
			if n, ok := scope.(namer); ok {
				for _, name := range n.Names() {
					if !seen[name] {
						seen[name] = true
						names = append(names, name)
					}
				}
			}
			break
		}
		if env == nil {
			break
		}
		for name := range env.bindings {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
		scope = env.parent
	}
	sort.Strings(names)
	return names
}

// MapEnv adapts a plain map to Environment without copying it
type MapEnv map[string]interface{}

// Lookup resolves name in the map
func (m MapEnv) Lookup(name string) (interface{}, bool) {
	value, ok := m[name]
	return value, ok
}

// Names returns the map keys, sorted
func (m MapEnv) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// scope layers the caller's environment over the builtins
type scope struct {
	env Environment
}

func (s scope) lookup(name string) (interface{}, bool) {
	if s.env != nil {
		if value, ok := s.env.Lookup(name); ok {
			return value, true
		}
	}
	b, ok := builtins[name]
	return b, ok
}

func (s scope) names() []string {
	var names []string
	if n, ok := s.env.(namer); ok {
		names = append(names, n.Names()...)
	}
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
