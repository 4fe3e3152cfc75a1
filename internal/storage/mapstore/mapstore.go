// Package mapstore provides a view.Storage over an in-memory map.
//
// Stores are read-only unless created with Writable. Nested map[string]any
// values are exposed as nested stores with the same options, so a view
// property declared as another view resolves against the nested map.
package mapstore

import (
	"reflect"

	"github.com/louisbranch/typedview/internal/view"
)

// Option configures a Store.
type Option func(*Store)

// Writable allows Set and SetAs to mutate the underlying map.
func Writable() Option {
	return func(s *Store) {
		s.writable = true
	}
}

// WithInterpreter sets the interpreter used for nested views. The default
// is view.Default().
func WithInterpreter(in *view.Interpreter) Option {
	return func(s *Store) {
		s.interpreter = in
	}
}

// Store is a view.Storage backed by a map. It is not safe for concurrent
// mutation.
type Store struct {
	values      map[string]any
	writable    bool
	interpreter *view.Interpreter
}

var _ view.Storage = (*Store)(nil)

// New wraps values. The map is used in place, not copied; a nil map is
// treated as empty.
func New(values map[string]any, opts ...Option) *Store {
	if values == nil {
		values = map[string]any{}
	}
	s := &Store{values: values}
	for _, opt := range opts {
		opt(s)
	}
	if s.interpreter == nil {
		s.interpreter = view.Default()
	}
	return s
}

// Map returns the underlying map.
func (s *Store) Map() map[string]any {
	return s.values
}

// Get returns the value stored under name. A nil value counts as absent.
func (s *Store) Get(name string) (any, error) {
	value, ok := s.values[name]
	if !ok || value == nil {
		return nil, view.PropertyNotFound(name)
	}
	return value, nil
}

// Set stores value under name.
func (s *Store) Set(name string, value any) error {
	if !s.writable {
		return view.ReadOnlyStorage(name)
	}
	s.values[name] = value
	return nil
}

// GetAs returns the value under name when it is assignable to typ, or the
// nested map interpreted as typ when typ is a view.
func (s *Store) GetAs(name string, typ reflect.Type) (any, error) {
	value, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	if reflect.TypeOf(value).AssignableTo(typ) {
		return value, nil
	}
	nested, ok := value.(map[string]any)
	if !ok {
		return nil, nil
	}
	if kind, _ := view.KindOf(typ); kind != view.KindView {
		return nil, nil
	}
	return s.interpreter.Interpret(s.nested(nested), typ)
}

// SetAs stores value under name. Values are kept as given; a nested
// instance is read back unchanged through GetAs.
func (s *Store) SetAs(name string, _ reflect.Type, value any) error {
	return s.Set(name, value)
}

func (s *Store) nested(values map[string]any) *Store {
	return &Store{
		values:      values,
		writable:    s.writable,
		interpreter: s.interpreter,
	}
}
