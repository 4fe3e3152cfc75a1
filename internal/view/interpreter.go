package view

import (
	"errors"
	"iter"
	"reflect"
	"sync"
	"sync/atomic"
)

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithNaming replaces the rule deriving storage keys from field names.
// Fields tagged `view:"key"` keep their explicit key.
func WithNaming(naming func(string) string) Option {
	return func(in *Interpreter) {
		if naming != nil {
			in.naming = naming
		}
	}
}

// Interpreter builds and caches one dispatch table per view type and binds
// it to storages. It is safe for concurrent use.
type Interpreter struct {
	naming func(string) string

	// cache maps a view struct type to its *strategy. Entries are never
	// evicted.
	cache sync.Map

	hits        atomic.Int64
	misses      atomic.Int64
	extractions atomic.Int64
}

// Stats counts cache activity of an Interpreter.
type Stats struct {
	Hits        int64 // interpretations served by a cached strategy
	Misses      int64 // interpretations that built a strategy
	Extractions int64 // descriptor extractions run
}

// strategy is the cached construction strategy for one view type.
type strategy struct {
	desc      *Descriptor
	accessors []accessor
	err       error
}

var (
	defaultOnce        sync.Once
	defaultInterpreter *Interpreter
)

// Default returns the process-wide Interpreter used by the package-level
// functions and by storages that are not given one.
func Default() *Interpreter {
	defaultOnce.Do(func() {
		defaultInterpreter = NewInterpreter()
	})
	return defaultInterpreter
}

// NewInterpreter returns an Interpreter with an empty cache.
func NewInterpreter(opts ...Option) *Interpreter {
	in := &Interpreter{naming: Decapitalize}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Stats returns a snapshot of the cache counters.
func (in *Interpreter) Stats() Stats {
	return Stats{
		Hits:        in.hits.Load(),
		Misses:      in.misses.Load(),
		Extractions: in.extractions.Load(),
	}
}

// Describe returns the cached descriptor of typ, extracting it on first use.
func (in *Interpreter) Describe(typ reflect.Type) (*Descriptor, error) {
	st, err := in.strategyFor(typ)
	if err != nil {
		return nil, err
	}
	return st.desc, nil
}

// Interpret binds s to the view typ and returns the instance. typ is either
// a view struct type V, yielding a V, or *V, yielding a *V.
//
// Storages call Interpret for nested documents.
func (in *Interpreter) Interpret(s Storage, typ reflect.Type) (any, error) {
	st, err := in.strategyFor(typ)
	if err != nil {
		return nil, err
	}
	return st.instance(s, typ)
}

// InterpretAll lazily interprets each storage in storages as typ. The
// strategy is resolved once per iteration; if it cannot be built the
// sequence yields that single error. Iterating again restarts from the first
// storage when storages does.
func (in *Interpreter) InterpretAll(storages iter.Seq[Storage], typ reflect.Type) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		st, err := in.strategyFor(typ)
		if err != nil {
			yield(nil, err)
			return
		}
		for s := range storages {
			if !yield(st.instance(s, typ)) {
				return
			}
		}
	}
}

func (in *Interpreter) strategyFor(typ reflect.Type) (*strategy, error) {
	if typ == nil {
		return nil, errors.New("view type is required")
	}
	viewType := viewStruct(typ)
	if cached, ok := in.cache.Load(viewType); ok {
		in.hits.Add(1)
		st := cached.(*strategy)
		return st, st.err
	}

	// Concurrent misses may each build a strategy; the first stored wins
	// and the others are dropped.
	in.misses.Add(1)
	st, _ := in.resolve(viewType, &buildState{depth: map[reflect.Type]int{}})
	return st, st.err
}

// noCycle is the low mark of a strategy that depends on no type still being
// built.
const noCycle = int(^uint(0) >> 1)

// buildState tracks one strategy build. depth holds the types being built,
// by their position on the build stack. pending holds finished strategies
// whose validity depends on a type still on the stack; they are published
// together once that type is settled.
type buildState struct {
	depth   map[reflect.Type]int
	pending []pendingStrategy
}

type pendingStrategy struct {
	viewType reflect.Type
	st       *strategy
	low      int
}

// resolve returns the strategy of viewType, building and publishing it and
// every nested view type it reaches that is not cached yet. Each type is
// extracted once per build. The returned low mark is the shallowest stack
// position the strategy depends on.
func (in *Interpreter) resolve(viewType reflect.Type, bs *buildState) (*strategy, int) {
	if cached, ok := in.cache.Load(viewType); ok {
		return cached.(*strategy), noCycle
	}
	if d, building := bs.depth[viewType]; building {
		return nil, d
	}
	for _, p := range bs.pending {
		if p.viewType == viewType {
			return p.st, p.low
		}
	}
	depth := len(bs.depth)
	bs.depth[viewType] = depth
	defer delete(bs.depth, viewType)
	mark := len(bs.pending)

	st, low := in.build(viewType, bs)
	switch {
	case st.err != nil:
		// Everything built below shares the failure.
		for _, p := range bs.pending[mark:] {
			in.publish(p.viewType, &strategy{err: st.err})
		}
	case low >= depth:
		for _, p := range bs.pending[mark:] {
			in.publish(p.viewType, p.st)
		}
	default:
		bs.pending = append(bs.pending, pendingStrategy{viewType: viewType, st: st, low: low})
		return st, low
	}
	bs.pending = bs.pending[:mark]
	return in.publish(viewType, st), noCycle
}

func (in *Interpreter) publish(viewType reflect.Type, st *strategy) *strategy {
	actual, _ := in.cache.LoadOrStore(viewType, st)
	return actual.(*strategy)
}

func (in *Interpreter) build(viewType reflect.Type, bs *buildState) (*strategy, int) {
	in.extractions.Add(1)
	desc, err := describe(viewType, in.naming)
	if err != nil {
		return &strategy{err: err}, noCycle
	}
	low := noCycle
	for _, prop := range desc.Properties {
		if prop.Kind != KindView {
			continue
		}
		nested, nestedLow := in.resolve(viewStruct(prop.Type), bs)
		low = min(low, nestedLow)
		if nested != nil && nested.err != nil {
			return &strategy{err: nested.err}, low
		}
	}
	st := &strategy{
		desc:      desc,
		accessors: make([]accessor, len(desc.Properties)),
	}
	for i, prop := range desc.Properties {
		st.accessors[i] = newAccessor(prop)
	}
	return st, low
}

func newAccessor(prop PropertyDescriptor) accessor {
	key, typ, kind := prop.Key, prop.Type, prop.Kind
	acc := accessor{prop: prop}

	if kind == KindView {
		acc.get = func(s Storage) (any, error) {
			v, err := s.GetAs(key, typ)
			if err != nil {
				return nil, err
			}
			if v == nil || isNilPointer(v) {
				raw, err := s.Get(key)
				if err != nil {
					return nil, err
				}
				return nil, TypeMismatch(key, typ, raw)
			}
			return conform(key, typ, v)
		}
		acc.set = func(s Storage, value any) error {
			return s.SetAs(key, typ, value)
		}
		return acc
	}

	acc.get = func(s Storage) (any, error) {
		raw, err := s.Get(key)
		if err != nil {
			return nil, err
		}
		return coerce(key, kind, typ, raw)
	}
	acc.set = func(s Storage, value any) error {
		return s.Set(key, box(kind, value))
	}
	return acc
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func (st *strategy) instance(s Storage, typ reflect.Type) (any, error) {
	if s == nil {
		return nil, errors.New("storage is required")
	}
	ptr := reflect.New(st.desc.Type)
	elem := ptr.Elem()
	bindings := make([]binding, len(st.accessors))
	for i := range st.accessors {
		bindings[i] = binding{storage: s, access: &st.accessors[i]}
		field := elem.FieldByIndex(st.accessors[i].prop.Index)
		field.Addr().Interface().(bindable).bind(&bindings[i])
	}
	if typ.Kind() == reflect.Pointer {
		return ptr.Interface(), nil
	}
	return elem.Interface(), nil
}

// Describe returns the descriptor of typ from the default Interpreter.
func Describe(typ reflect.Type) (*Descriptor, error) {
	return Default().Describe(typ)
}

// DescriptorOf returns the descriptor of the view T from the default
// Interpreter.
func DescriptorOf[T any]() (*Descriptor, error) {
	return Default().Describe(reflect.TypeFor[T]())
}

// Interpret binds s to the view T using the default Interpreter.
func Interpret[T any](s Storage) (*T, error) {
	return InterpretWith[T](Default(), s)
}

// InterpretWith binds s to the view T using in.
func InterpretWith[T any](in *Interpreter, s Storage) (*T, error) {
	v, err := in.Interpret(s, reflect.TypeFor[*T]())
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}

// InterpretAll interprets every storage as T using the default Interpreter.
func InterpretAll[T any](storages iter.Seq[Storage]) iter.Seq2[*T, error] {
	return InterpretAllWith[T](Default(), storages)
}

// InterpretAllWith interprets every storage as T using in.
func InterpretAllWith[T any](in *Interpreter, storages iter.Seq[Storage]) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		for v, err := range in.InterpretAll(storages, reflect.TypeFor[*T]()) {
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			if !yield(v.(*T), nil) {
				return
			}
		}
	}
}
