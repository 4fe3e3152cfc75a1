// Package structstore provides a view.Storage over a protobuf Struct, the
// loosely-typed record carried by gRPC payloads.
package structstore

import (
	"reflect"
	"time"

	"github.com/louisbranch/typedview/internal/view"
	"google.golang.org/protobuf/types/known/structpb"
)

// Option configures a Store.
type Option func(*Store)

// ReadOnly rejects every write with a ReadOnlyStorage error.
func ReadOnly() Option {
	return func(s *Store) {
		s.readOnly = true
	}
}

// WithInterpreter sets the interpreter used for nested views and
// snapshots. The default is view.Default().
func WithInterpreter(in *view.Interpreter) Option {
	return func(s *Store) {
		s.interpreter = in
	}
}

// Store is a view.Storage backed by a *structpb.Struct. Numbers are read
// as float64, the only numeric type a Struct holds.
type Store struct {
	msg         *structpb.Struct
	readOnly    bool
	interpreter *view.Interpreter
}

var _ view.Storage = (*Store)(nil)

// New wraps msg in place. A nil msg is replaced by an empty Struct.
func New(msg *structpb.Struct, opts ...Option) *Store {
	if msg == nil {
		msg = &structpb.Struct{}
	}
	if msg.Fields == nil {
		msg.Fields = map[string]*structpb.Value{}
	}
	s := &Store{msg: msg}
	for _, opt := range opts {
		opt(s)
	}
	if s.interpreter == nil {
		s.interpreter = view.Default()
	}
	return s
}

// Struct returns the underlying message.
func (s *Store) Struct() *structpb.Struct {
	return s.msg
}

func (s *Store) Get(name string) (any, error) {
	value, err := s.field(name)
	if err != nil {
		return nil, err
	}
	return value.AsInterface(), nil
}

func (s *Store) Set(name string, value any) error {
	if s.readOnly {
		return view.ReadOnlyStorage(name)
	}
	if t, ok := value.(time.Time); ok {
		value = t.Format(time.RFC3339Nano)
	}
	encoded, err := structpb.NewValue(value)
	if err != nil {
		return view.WrapTypeMismatch(name, reflect.TypeFor[*structpb.Value](), value, err)
	}
	s.msg.Fields[name] = encoded
	return nil
}

func (s *Store) GetAs(name string, typ reflect.Type) (any, error) {
	value, err := s.field(name)
	if err != nil {
		return nil, err
	}
	if nested := value.GetStructValue(); nested != nil {
		if kind, _ := view.KindOf(typ); kind == view.KindView {
			return s.interpreter.Interpret(s.nested(nested), typ)
		}
	}
	native := value.AsInterface()
	if reflect.TypeOf(native).AssignableTo(typ) {
		return native, nil
	}
	return nil, nil
}

// SetAs stores a nested view instance as a Struct holding a snapshot of
// its properties.
func (s *Store) SetAs(name string, typ reflect.Type, value any) error {
	if s.readOnly {
		return view.ReadOnlyStorage(name)
	}
	if rv := reflect.ValueOf(value); !rv.IsValid() || (rv.Kind() == reflect.Pointer && rv.IsNil()) {
		return view.TypeMismatch(name, typ, value)
	}
	snapshot, err := s.interpreter.Snapshot(value)
	if err != nil {
		return err
	}
	nested, err := structpb.NewStruct(normalize(snapshot))
	if err != nil {
		return view.WrapTypeMismatch(name, typ, value, err)
	}
	s.msg.Fields[name] = structpb.NewStructValue(nested)
	return nil
}

func (s *Store) field(name string) (*structpb.Value, error) {
	value, ok := s.msg.Fields[name]
	if !ok || value == nil {
		return nil, view.PropertyNotFound(name)
	}
	if _, null := value.GetKind().(*structpb.Value_NullValue); null {
		return nil, view.PropertyNotFound(name)
	}
	return value, nil
}

func (s *Store) nested(msg *structpb.Struct) *Store {
	return New(msg, func(n *Store) {
		n.readOnly = s.readOnly
		n.interpreter = s.interpreter
	})
}

// normalize converts snapshot values structpb cannot encode directly.
func normalize(values map[string]any) map[string]any {
	for key, value := range values {
		switch v := value.(type) {
		case time.Time:
			values[key] = v.Format(time.RFC3339Nano)
		case map[string]any:
			values[key] = normalize(v)
		}
	}
	return values
}
