// Package jsonstore provides a read-only view.Storage over a JSON document.
//
// The document is parsed once into a table of top-level fields. Nested
// objects become nested stores when a view property asks for them; every
// write fails with a ReadOnlyStorage error.
package jsonstore

import (
	"reflect"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/typedview/internal/platform/errors"
	"github.com/louisbranch/typedview/internal/view"
	"github.com/tidwall/gjson"
)

// Option configures a Store.
type Option func(*Store)

// WithInterpreter sets the interpreter used for nested views. The default
// is view.Default().
func WithInterpreter(in *view.Interpreter) Option {
	return func(s *Store) {
		s.interpreter = in
	}
}

// Store is a read-only view.Storage backed by a JSON object.
type Store struct {
	raw         string
	fields      map[string]gjson.Result
	interpreter *view.Interpreter
}

var _ view.Storage = (*Store)(nil)

// Parse parses text, which must hold a JSON object.
func Parse(text string, opts ...Option) (*Store, error) {
	if !gjson.Valid(text) {
		return nil, apperrors.New(apperrors.CodeInvalidDocument, "document is not valid JSON")
	}
	return FromResult(gjson.Parse(text), opts...)
}

// ParseBytes is Parse for a byte slice.
func ParseBytes(data []byte, opts ...Option) (*Store, error) {
	if !gjson.ValidBytes(data) {
		return nil, apperrors.New(apperrors.CodeInvalidDocument, "document is not valid JSON")
	}
	return FromResult(gjson.ParseBytes(data), opts...)
}

// FromResult wraps an already parsed JSON object.
func FromResult(doc gjson.Result, opts ...Option) (*Store, error) {
	if !doc.IsObject() {
		return nil, apperrors.WithMetadata(
			apperrors.CodeInvalidDocument,
			"document is not a JSON object",
			map[string]string{"Type": doc.Type.String()},
		)
	}
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	if s.interpreter == nil {
		s.interpreter = view.Default()
	}
	s.load(doc)
	return s, nil
}

// load builds the field table. Duplicate keys keep the last occurrence.
func (s *Store) load(doc gjson.Result) {
	s.raw = doc.Raw
	s.fields = map[string]gjson.Result{}
	doc.ForEach(func(key, value gjson.Result) bool {
		s.fields[key.String()] = value
		return true
	})
}

// Raw returns the JSON text of the document.
func (s *Store) Raw() string {
	return s.raw
}

// Keys returns the top-level keys in no particular order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.fields))
	for key := range s.fields {
		keys = append(keys, key)
	}
	return keys
}

// Get returns the native value under name: string, bool, int64 for
// integer literals that fit, float64 for other numbers, map[string]any for
// objects and []any for arrays. JSON null counts as absent.
func (s *Store) Get(name string) (any, error) {
	field, err := s.field(name)
	if err != nil {
		return nil, err
	}
	return native(field), nil
}

// Set always fails: JSON documents are read-only.
func (s *Store) Set(name string, _ any) error {
	return view.ReadOnlyStorage(name)
}

// GetAs resolves nested objects requested as views through the
// interpreter and returns other values when assignable to typ.
func (s *Store) GetAs(name string, typ reflect.Type) (any, error) {
	field, err := s.field(name)
	if err != nil {
		return nil, err
	}
	if field.IsObject() {
		if kind, _ := view.KindOf(typ); kind == view.KindView {
			nested := &Store{interpreter: s.interpreter}
			nested.load(field)
			return s.interpreter.Interpret(nested, typ)
		}
	}
	value := native(field)
	if reflect.TypeOf(value).AssignableTo(typ) {
		return value, nil
	}
	return nil, nil
}

// SetAs always fails: JSON documents are read-only.
func (s *Store) SetAs(name string, _ reflect.Type, _ any) error {
	return view.ReadOnlyStorage(name)
}

func (s *Store) field(name string) (gjson.Result, error) {
	field, ok := s.fields[name]
	if !ok || field.Type == gjson.Null {
		return gjson.Result{}, view.PropertyNotFound(name)
	}
	return field, nil
}

func native(field gjson.Result) any {
	switch field.Type {
	case gjson.String:
		return field.Str
	case gjson.True, gjson.False:
		return field.Bool()
	case gjson.Number:
		if isIntegerLiteral(field.Raw) {
			if n, err := strconv.ParseInt(field.Raw, 10, 64); err == nil {
				return n
			}
		}
		return field.Num
	default:
		return field.Value()
	}
}

func isIntegerLiteral(raw string) bool {
	return raw != "" && !strings.ContainsAny(raw, ".eE")
}
