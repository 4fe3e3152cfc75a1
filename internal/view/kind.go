package view

import (
	"reflect"
	"time"
)

// Kind is the coercion rule applied to a property's declared type.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindBool
	KindString
	// KindTime reads time.Time values or parses text dates.
	KindTime
	// KindView interprets a nested document as another view.
	KindView
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindInt:     "int",
	KindInt8:    "int8",
	KindInt16:   "int16",
	KindInt32:   "int32",
	KindInt64:   "int64",
	KindUint:    "uint",
	KindUint8:   "uint8",
	KindUint16:  "uint16",
	KindUint32:  "uint32",
	KindUint64:  "uint64",
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindBool:    "bool",
	KindString:  "string",
	KindTime:    "time",
	KindView:    "view",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

var timeType = reflect.TypeFor[time.Time]()

// baseTypes holds the builtin type each fixed kind is boxed to on write.
var baseTypes = map[Kind]reflect.Type{
	KindInt:     reflect.TypeFor[int](),
	KindInt8:    reflect.TypeFor[int8](),
	KindInt16:   reflect.TypeFor[int16](),
	KindInt32:   reflect.TypeFor[int32](),
	KindInt64:   reflect.TypeFor[int64](),
	KindUint:    reflect.TypeFor[uint](),
	KindUint8:   reflect.TypeFor[uint8](),
	KindUint16:  reflect.TypeFor[uint16](),
	KindUint32:  reflect.TypeFor[uint32](),
	KindUint64:  reflect.TypeFor[uint64](),
	KindFloat32: reflect.TypeFor[float32](),
	KindFloat64: reflect.TypeFor[float64](),
	KindBool:    reflect.TypeFor[bool](),
	KindString:  reflect.TypeFor[string](),
	KindTime:    timeType,
}

var kindsByReflect = map[reflect.Kind]Kind{
	reflect.Int:     KindInt,
	reflect.Int8:    KindInt8,
	reflect.Int16:   KindInt16,
	reflect.Int32:   KindInt32,
	reflect.Int64:   KindInt64,
	reflect.Uint:    KindUint,
	reflect.Uint8:   KindUint8,
	reflect.Uint16:  KindUint16,
	reflect.Uint32:  KindUint32,
	reflect.Uint64:  KindUint64,
	reflect.Float32: KindFloat32,
	reflect.Float64: KindFloat64,
	reflect.Bool:    KindBool,
	reflect.String:  KindString,
}

// KindOf maps a declared property type to its coercion kind. Named types
// map through their underlying kind, so `type Celsius float64` is
// KindFloat64. The second result is false for types no rule covers.
func KindOf(typ reflect.Type) (Kind, bool) {
	if typ == nil {
		return KindInvalid, false
	}
	if typ == timeType {
		return KindTime, true
	}
	if isViewType(typ) {
		return KindView, true
	}
	kind, ok := kindsByReflect[typ.Kind()]
	return kind, ok
}

// Fixed reports whether k is read through Storage.Get rather than GetAs.
func (k Kind) Fixed() bool {
	return k != KindInvalid && k != KindView
}

func (k Kind) signed() bool {
	return k >= KindInt && k <= KindInt64
}

func (k Kind) unsigned() bool {
	return k >= KindUint && k <= KindUint64
}

func (k Kind) float() bool {
	return k == KindFloat32 || k == KindFloat64
}

// isViewType reports whether typ is a struct or a pointer to a struct,
// excluding time.Time.
func isViewType(typ reflect.Type) bool {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return typ.Kind() == reflect.Struct && typ != timeType
}

// viewStruct strips one level of pointer from a view type.
func viewStruct(typ reflect.Type) reflect.Type {
	if typ.Kind() == reflect.Pointer {
		return typ.Elem()
	}
	return typ
}
