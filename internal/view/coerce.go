package view

import (
	"fmt"
	"reflect"
	"time"
	"unicode/utf8"
)

// timeLayouts are tried in order when a KindTime property holds text.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-1-2",
}

// coerce converts the native value stored under name to typ, whose kind is
// kind. Integer targets narrow or widen through the numeric value and
// truncate floats toward zero; nothing is reinterpreted bit for bit.
func coerce(name string, kind Kind, typ reflect.Type, raw any) (any, error) {
	if raw == nil {
		return nil, TypeMismatch(name, typ, raw)
	}
	src := reflect.ValueOf(raw)
	out := reflect.New(typ).Elem()

	switch {
	case kind.signed():
		switch {
		case isSigned(src.Kind()):
			out.SetInt(src.Int())
		case isUnsigned(src.Kind()):
			out.SetInt(int64(src.Uint()))
		case isFloat(src.Kind()):
			out.SetInt(int64(src.Float()))
		case kind == KindInt32 && src.Kind() == reflect.String:
			// A one-rune string is a character.
			r, ok := singleRune(src.String())
			if !ok {
				return nil, TypeMismatch(name, typ, raw)
			}
			out.SetInt(int64(r))
		default:
			return nil, TypeMismatch(name, typ, raw)
		}

	case kind.unsigned():
		switch {
		case isSigned(src.Kind()):
			out.SetUint(uint64(src.Int()))
		case isUnsigned(src.Kind()):
			out.SetUint(src.Uint())
		case isFloat(src.Kind()):
			out.SetUint(uint64(src.Float()))
		default:
			return nil, TypeMismatch(name, typ, raw)
		}

	case kind.float():
		switch {
		case isSigned(src.Kind()):
			out.SetFloat(float64(src.Int()))
		case isUnsigned(src.Kind()):
			out.SetFloat(float64(src.Uint()))
		case isFloat(src.Kind()):
			out.SetFloat(src.Float())
		default:
			return nil, TypeMismatch(name, typ, raw)
		}

	case kind == KindBool:
		if src.Kind() != reflect.Bool {
			return nil, TypeMismatch(name, typ, raw)
		}
		out.SetBool(src.Bool())

	case kind == KindString:
		if src.Kind() != reflect.String {
			return nil, TypeMismatch(name, typ, raw)
		}
		out.SetString(src.String())

	case kind == KindTime:
		switch v := raw.(type) {
		case time.Time:
			out.Set(reflect.ValueOf(v))
		case string:
			t, err := parseTime(v)
			if err != nil {
				return nil, WrapTypeMismatch(name, typ, raw, err)
			}
			out.Set(reflect.ValueOf(t))
		default:
			return nil, TypeMismatch(name, typ, raw)
		}

	default:
		return nil, TypeMismatch(name, typ, raw)
	}
	return out.Interface(), nil
}

// box converts a property value to the builtin type storages receive, so
// named types never leak into a Storage.
func box(kind Kind, value any) any {
	base, ok := baseTypes[kind]
	if !ok || value == nil {
		return value
	}
	v := reflect.ValueOf(value)
	if v.Type() == base || !v.Type().ConvertibleTo(base) {
		return value
	}
	return v.Convert(base).Interface()
}

// conform returns value as exactly typ when it is assignable or
// convertible to it.
func conform(name string, typ reflect.Type, value any) (any, error) {
	v := reflect.ValueOf(value)
	if !v.IsValid() {
		return nil, TypeMismatch(name, typ, value)
	}
	if v.Type() == typ {
		return value, nil
	}
	if v.Type().AssignableTo(typ) || v.Type().ConvertibleTo(typ) {
		return v.Convert(typ).Interface(), nil
	}
	return nil, TypeMismatch(name, typ, value)
}

func parseTime(text string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", text)
}

func singleRune(s string) (rune, bool) {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, false
	}
	return r, true
}

func isSigned(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUnsigned(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
