package view

import (
	"errors"
	"reflect"

	apperrors "github.com/louisbranch/typedview/internal/platform/errors"
)

// boundField exposes the binding of an accessor field.
type boundField interface {
	bound() *binding
}

func (p *Property[T]) bound() *binding { return p.b }

// Snapshot reads every property of instance, a view V or *V created by an
// Interpreter, into a map keyed by storage key. Nested views become nested
// maps. Properties absent from the storage are left out.
func Snapshot(instance any) (map[string]any, error) {
	return Default().Snapshot(instance)
}

// Snapshot is the package-level Snapshot using in to describe view types.
func (in *Interpreter) Snapshot(instance any) (map[string]any, error) {
	v := reflect.ValueOf(instance)
	if !v.IsValid() {
		return nil, errors.New("view instance is required")
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, errors.New("view instance is required")
		}
		v = v.Elem()
	} else {
		addressable := reflect.New(v.Type()).Elem()
		addressable.Set(v)
		v = addressable
	}

	desc, err := in.Describe(v.Type())
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(desc.Properties))
	for _, prop := range desc.Properties {
		b := v.FieldByIndex(prop.Index).Addr().Interface().(boundField).bound()
		if b == nil {
			return nil, ErrUnboundProperty
		}
		value, err := b.access.get(b.storage)
		if err != nil {
			if apperrors.CodeOf(err) == apperrors.CodePropertyNotFound {
				continue
			}
			return nil, err
		}
		if prop.Kind == KindView {
			if rv := reflect.ValueOf(value); rv.Kind() == reflect.Pointer && rv.IsNil() {
				continue
			}
			nested, err := in.Snapshot(value)
			if err != nil {
				return nil, err
			}
			value = nested
		}
		out[b.access.prop.Key] = value
	}
	return out, nil
}
