package view

import "reflect"

// accessor is one row of a view's dispatch table.
type accessor struct {
	prop PropertyDescriptor
	get  func(Storage) (any, error)
	set  func(Storage, any) error
}

// binding pairs an accessor with the storage of one instance.
type binding struct {
	storage Storage
	access  *accessor
}

// accessorField is implemented by Property and Mutable; Describe uses it
// to recognize accessor fields and read their declared type.
type accessorField interface {
	valueType() reflect.Type
	mutable() bool
}

type bindable interface {
	bind(*binding)
}

var (
	accessorFieldType = reflect.TypeFor[accessorField]()
	bindableType      = reflect.TypeFor[bindable]()
)

// Property is a read-only view property holding a T.
//
// The zero value is unbound; Get on it fails with ErrUnboundProperty.
type Property[T any] struct {
	b *binding
}

// Get reads the property from the bound storage.
func (p Property[T]) Get() (T, error) {
	var zero T
	if p.b == nil {
		return zero, ErrUnboundProperty
	}
	v, err := p.b.access.get(p.b.storage)
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// Key returns the storage key the property is bound to, or "" when unbound.
func (p Property[T]) Key() string {
	if p.b == nil {
		return ""
	}
	return p.b.access.prop.Key
}

func (Property[T]) valueType() reflect.Type { return reflect.TypeFor[T]() }

func (Property[T]) mutable() bool { return false }

func (p *Property[T]) bind(b *binding) { p.b = b }

// Mutable is a read/write view property holding a T.
type Mutable[T any] struct {
	Property[T]
}

// Set writes value to the bound storage.
func (m Mutable[T]) Set(value T) error {
	if m.b == nil {
		return ErrUnboundProperty
	}
	return m.b.access.set(m.b.storage, value)
}

func (Mutable[T]) mutable() bool { return true }
