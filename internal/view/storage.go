package view

import "reflect"

// Storage is an associative data source addressed by raw property name.
//
// Get and Set move the storage's native values (numbers, strings, booleans,
// nested documents). GetAs and SetAs are used for properties whose declared
// type is not a fixed primitive kind, such as nested views.
type Storage interface {
	// Get returns the native value stored under name, or a
	// PropertyNotFound error when name is absent.
	Get(name string) (any, error)
	// Set stores value under name. Read-only storages return a
	// ReadOnlyStorage error.
	Set(name string, value any) error
	// GetAs returns the value stored under name as typ. A stored value
	// assignable to typ is returned unchanged; a nested document requested
	// as a view type is interpreted through an Interpreter. Any other value
	// yields (nil, nil). Absent names fail with PropertyNotFound.
	GetAs(name string, typ reflect.Type) (any, error)
	// SetAs stores value, declared as typ, under name.
	SetAs(name string, typ reflect.Type, value any) error
}
