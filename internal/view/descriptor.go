package view

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

// tagName is the struct tag that overrides a property's storage key.
const tagName = "view"

// PropertyDescriptor describes one accessor field of a view.
type PropertyDescriptor struct {
	Name    string       // Go field name
	Key     string       // storage key
	Type    reflect.Type // declared value type
	Kind    Kind
	Mutable bool
	Index   []int // field index path, through embedded structs
}

// Descriptor is the extracted shape of a view type. It is immutable once
// built.
type Descriptor struct {
	Type       reflect.Type
	Properties []PropertyDescriptor
}

// Lookup returns the property bound to key.
func (d *Descriptor) Lookup(key string) (PropertyDescriptor, bool) {
	for _, prop := range d.Properties {
		if prop.Key == key {
			return prop, true
		}
	}
	return PropertyDescriptor{}, false
}

// Decapitalize lower-cases the first letter of name. It is the default rule
// binding property names to storage keys: "Count" is stored as "count" and
// "URL" as "uRL".
func Decapitalize(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || !unicode.IsUpper(r) {
		return name
	}
	return string(unicode.ToLower(r)) + name[size:]
}

// describe extracts the descriptor of the struct type viewType. Nested view
// types are only named here; the Interpreter resolves them through its
// cache. It never consults a Storage.
func describe(viewType reflect.Type, naming func(string) string) (*Descriptor, error) {
	if viewType.Kind() != reflect.Struct || viewType == timeType {
		return nil, unsupportedPropertyType(viewType, "", viewType, "a view must be a struct")
	}
	d := &Descriptor{Type: viewType}
	if err := collect(d, viewType, viewType, nil, naming, map[string]string{}); err != nil {
		return nil, err
	}
	return d, nil
}

// collect appends the accessors of st (reached from the view root through
// prefix) to d, flattening embedded structs.
func collect(d *Descriptor, root, st reflect.Type, prefix []int, naming func(string) string, keys map[string]string) error {
	for i := 0; i < st.NumField(); i++ {
		field := st.Field(i)
		if !field.IsExported() {
			if field.Anonymous && field.Type.Kind() == reflect.Struct && hasAccessors(field.Type) {
				return unsupportedPropertyType(root, field.Name, field.Type, "embedded view must be exported")
			}
			continue
		}
		tag := field.Tag.Get(tagName)
		if tag == "-" {
			continue
		}
		index := append(append([]int(nil), prefix...), i)

		if !isAccessor(field.Type) {
			if field.Anonymous && field.Type.Kind() == reflect.Struct {
				if err := collect(d, root, field.Type, index, naming, keys); err != nil {
					return err
				}
				continue
			}
			return unsupportedPropertyType(root, field.Name, field.Type, "field must be a view.Property or view.Mutable")
		}

		acc := reflect.Zero(field.Type).Interface().(accessorField)
		valueType := acc.valueType()
		kind, ok := KindOf(valueType)
		if !ok {
			return unsupportedPropertyType(root, field.Name, valueType, "no coercion rule for this type")
		}

		key := naming(field.Name)
		if name, _, _ := strings.Cut(tag, ","); strings.TrimSpace(name) != "" {
			key = strings.TrimSpace(name)
		}
		if other, taken := keys[key]; taken {
			return unsupportedPropertyType(root, field.Name, valueType, "storage key "+key+" already bound to "+other)
		}
		keys[key] = field.Name

		d.Properties = append(d.Properties, PropertyDescriptor{
			Name:    field.Name,
			Key:     key,
			Type:    valueType,
			Kind:    kind,
			Mutable: acc.mutable(),
			Index:   index,
		})
	}
	return nil
}

func isAccessor(typ reflect.Type) bool {
	return typ.Implements(accessorFieldType) && reflect.PointerTo(typ).Implements(bindableType)
}

// hasAccessors reports whether st declares accessor fields, directly or
// through embedded structs.
func hasAccessors(st reflect.Type) bool {
	for i := 0; i < st.NumField(); i++ {
		field := st.Field(i)
		if isAccessor(field.Type) {
			return true
		}
		if field.Anonymous && field.Type.Kind() == reflect.Struct && hasAccessors(field.Type) {
			return true
		}
	}
	return false
}
