// Package view interprets loosely-typed associative storage through
// strongly-typed views.
//
// A view is a struct whose exported fields are accessors:
//
//	type Numbers struct {
//		Count   view.Property[int32]
//		Size    view.Mutable[int64]
//		Percent view.Property[float64]
//	}
//
// Interpreting a Storage as Numbers returns a *Numbers whose accessors read
// and write the storage keys "count", "size" and "percent". The instance holds
// no data of its own; every Get and Set is forwarded to the bound Storage with
// the value coerced to the declared type.
//
// # Descriptors and the dispatch table
//
// The first interpretation of a view type extracts a Descriptor (storage key,
// declared type, kind and mutability of every accessor) and builds one getter
// and one setter per property. Both are cached by the Interpreter and shared by
// every instance of that view type, so later interpretations only allocate the
// instance and bind it. Extraction failures are cached as well.
//
// # Storage keys
//
// A property's storage key is its field name with the first letter lower-cased
// (Decapitalize). A `view:"key"` tag overrides the key of one field and
// WithNaming replaces the rule for a whole Interpreter. Embedded structs are
// flattened, so views compose.
//
// # Nested views
//
// A property whose declared type is another view (a struct or a pointer to one)
// is resolved through Storage.GetAs. Storage implementations wrap the nested
// document in a Storage of their own kind and call back into
// Interpreter.Interpret.
package view
