package view

import (
	"fmt"
	"reflect"

	apperrors "github.com/louisbranch/typedview/internal/platform/errors"
)

// Sentinels for errors.Is; domain errors match by code.
var (
	ErrPropertyNotFound        = apperrors.New(apperrors.CodePropertyNotFound, "property not found")
	ErrUnsupportedPropertyType = apperrors.New(apperrors.CodeUnsupportedPropertyType, "unsupported property type")
	ErrTypeMismatch            = apperrors.New(apperrors.CodeTypeMismatch, "type mismatch")
	ErrReadOnlyStorage         = apperrors.New(apperrors.CodeReadOnlyStorage, "storage is read-only")
	ErrUnboundProperty         = apperrors.New(apperrors.CodeUnboundProperty, "property is not bound to a storage")
)

// PropertyNotFound reports that name is absent from a storage.
func PropertyNotFound(name string) error {
	return apperrors.WithMetadata(
		apperrors.CodePropertyNotFound,
		fmt.Sprintf("property %q not found", name),
		map[string]string{"Property": name},
	)
}

// ReadOnlyStorage reports a write of name against an immutable storage.
func ReadOnlyStorage(name string) error {
	return apperrors.WithMetadata(
		apperrors.CodeReadOnlyStorage,
		fmt.Sprintf("property %q: storage is read-only", name),
		map[string]string{"Property": name},
	)
}

// TypeMismatch reports that the value stored under name cannot be coerced
// to want.
func TypeMismatch(name string, want reflect.Type, got any) error {
	actual := "nil"
	if got != nil {
		actual = reflect.TypeOf(got).String()
	}
	return apperrors.WithMetadata(
		apperrors.CodeTypeMismatch,
		fmt.Sprintf("property %q: cannot read %s as %s", name, actual, want),
		map[string]string{"Property": name, "Type": want.String(), "Actual": actual},
	)
}

// WrapTypeMismatch is TypeMismatch carrying the conversion failure as cause.
func WrapTypeMismatch(name string, want reflect.Type, got any, cause error) error {
	actual := "nil"
	if got != nil {
		actual = reflect.TypeOf(got).String()
	}
	return apperrors.WrapWithMetadata(
		apperrors.CodeTypeMismatch,
		fmt.Sprintf("property %q: cannot convert %s to %s: %v", name, actual, want, cause),
		map[string]string{"Property": name, "Type": want.String(), "Actual": actual},
		cause,
	)
}

func unsupportedPropertyType(viewType reflect.Type, field string, typ reflect.Type, reason string) error {
	typeName := "<nil>"
	if typ != nil {
		typeName = typ.String()
	}
	return apperrors.WithMetadata(
		apperrors.CodeUnsupportedPropertyType,
		fmt.Sprintf("view %s: property %s of type %s: %s", viewType, field, typeName, reason),
		map[string]string{"View": viewType.String(), "Property": field, "Type": typeName},
	)
}
