// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// View interpretation errors
	CodePropertyNotFound        Code = "PROPERTY_NOT_FOUND"
	CodeUnsupportedPropertyType Code = "UNSUPPORTED_PROPERTY_TYPE"
	CodeTypeMismatch            Code = "TYPE_MISMATCH"
	CodeReadOnlyStorage         Code = "READ_ONLY_STORAGE"
	CodeUnboundProperty         Code = "UNBOUND_PROPERTY"

	// Document errors
	CodeInvalidDocument Code = "INVALID_DOCUMENT"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// NotFound - the addressed property or document does not exist
	case CodePropertyNotFound,
		CodeNotFound:
		return codes.NotFound

	// InvalidArgument - the view or the payload is malformed
	case CodeUnsupportedPropertyType,
		CodeInvalidDocument:
		return codes.InvalidArgument

	// FailedPrecondition - stored state doesn't allow the operation
	case CodeTypeMismatch,
		CodeReadOnlyStorage,
		CodeUnboundProperty:
		return codes.FailedPrecondition

	default:
		return codes.Internal
	}
}
