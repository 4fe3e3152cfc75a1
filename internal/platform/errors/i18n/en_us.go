package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodePropertyNotFound        = "PROPERTY_NOT_FOUND"
	CodeUnsupportedPropertyType = "UNSUPPORTED_PROPERTY_TYPE"
	CodeTypeMismatch            = "TYPE_MISMATCH"
	CodeReadOnlyStorage         = "READ_ONLY_STORAGE"
	CodeUnboundProperty         = "UNBOUND_PROPERTY"
	CodeInvalidDocument         = "INVALID_DOCUMENT"
	CodeNotFound                = "NOT_FOUND"
	CodeUnknown                 = "UNKNOWN"
)

var enUSMessages = map[Code]string{
	// View interpretation errors
	CodePropertyNotFound:        "Property {{.Property}} was not found",
	CodeUnsupportedPropertyType: "View {{.View}} declares property {{.Property}} with unsupported type {{.Type}}",
	CodeTypeMismatch:            "Property {{.Property}} holds {{.Actual}}, which cannot be read as {{.Type}}",
	CodeReadOnlyStorage:         "Property {{.Property}} cannot be written: the storage is read-only",
	CodeUnboundProperty:         "Property is not bound to a storage",

	// Document errors
	CodeInvalidDocument: "Document is not a valid JSON object",

	// Storage errors
	CodeNotFound: "Document {{.ID}} was not found",

	CodeUnknown: "An unexpected error occurred",
}
