package diag

// Code is the stable, kebab-case identifier of a diagnostic.
type Code string

const (
	MissingCursorParameter  Code = "missing-cursor-parameter"
	CursorNotQueryParameter Code = "cursor-not-query-parameter"
	CursorNotOptionalString Code = "cursor-not-optional-string"

	PaginatedResponseNoCursor              Code = "paginated-response-no-cursor"
	PaginatedResponseCursorNotObject       Code = "paginated-response-cursor-not-object"
	PaginatedResponseCursorNoNext          Code = "paginated-response-cursor-no-next"
	PaginatedResponseCursorNoData          Code = "paginated-response-cursor-no-data"
	PaginatedResponseCursorNextNotString   Code = "paginated-response-cursor-next-not-string"
	PaginatedResponseCursorNextNotOptional Code = "paginated-response-cursor-next-not-optional"
	PaginatedResponseCursorDataNotArray    Code = "paginated-response-cursor-data-not-array"

	NoInterfaces Code = "no-interfaces"
)

func (c Code) String() string { return string(c) }

// Definition is a catalog entry: the severity and default message of a code.
type Definition struct {
	Code     Code
	Severity Severity
	Message  string
}

var catalog = map[Code]Definition{
	MissingCursorParameter: {
		Severity: SevError,
		Message:  "Operation is missing a query parameter named 'cursor'. Add it or remove the paginated marker.",
	},
	CursorNotQueryParameter: {
		Severity: SevError,
		Message:  "The 'cursor' parameter must be a query parameter.",
	},
	CursorNotOptionalString: {
		Severity: SevError,
		Message:  "The 'cursor' parameter must be an optional string.",
	},
	PaginatedResponseNoCursor: {
		Severity: SevError,
		Message:  "The response type must have a property named 'cursor', or one of its variants must have it.",
	},
	PaginatedResponseCursorNotObject: {
		Severity: SevError,
		Message:  "The 'cursor' property must be an object.",
	},
	PaginatedResponseCursorNoNext: {
		Severity: SevError,
		Message:  "The 'cursor' object must have a property named 'next'.",
	},
	PaginatedResponseCursorNoData: {
		Severity: SevError,
		Message:  "The 'cursor' object must have a property named 'data'.",
	},
	PaginatedResponseCursorNextNotString: {
		Severity: SevError,
		Message:  "The 'next' property of the 'cursor' object must be a string.",
	},
	PaginatedResponseCursorNextNotOptional: {
		Severity: SevError,
		Message:  "The 'next' property of the 'cursor' object must be optional.",
	},
	PaginatedResponseCursorDataNotArray: {
		Severity: SevError,
		Message:  "The 'data' property of the 'cursor' object must be an array.",
	},
	NoInterfaces: {
		Severity: SevWarning,
		Message:  "Interfaces are discouraged. Declare operations directly in a namespace.",
	},
}

// Lookup returns the catalog entry for code.
func Lookup(code Code) (Definition, bool) {
	def, ok := catalog[code]
	if !ok {
		return Definition{}, false
	}
	def.Code = code
	return def, true
}

// Codes lists every catalogued code in declaration order.
func Codes() []Code {
	return []Code{
		MissingCursorParameter,
		CursorNotQueryParameter,
		CursorNotOptionalString,
		PaginatedResponseNoCursor,
		PaginatedResponseCursorNotObject,
		PaginatedResponseCursorNoNext,
		PaginatedResponseCursorNoData,
		PaginatedResponseCursorNextNotString,
		PaginatedResponseCursorNextNotOptional,
		PaginatedResponseCursorDataNotArray,
		NoInterfaces,
	}
}
