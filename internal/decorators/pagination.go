package decorators

import (
	"github.com/formancehq/apistd/internal/diag"
	"github.com/formancehq/apistd/internal/typegraph"
)

// Outcome is the result of ValidatePagination.
type Outcome struct {
	// Accepted is true when a response variant carries a cursor property.
	// The pagination extension is attached exactly in that case.
	Accepted    bool
	Diagnostics []diag.Diagnostic
}

// OK reports whether validation raised nothing.
func (o Outcome) OK() bool {
	return o.Accepted && len(o.Diagnostics) == 0
}

// ValidatePagination checks op against the cursor pagination convention: an
// optional string "cursor" query parameter, and a response whose "cursor"
// object holds an optional string "next" and an array "data". Diagnostics go
// to r and are also returned in the Outcome.
func ValidatePagination(op *typegraph.Operation, r diag.Reporter) Outcome {
	c := &diag.Collector{Next: r}

	validateCursorParameter(op, c)

	accepted := validateResponseType(op.ReturnType, c, map[*typegraph.Union]struct{}{})
	if !accepted {
		c.Report(diag.New(diag.PaginatedResponseNoCursor, returnRef(op)))
	} else {
		op.SetExtension(ExtPagination, CursorPagination())
	}

	return Outcome{Accepted: accepted, Diagnostics: c.Items}
}

func validateCursorParameter(op *typegraph.Operation, r diag.Reporter) {
	cursor := op.Parameter("cursor")
	if cursor == nil {
		r.Report(diag.New(diag.MissingCursorParameter, op.Ref()))
		return
	}
	if !cursor.Optional || !typegraph.IsString(cursor.Type) {
		r.Report(diag.New(diag.CursorNotOptionalString, cursor.Ref()))
	}
	if cursor.In != typegraph.Query {
		r.Report(diag.New(diag.CursorNotQueryParameter, cursor.Ref()))
	}
}

// validateResponseType returns true as soon as one variant has a cursor
// property. From then on that variant is taken as the paginated shape:
// findings on its cursor object are reported but do not reject it.
func validateResponseType(t typegraph.Type, r diag.Reporter, seen map[*typegraph.Union]struct{}) bool {
	switch t := t.(type) {
	case *typegraph.Union:
		if _, ok := seen[t]; ok {
			return false
		}
		seen[t] = struct{}{}
		for _, v := range t.Variants {
			if validateResponseType(v, r, seen) {
				return true
			}
		}
		return false
	case *typegraph.Object:
		cursor := t.FindPropertyInherited("cursor")
		if cursor == nil {
			return false
		}
		validateCursorObject(cursor, r)
		return true
	case *typegraph.Array, *typegraph.Primitive, nil:
		return false
	default:
		return false
	}
}

func validateCursorObject(cursor *typegraph.Property, r diag.Reporter) {
	obj := typegraph.AsObject(cursor.Type)
	if obj == nil {
		return
	}

	next := obj.FindPropertyInherited("next")
	data := obj.FindPropertyInherited("data")
	if next == nil {
		r.Report(diag.New(diag.PaginatedResponseCursorNoNext, obj.Ref()))
	}
	if data == nil {
		r.Report(diag.New(diag.PaginatedResponseCursorNoData, obj.Ref()))
	}

	if next != nil {
		if !next.Optional {
			r.Report(diag.New(diag.PaginatedResponseCursorNextNotOptional, next.Ref()))
		}
		if !typegraph.IsString(next.Type) {
			r.Report(diag.New(diag.PaginatedResponseCursorNextNotString, next.Ref()))
		}
	}
	if data != nil && !typegraph.IsArray(data.Type) {
		r.Report(diag.New(diag.PaginatedResponseCursorDataNotArray, data.Ref()))
	}
}

func returnRef(op *typegraph.Operation) string {
	if op.ReturnType == nil {
		return op.Ref()
	}
	return op.ReturnType.Ref()
}
