package decorators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formancehq/apistd/internal/diag"
	"github.com/formancehq/apistd/internal/typegraph"
)

func str() typegraph.Type { return &typegraph.Primitive{Kind: typegraph.String} }

func cursorParam() *typegraph.Parameter {
	return &typegraph.Parameter{Name: "cursor", Type: str(), Optional: true, In: typegraph.Query}
}

func cursorObject(props ...*typegraph.Property) *typegraph.Object {
	return &typegraph.Object{Name: "Cursor", Properties: props}
}

func nextProp() *typegraph.Property {
	return &typegraph.Property{Name: "next", Type: str(), Optional: true}
}

func dataProp(elem typegraph.Type) *typegraph.Property {
	return &typegraph.Property{Name: "data", Type: &typegraph.Array{Elem: elem}}
}

func paginatedResponse(cursor typegraph.Type) *typegraph.Object {
	return &typegraph.Object{Name: "ListResponse", Properties: []*typegraph.Property{
		{Name: "cursor", Type: cursor},
	}}
}

func validResponse(elem typegraph.Type) *typegraph.Object {
	return paginatedResponse(cursorObject(nextProp(), dataProp(elem)))
}

func codes(ds []diag.Diagnostic) []diag.Code {
	out := make([]diag.Code, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Code)
	}
	return out
}

func TestValidatePagination(t *testing.T) {
	t.Run("valid operation", func(t *testing.T) {
		for _, elem := range []typegraph.Type{str(), &typegraph.Object{Name: "Ledger"}, &typegraph.Array{Elem: str()}} {
			op := &typegraph.Operation{
				Name:       "list",
				Parameters: []*typegraph.Parameter{cursorParam()},
				ReturnType: validResponse(elem),
			}
			bag := diag.NewBag()
			out := ValidatePagination(op, diag.BagReporter{Bag: bag})

			assert.True(t, out.OK())
			assert.Equal(t, 0, bag.Len())

			v, ok := op.Extension(ExtPagination)
			require.True(t, ok)
			p := v.(Pagination)
			assert.Equal(t, "cursor", p.Type)
			assert.Equal(t, "$.cursor.next", p.Outputs.NextCursor)
			assert.Equal(t, "$.cursor.data", p.Outputs.Results)
			require.Len(t, p.Inputs, 1)
			assert.Equal(t, PaginationInput{Name: "cursor", In: "parameters", Type: "cursor"}, p.Inputs[0])
		}
	})

	t.Run("missing cursor parameter", func(t *testing.T) {
		op := &typegraph.Operation{Name: "list", ReturnType: validResponse(str())}
		out := ValidatePagination(op, diag.Nop)

		assert.Equal(t, []diag.Code{diag.MissingCursorParameter}, codes(out.Diagnostics))
		assert.True(t, out.Accepted)
	})

	t.Run("required cursor", func(t *testing.T) {
		p := cursorParam()
		p.Optional = false
		op := &typegraph.Operation{Name: "list", Parameters: []*typegraph.Parameter{p}, ReturnType: validResponse(str())}

		out := ValidatePagination(op, diag.Nop)
		assert.Equal(t, []diag.Code{diag.CursorNotOptionalString}, codes(out.Diagnostics))
		assert.Equal(t, "cursor", out.Diagnostics[0].Target)
	})

	t.Run("non string cursor", func(t *testing.T) {
		p := cursorParam()
		p.Type = &typegraph.Primitive{Kind: typegraph.Integer}
		op := &typegraph.Operation{Name: "list", Parameters: []*typegraph.Parameter{p}, ReturnType: validResponse(str())}

		out := ValidatePagination(op, diag.Nop)
		assert.Equal(t, []diag.Code{diag.CursorNotOptionalString}, codes(out.Diagnostics))
	})

	t.Run("named string scalar cursor", func(t *testing.T) {
		p := cursorParam()
		p.Type = &typegraph.Primitive{Kind: typegraph.String, Name: "CursorToken"}
		op := &typegraph.Operation{Name: "list", Parameters: []*typegraph.Parameter{p}, ReturnType: validResponse(str())}

		assert.True(t, ValidatePagination(op, diag.Nop).OK())
	})

	t.Run("cursor not in query", func(t *testing.T) {
		p := cursorParam()
		p.In = typegraph.Header
		op := &typegraph.Operation{Name: "list", Parameters: []*typegraph.Parameter{p}, ReturnType: validResponse(str())}

		out := ValidatePagination(op, diag.Nop)
		assert.Equal(t, []diag.Code{diag.CursorNotQueryParameter}, codes(out.Diagnostics))
	})

	t.Run("parameter checks are independent", func(t *testing.T) {
		p := &typegraph.Parameter{Name: "cursor", Type: str(), In: typegraph.Body}
		op := &typegraph.Operation{Name: "list", Parameters: []*typegraph.Parameter{p}, ReturnType: validResponse(str())}

		out := ValidatePagination(op, diag.Nop)
		assert.Equal(t, []diag.Code{diag.CursorNotOptionalString, diag.CursorNotQueryParameter}, codes(out.Diagnostics))
	})

	t.Run("response without cursor", func(t *testing.T) {
		for name, rt := range map[string]typegraph.Type{
			"object":    &typegraph.Object{Name: "Plain", Properties: []*typegraph.Property{{Name: "data", Type: &typegraph.Array{Elem: str()}}}},
			"array":     &typegraph.Array{Elem: validResponse(str())},
			"primitive": str(),
			"none":      nil,
			"union":     &typegraph.Union{Variants: []typegraph.Type{str(), &typegraph.Object{Name: "Err"}}},
		} {
			t.Run(name, func(t *testing.T) {
				op := &typegraph.Operation{Name: "list", Parameters: []*typegraph.Parameter{cursorParam()}, ReturnType: rt}
				out := ValidatePagination(op, diag.Nop)

				assert.False(t, out.Accepted)
				assert.Equal(t, []diag.Code{diag.PaginatedResponseNoCursor}, codes(out.Diagnostics))
				_, ok := op.Extension(ExtPagination)
				assert.False(t, ok)
			})
		}
	})

	t.Run("union picks the variant with a cursor", func(t *testing.T) {
		a := &typegraph.Object{Name: "A", Properties: []*typegraph.Property{{Name: "error", Type: str()}}}
		b := validResponse(str())
		op := &typegraph.Operation{
			Name:       "list",
			Parameters: []*typegraph.Parameter{cursorParam()},
			ReturnType: &typegraph.Union{Variants: []typegraph.Type{a, b}},
		}

		out := ValidatePagination(op, diag.Nop)
		assert.True(t, out.OK())
		assert.NotContains(t, codes(out.Diagnostics), diag.PaginatedResponseNoCursor)
	})

	t.Run("first cursor variant wins", func(t *testing.T) {
		broken := paginatedResponse(cursorObject(dataProp(str())))
		good := validResponse(str())
		op := &typegraph.Operation{
			Name:       "list",
			Parameters: []*typegraph.Parameter{cursorParam()},
			ReturnType: &typegraph.Union{Variants: []typegraph.Type{broken, good}},
		}

		out := ValidatePagination(op, diag.Nop)
		assert.True(t, out.Accepted)
		assert.Equal(t, []diag.Code{diag.PaginatedResponseCursorNoNext}, codes(out.Diagnostics))
	})

	t.Run("nested and cyclic unions", func(t *testing.T) {
		inner := &typegraph.Union{Variants: []typegraph.Type{str()}}
		outer := &typegraph.Union{Variants: []typegraph.Type{inner, validResponse(str())}}
		inner.Variants = append(inner.Variants, outer)

		op := &typegraph.Operation{Name: "list", Parameters: []*typegraph.Parameter{cursorParam()}, ReturnType: outer}
		assert.True(t, ValidatePagination(op, diag.Nop).OK())
	})

	t.Run("inherited cursor", func(t *testing.T) {
		base := validResponse(str())
		child := &typegraph.Object{Name: "Child", Base: base}
		op := &typegraph.Operation{Name: "list", Parameters: []*typegraph.Parameter{cursorParam()}, ReturnType: child}

		assert.True(t, ValidatePagination(op, diag.Nop).OK())
	})

	t.Run("cursor not an object is accepted", func(t *testing.T) {
		op := &typegraph.Operation{
			Name:       "list",
			Parameters: []*typegraph.Parameter{cursorParam()},
			ReturnType: paginatedResponse(str()),
		}

		out := ValidatePagination(op, diag.Nop)
		assert.True(t, out.OK())
		_, ok := op.Extension(ExtPagination)
		assert.True(t, ok)
	})

	t.Run("missing next only", func(t *testing.T) {
		op := &typegraph.Operation{
			Name:       "list",
			Parameters: []*typegraph.Parameter{cursorParam()},
			ReturnType: paginatedResponse(cursorObject(dataProp(str()))),
		}

		out := ValidatePagination(op, diag.Nop)
		assert.True(t, out.Accepted)
		assert.Equal(t, []diag.Code{diag.PaginatedResponseCursorNoNext}, codes(out.Diagnostics))
		assert.Equal(t, "Cursor", out.Diagnostics[0].Target)
	})

	t.Run("missing next and data", func(t *testing.T) {
		op := &typegraph.Operation{
			Name:       "list",
			Parameters: []*typegraph.Parameter{cursorParam()},
			ReturnType: paginatedResponse(cursorObject()),
		}

		out := ValidatePagination(op, diag.Nop)
		assert.Equal(t, []diag.Code{diag.PaginatedResponseCursorNoNext, diag.PaginatedResponseCursorNoData}, codes(out.Diagnostics))
	})

	t.Run("next required and not a string", func(t *testing.T) {
		next := &typegraph.Property{Name: "next", Type: &typegraph.Primitive{Kind: typegraph.Integer}}
		op := &typegraph.Operation{
			Name:       "list",
			Parameters: []*typegraph.Parameter{cursorParam()},
			ReturnType: paginatedResponse(cursorObject(next, dataProp(str()))),
		}

		out := ValidatePagination(op, diag.Nop)
		assert.Equal(t, []diag.Code{
			diag.PaginatedResponseCursorNextNotOptional,
			diag.PaginatedResponseCursorNextNotString,
		}, codes(out.Diagnostics))
		assert.Equal(t, "next", out.Diagnostics[0].Target)
	})

	t.Run("data not an array", func(t *testing.T) {
		data := &typegraph.Property{Name: "data", Type: &typegraph.Object{Name: "Ledger"}}
		op := &typegraph.Operation{
			Name:       "list",
			Parameters: []*typegraph.Parameter{cursorParam()},
			ReturnType: paginatedResponse(cursorObject(nextProp(), data)),
		}

		out := ValidatePagination(op, diag.Nop)
		assert.Equal(t, []diag.Code{diag.PaginatedResponseCursorDataNotArray}, codes(out.Diagnostics))
		assert.True(t, out.Accepted)
	})

	t.Run("parameter and response findings accumulate", func(t *testing.T) {
		op := &typegraph.Operation{Name: "list", ReturnType: str()}
		bag := diag.NewBag()
		out := ValidatePagination(op, diag.BagReporter{Bag: bag})

		assert.Equal(t, []diag.Code{diag.MissingCursorParameter, diag.PaginatedResponseNoCursor}, codes(out.Diagnostics))
		assert.Equal(t, 2, bag.Len())
	})

	t.Run("idempotent", func(t *testing.T) {
		op := &typegraph.Operation{Name: "list", Parameters: []*typegraph.Parameter{cursorParam()}, ReturnType: paginatedResponse(cursorObject())}

		first := ValidatePagination(op, diag.Nop)
		v1, _ := op.Extension(ExtPagination)
		second := ValidatePagination(op, diag.Nop)
		v2, _ := op.Extension(ExtPagination)

		assert.Equal(t, first, second)
		assert.Equal(t, v1, v2)
	})
}
