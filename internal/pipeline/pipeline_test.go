package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/formancehq/apistd/internal/decorators"
	"github.com/formancehq/apistd/internal/diag"
	"github.com/formancehq/apistd/internal/linter"
	"github.com/formancehq/apistd/internal/typegraph"
)

func sample() *typegraph.Program {
	str := &typegraph.Primitive{Kind: typegraph.String}
	ns := &typegraph.Scope{Kind: typegraph.NamespaceScope, Name: "Ledger", GroupRoot: true}
	iface := &typegraph.Scope{Kind: typegraph.InterfaceScope, Name: "Ledgers", Parent: ns, GroupRoot: true}

	list := &typegraph.Operation{
		Name:      "list",
		Interface: iface,
		Namespace: ns,
		Paginated: true,
		Parameters: []*typegraph.Parameter{
			{Name: "cursor", Type: str, Optional: true, In: typegraph.Query},
		},
		ReturnType: &typegraph.Object{Name: "LedgerList", Properties: []*typegraph.Property{
			{Name: "cursor", Type: &typegraph.Object{Name: "Cursor", Properties: []*typegraph.Property{
				{Name: "next", Type: str, Optional: true},
				{Name: "data", Type: &typegraph.Array{Elem: str}},
			}}},
		}},
	}
	broken := &typegraph.Operation{
		Name:       "listLogs",
		Namespace:  ns,
		Paginated:  true,
		ReturnType: str,
	}
	info := &typegraph.Operation{Name: "info", Namespace: ns}

	return &typegraph.Program{
		Namespaces: []*typegraph.Scope{ns},
		Interfaces: []*typegraph.Scope{iface},
		Operations: []*typegraph.Operation{list, broken, info},
	}
}

func TestRun(t *testing.T) {
	t.Run("full pass", func(t *testing.T) {
		p := sample()
		res, err := Run(p, Options{RuleSet: linter.SetRecommended})
		require.NoError(t, err)

		assert.Equal(t, 3, res.Annotated)
		assert.Equal(t, 2, res.Paginated)

		var got []diag.Code
		for _, d := range res.Diagnostics.Items() {
			got = append(got, d.Code)
		}
		assert.ElementsMatch(t, []diag.Code{
			diag.NoInterfaces,
			diag.MissingCursorParameter,
			diag.PaginatedResponseNoCursor,
		}, got)

		_, ok := p.Operations[0].Extension(decorators.ExtPagination)
		assert.True(t, ok)
		assert.Equal(t, "ledger_ledgers_list", p.Operations[0].OperationID)
		assert.Equal(t, "ledger_info", p.Operations[2].OperationID)
	})

	t.Run("lint disabled", func(t *testing.T) {
		res, err := Run(sample(), Options{})
		require.NoError(t, err)
		assert.Equal(t, 0, res.Diagnostics.Count(diag.SevWarning))
	})

	t.Run("rule disabled by name", func(t *testing.T) {
		res, err := Run(sample(), Options{RuleSet: linter.SetAll, Disable: []string{"no-interfaces"}})
		require.NoError(t, err)
		assert.Equal(t, 0, res.Diagnostics.Count(diag.SevWarning))
	})

	t.Run("unknown rule", func(t *testing.T) {
		_, err := Run(sample(), Options{Enable: []string{"nope"}})
		assert.Error(t, err)
	})

	t.Run("second run gives the same diagnostics", func(t *testing.T) {
		p := sample()
		first, err := Run(p, Options{RuleSet: linter.SetAll})
		require.NoError(t, err)
		second, err := Run(p, Options{RuleSet: linter.SetAll})
		require.NoError(t, err)
		assert.Equal(t, first.Diagnostics.Items(), second.Diagnostics.Items())
	})
}

func TestRunLogsDecisions(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	_, err := Run(sample(), Options{RuleSet: linter.SetRecommended, Logger: zap.New(core)})
	require.NoError(t, err)

	assert.Equal(t, 3, logs.FilterMessage("annotated operation").Len())
	validated := logs.FilterMessage("validated pagination").All()
	require.Len(t, validated, 2)
	assert.Equal(t, true, validated[0].ContextMap()["accepted"])
	assert.Equal(t, false, validated[1].ContextMap()["accepted"])
	assert.Equal(t, 1, logs.FilterMessage("linted program").Len())
}

func TestRunReportsSharedCursorOnce(t *testing.T) {
	str := &typegraph.Primitive{Kind: typegraph.String}
	ns := &typegraph.Scope{Kind: typegraph.NamespaceScope, Name: "Ledger"}
	cursor := &typegraph.Object{
		Name: "Cursor",
		Loc:  "#/components/schemas/Cursor",
		Properties: []*typegraph.Property{
			{Name: "data", Type: &typegraph.Array{Elem: str}},
		},
	}
	response := &typegraph.Object{Name: "CursorResponse", Properties: []*typegraph.Property{
		{Name: "cursor", Type: cursor},
	}}
	paginated := func(name string) *typegraph.Operation {
		return &typegraph.Operation{
			Name:      name,
			Namespace: ns,
			Paginated: true,
			Parameters: []*typegraph.Parameter{
				{Name: "cursor", Type: str, Optional: true, In: typegraph.Query},
			},
			ReturnType: response,
		}
	}
	p := &typegraph.Program{
		Namespaces: []*typegraph.Scope{ns},
		Operations: []*typegraph.Operation{paginated("listLogs"), paginated("listAccounts")},
	}

	res, err := Run(p, Options{})
	require.NoError(t, err)

	require.Equal(t, 1, res.Diagnostics.Len())
	d := res.Diagnostics.Items()[0]
	assert.Equal(t, diag.PaginatedResponseCursorNoNext, d.Code)
	assert.Equal(t, "#/components/schemas/Cursor", d.Target)

	for _, op := range p.Operations {
		out := decorators.ValidatePagination(op, diag.ReportFunc(func(diag.Diagnostic) {}))
		assert.True(t, out.Accepted)
		require.Len(t, out.Diagnostics, 1, op.Name)
		assert.Equal(t, diag.PaginatedResponseCursorNoNext, out.Diagnostics[0].Code)
	}
}
