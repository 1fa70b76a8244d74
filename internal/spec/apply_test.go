package spec

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/formancehq/apistd/internal/decorators"
)

func annotateAll(p *Projection) {
	for _, op := range p.Program.Operations {
		decorators.Annotate(op)
		if op.Paginated {
			decorators.ValidatePagination(op, nil)
		}
	}
}

func TestApply(t *testing.T) {
	proj := buildLedger(t)
	annotateAll(proj)

	n, err := Apply(proj, ApplyOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	logs := proj.Doc.Paths["/v2/{ledger}/logs"].Get
	assert.Equal(t, "listLogs", logs.OperationID)
	assert.Equal(t, "ledger.ledgers", logs.Extensions[decorators.ExtGroup])
	assert.Equal(t, decorators.CursorPagination(), logs.Extensions[decorators.ExtPagination])
	assert.Equal(t, decorators.DefaultRetries(), logs.Extensions[decorators.ExtRetries])
	assert.Equal(t, true, logs.Extensions[MarkerPaginated])

	info := proj.Doc.Paths["/v2"].Get
	assert.Equal(t, "ledger_info", info.OperationID)
	assert.Equal(t, "info", info.Extensions[decorators.ExtNameOverride])
	assert.NotContains(t, info.Extensions, decorators.ExtPagination)

	create := proj.Doc.Paths["/v2/{ledger}/logs"].Post
	assert.Equal(t, "_postV2LedgerLogs", create.OperationID)
	assert.NotContains(t, create.Extensions, decorators.ExtGroup)
}

func TestApply_RemovesStaleExtensions(t *testing.T) {
	proj := buildLedger(t)
	info := proj.Doc.Paths["/v2"].Get
	info.Extensions[decorators.ExtPagination] = "stale"
	info.Extensions["x-unrelated"] = "kept"

	annotateAll(proj)
	_, err := Apply(proj, ApplyOptions{})
	require.NoError(t, err)

	assert.NotContains(t, info.Extensions, decorators.ExtPagination)
	assert.Equal(t, "kept", info.Extensions["x-unrelated"])
}

func TestApply_StripMarkers(t *testing.T) {
	proj := buildLedger(t)
	annotateAll(proj)
	_, err := Apply(proj, ApplyOptions{StripMarkers: true})
	require.NoError(t, err)

	assert.NotContains(t, proj.Doc.Extensions, MarkerGroupRoots)
	assert.NotContains(t, proj.Doc.Info.Extensions, MarkerNamespace)
	logs := proj.Doc.Paths["/v2/{ledger}/logs"].Get
	for _, key := range Markers() {
		assert.NotContains(t, logs.Extensions, key)
	}
	assert.Contains(t, logs.Extensions, decorators.ExtPagination)
}

func TestApply_RejectsInvalidExtension(t *testing.T) {
	proj := buildLedger(t)
	op := proj.Program.Operations[0]
	op.SetExtension(decorators.ExtRetries, decorators.Retries{Strategy: "sometimes"})

	_, err := Apply(proj, ApplyOptions{})
	se := requireSpecError(t, err, ValidationError)
	assert.Equal(t, op.Loc, se.JSONPointer)
	assert.NotContains(t, proj.Source(op).Extensions, decorators.ExtRetries)
}

func TestEncode(t *testing.T) {
	proj := buildLedger(t)
	annotateAll(proj)
	_, err := Apply(proj, ApplyOptions{})
	require.NoError(t, err)

	asJSON, err := Encode(proj.Doc, FormatJSON)
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(asJSON, &generic))
	assert.Equal(t, "3.0.3", generic["openapi"])

	asYAML, err := Encode(proj.Doc, FormatYAML)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(asYAML), "components:\n"), "keys are emitted in sorted order")
	assert.Contains(t, string(asYAML), `"200":`)
	assert.NotContains(t, string(asYAML), "{\"")

	var roundTrip map[string]any
	require.NoError(t, yaml.Unmarshal(asYAML, &roundTrip))
	assert.Equal(t, generic["openapi"], roundTrip["openapi"])

	again, err := Encode(proj.Doc, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, asYAML, again)

	_, err = Encode(proj.Doc, "xml")
	requireSpecError(t, err, InputError)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFromPath("out/openapi.JSON"))
	assert.Equal(t, FormatYAML, FormatFromPath("out/openapi.yaml"))
	assert.Equal(t, FormatYAML, FormatFromPath("openapi"))
}
