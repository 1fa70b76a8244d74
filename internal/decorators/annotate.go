package decorators

import (
	"strings"

	"github.com/formancehq/apistd/internal/typegraph"
)

// Annotate stamps the client generator metadata every operation carries:
// group label, name override, error scope, operation ID and retry policy.
// Running it twice leaves the operation unchanged.
func Annotate(op *typegraph.Operation) {
	groups := ResolveGroups(op.Scope())

	if len(groups) > 0 {
		op.SetExtension(ExtGroup, strings.Join(groups, "."))
	}
	op.SetExtension(ExtNameOverride, op.Name)
	op.SetExtension(ExtErrors, DefaultErrors())

	if op.OperationID == "" {
		op.OperationID = OperationID(groups, op.Name)
	}

	op.SetExtension(ExtRetries, DefaultRetries())
}

// OperationID synthesizes "<groups joined by _>_<name>". With no groups the
// result keeps its leading underscore.
func OperationID(groups []string, name string) string {
	return strings.Join(groups, "_") + "_" + name
}
