package decorators

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/formancehq/apistd/internal/typegraph"
)

// ResolveGroups returns the lowercased names of the group roots enclosing
// scope, outermost first. Scopes that are not group roots are skipped but
// their parents are still visited.
func ResolveGroups(scope *typegraph.Scope) []string {
	if scope == nil {
		return []string{}
	}
	groups := ResolveGroups(scope.Parent)
	if scope.GroupRoot {
		groups = append(groups, cases.Lower(language.Und).String(scope.Name))
	}
	return groups
}
