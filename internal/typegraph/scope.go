package typegraph

import "strings"

// ScopeKind distinguishes namespaces from interfaces.
type ScopeKind string

const (
	NamespaceScope ScopeKind = "namespace"
	InterfaceScope ScopeKind = "interface"
)

// Scope is an enclosing declaration of operations. Interfaces are always
// parented by a namespace; namespaces by their outer namespace, or nil.
type Scope struct {
	Kind   ScopeKind
	Name   string
	Parent *Scope
	// GroupRoot marks a scope whose name contributes to the client group
	// label of the operations it contains.
	GroupRoot bool
	Loc       string
}

// QualifiedName joins the names from the outermost scope down to s with ".".
func (s *Scope) QualifiedName() string {
	if s == nil {
		return ""
	}
	var parts []string
	for cur := s; cur != nil; cur = cur.Parent {
		parts = append(parts, cur.Name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}
