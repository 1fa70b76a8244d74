package typegraph

import "strings"

// Node is anything a diagnostic can point at. Ref returns a stable,
// human-readable reference: the source location when the host recorded one,
// else a name derived from the declaration.
type Node interface {
	Ref() string
}

func (p *Primitive) Ref() string {
	return pick(p.Loc, p.Name, string(p.Kind))
}

func (p *Property) Ref() string { return pick(p.Loc, p.Name) }

func (o *Object) Ref() string { return pick(o.Loc, o.Name, "{}") }

func (u *Union) Ref() string {
	if u.Loc != "" || u.Name != "" {
		return pick(u.Loc, u.Name)
	}
	parts := make([]string, 0, len(u.Variants))
	for _, v := range u.Variants {
		parts = append(parts, v.Ref())
	}
	return strings.Join(parts, " | ")
}

func (a *Array) Ref() string {
	if a.Loc != "" {
		return a.Loc
	}
	if a.Elem == nil {
		return "[]"
	}
	return a.Elem.Ref() + "[]"
}

func (s *Scope) Ref() string { return pick(s.Loc, s.QualifiedName()) }

func (o *Operation) Ref() string { return pick(o.Loc, o.QualifiedName()) }

func (p *Parameter) Ref() string { return pick(p.Loc, p.Name) }

func pick(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}
