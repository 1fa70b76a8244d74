package typegraph

// Program is the declarative model handed to annotators, validators and
// lint rules. Slices keep declaration order.
type Program struct {
	Namespaces []*Scope
	Interfaces []*Scope
	Operations []*Operation
	Models     []*Object
}

// Listener receives declarations from Walk. Nil callbacks are skipped.
type Listener struct {
	Namespace func(*Scope)
	Interface func(*Scope)
	Operation func(*Operation)
	Model     func(*Object)
}

// Walk visits namespaces, interfaces, models and operations, in that order.
func (p *Program) Walk(l Listener) {
	if p == nil {
		return
	}
	if l.Namespace != nil {
		for _, ns := range p.Namespaces {
			l.Namespace(ns)
		}
	}
	if l.Interface != nil {
		for _, iface := range p.Interfaces {
			l.Interface(iface)
		}
	}
	if l.Model != nil {
		for _, m := range p.Models {
			l.Model(m)
		}
	}
	if l.Operation != nil {
		for _, op := range p.Operations {
			l.Operation(op)
		}
	}
}

// Scope returns the namespace or interface with the given qualified name.
func (p *Program) Scope(qualified string) *Scope {
	for _, ns := range p.Namespaces {
		if ns.QualifiedName() == qualified {
			return ns
		}
	}
	for _, iface := range p.Interfaces {
		if iface.QualifiedName() == qualified {
			return iface
		}
	}
	return nil
}
