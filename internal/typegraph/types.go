package typegraph

// Type is a node of the type graph. The set of implementations is closed:
// *Object, *Union, *Array and *Primitive.
type Type interface {
	Node
	isType()
}

// PrimitiveKind names a scalar base type.
type PrimitiveKind string

const (
	String  PrimitiveKind = "string"
	Integer PrimitiveKind = "integer"
	Number  PrimitiveKind = "number"
	Boolean PrimitiveKind = "boolean"
	Void    PrimitiveKind = "void"
	Unknown PrimitiveKind = "unknown"
)

// Primitive is a scalar. Name is set for named scalars (for example a
// string-based "Cursor" scalar) and empty for the builtin ones.
type Primitive struct {
	Kind PrimitiveKind
	Name string
	Loc  string
}

// Property is a named member of an Object.
type Property struct {
	Name     string
	Type     Type
	Optional bool
	Loc      string
}

// Object is a model with named properties and an optional base model whose
// properties it inherits.
type Object struct {
	Name       string
	Properties []*Property
	Base       *Object
	Loc        string
}

// Union is a choice between variants, in declaration order.
type Union struct {
	Name     string
	Variants []Type
	Loc      string
}

// Array is a list of Elem.
type Array struct {
	Elem Type
	Loc  string
}

func (*Primitive) isType() {}
func (*Object) isType()    {}
func (*Union) isType()     {}
func (*Array) isType()     {}

// Property returns the own property called name, or nil.
func (o *Object) Property(name string) *Property {
	for _, p := range o.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// WalkPropertiesInherited calls fn for own properties first, then for each
// base in turn, stopping when fn returns false. Bases already visited are not
// walked again.
func (o *Object) WalkPropertiesInherited(fn func(*Property) bool) {
	seen := map[*Object]struct{}{}
	for cur := o; cur != nil; cur = cur.Base {
		if _, ok := seen[cur]; ok {
			return
		}
		seen[cur] = struct{}{}
		for _, p := range cur.Properties {
			if !fn(p) {
				return
			}
		}
	}
}

// FindPropertyInherited returns the first property called name in
// WalkPropertiesInherited order, so own properties shadow inherited ones.
func (o *Object) FindPropertyInherited(name string) *Property {
	var found *Property
	o.WalkPropertiesInherited(func(p *Property) bool {
		if p.Name == name {
			found = p
			return false
		}
		return true
	})
	return found
}

// IsString reports whether t is a string primitive, named or not.
func IsString(t Type) bool {
	p, ok := t.(*Primitive)
	return ok && p.Kind == String
}

// IsArray reports whether t is an array.
func IsArray(t Type) bool {
	_, ok := t.(*Array)
	return ok
}

// AsObject returns t as an object, or nil.
func AsObject(t Type) *Object {
	o, _ := t.(*Object)
	return o
}
