package typegraph

// Binding is where a parameter travels in the request.
type Binding string

const (
	Query  Binding = "query"
	Path   Binding = "path"
	Header Binding = "header"
	Cookie Binding = "cookie"
	Body   Binding = "body"
)

// Parameter is an input of an operation.
type Parameter struct {
	Name     string
	Type     Type
	Optional bool
	In       Binding
	Loc      string
}

// Operation is a callable endpoint. Hosts create operations; annotators only
// read them and write into the extension slot and OperationID.
type Operation struct {
	Name       string
	Parameters []*Parameter
	ReturnType Type
	// Interface is the enclosing interface, nil when the operation is
	// declared directly in Namespace.
	Interface *Scope
	Namespace *Scope
	// Paginated marks operations that follow the cursor pagination
	// convention and must be validated as such.
	Paginated bool
	// OperationID is the explicit operation identifier, empty when none was
	// declared.
	OperationID string
	Loc         string

	extensions map[string]any
	order      []string
}

// Parameter returns the parameter called name, or nil.
func (o *Operation) Parameter(name string) *Parameter {
	for _, p := range o.Parameters {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Scope returns the innermost enclosing scope.
func (o *Operation) Scope() *Scope {
	if o.Interface != nil {
		return o.Interface
	}
	return o.Namespace
}

// QualifiedName is the scope-qualified operation name.
func (o *Operation) QualifiedName() string {
	if q := o.Scope().QualifiedName(); q != "" {
		return q + "." + o.Name
	}
	return o.Name
}

// SetExtension attaches generator metadata under key, replacing any earlier
// value for the same key.
func (o *Operation) SetExtension(key string, value any) {
	if o.extensions == nil {
		o.extensions = make(map[string]any)
	}
	if _, ok := o.extensions[key]; !ok {
		o.order = append(o.order, key)
	}
	o.extensions[key] = value
}

// Extension returns the value stored under key.
func (o *Operation) Extension(key string) (any, bool) {
	v, ok := o.extensions[key]
	return v, ok
}

// ExtensionKeys lists keys in first-write order.
func (o *Operation) ExtensionKeys() []string {
	return append([]string(nil), o.order...)
}
