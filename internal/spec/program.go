package spec

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/formancehq/apistd/internal/decorators"
	"github.com/formancehq/apistd/internal/typegraph"
)

// Projection pairs a document with the type graph built from it. Operations
// of the graph map back to the document operations they came from, which is
// where Apply writes extensions.
type Projection struct {
	Doc     *openapi3.T
	Program *typegraph.Program

	ops map[*typegraph.Operation]*openapi3.Operation
}

// Source returns the document operation op was built from.
func (p *Projection) Source(op *typegraph.Operation) *openapi3.Operation {
	return p.ops[op]
}

// BuildProgram projects doc into a type graph. Component schemas become
// models, operations are placed in the namespace and interface named by
// their markers, and scopes listed under x-formance-group-roots are marked
// as group roots.
func BuildProgram(ctx context.Context, doc *openapi3.T) (*Projection, error) {
	if doc == nil {
		return nil, &SpecError{Code: InputError, Message: "spec: nil document"}
	}
	b := &builder{
		doc:    doc,
		prog:   &typegraph.Program{},
		scopes: map[string]*typegraph.Scope{},
		types:  map[*openapi3.Schema]typegraph.Type{},
		ops:    map[*typegraph.Operation]*openapi3.Operation{},
	}
	b.components()
	if err := b.operations(ctx); err != nil {
		return nil, err
	}
	if err := b.groupRoots(); err != nil {
		return nil, err
	}
	return &Projection{Doc: doc, Program: b.prog, ops: b.ops}, nil
}

type builder struct {
	doc    *openapi3.T
	prog   *typegraph.Program
	scopes map[string]*typegraph.Scope
	types  map[*openapi3.Schema]typegraph.Type
	ops    map[*typegraph.Operation]*openapi3.Operation
}

type methodOp struct {
	method string
	op     *openapi3.Operation
}

func pathMethods(item *openapi3.PathItem) []methodOp {
	return []methodOp{
		{"get", item.Get},
		{"post", item.Post},
		{"put", item.Put},
		{"delete", item.Delete},
		{"patch", item.Patch},
		{"head", item.Head},
		{"options", item.Options},
		{"trace", item.Trace},
	}
}

func (b *builder) components() {
	if b.doc.Components == nil {
		return
	}
	names := make([]string, 0, len(b.doc.Components.Schemas))
	for name := range b.doc.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ref := b.doc.Components.Schemas[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		t := b.named(ref.Value, name, "#/components/schemas/"+escapePointer(name))
		if obj, ok := t.(*typegraph.Object); ok {
			b.prog.Models = append(b.prog.Models, obj)
		}
	}
}

func (b *builder) operations(ctx context.Context) error {
	paths := make([]string, 0, len(b.doc.Paths))
	for p := range b.doc.Paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		item := b.doc.Paths[path]
		if item == nil {
			continue
		}
		itemLoc := "#/paths/" + escapePointer(path)
		for _, m := range pathMethods(item) {
			if m.op == nil {
				continue
			}
			b.operation(item, itemLoc, path, m.method, m.op)
		}
	}
	return nil
}

func (b *builder) operation(item *openapi3.PathItem, itemLoc, path, method string, src *openapi3.Operation) {
	loc := itemLoc + "/" + method
	op := &typegraph.Operation{
		Name:        operationName(src, method, path),
		Paginated:   extBool(src.Extensions, MarkerPaginated),
		OperationID: strings.TrimSpace(src.OperationID),
		Loc:         loc,
	}

	nsPath := extString(src.Extensions, MarkerNamespace)
	nsLoc := loc + "/" + escapePointer(MarkerNamespace)
	if nsPath == "" && b.doc.Info != nil {
		nsPath = extString(b.doc.Info.Extensions, MarkerNamespace)
		nsLoc = "#/info/" + escapePointer(MarkerNamespace)
	}
	op.Namespace = b.namespace(nsPath, nsLoc)
	if name := extString(src.Extensions, MarkerInterface); name != "" {
		op.Interface = b.iface(op.Namespace, name, loc+"/"+escapePointer(MarkerInterface))
	}

	op.Parameters = b.parameters(item, itemLoc, src, loc)
	op.ReturnType = b.returnType(src, loc)

	b.prog.Operations = append(b.prog.Operations, op)
	b.ops[op] = src
}

// operationName prefers the name marker, then the name override left by a
// previous annotation, then operationId, then a name built from the method
// and the literal path segments. On an annotated document operationId is
// group-qualified and must not be read back as the name.
func operationName(src *openapi3.Operation, method, path string) string {
	if name := extString(src.Extensions, MarkerName); name != "" {
		return name
	}
	if name := extString(src.Extensions, decorators.ExtNameOverride); name != "" {
		return name
	}
	if id := strings.TrimSpace(src.OperationID); id != "" {
		return id
	}
	title := cases.Title(language.Und, cases.NoLower)
	var sb strings.Builder
	sb.WriteString(strings.ToLower(method))
	for _, seg := range strings.Split(path, "/") {
		seg = strings.Trim(seg, "{}")
		for _, word := range strings.FieldsFunc(seg, func(r rune) bool {
			return r == '-' || r == '_' || r == '.'
		}) {
			sb.WriteString(title.String(word))
		}
	}
	return sb.String()
}

// namespace returns the scope for a dotted path, creating missing levels.
func (b *builder) namespace(dotted, loc string) *typegraph.Scope {
	var parent *typegraph.Scope
	for _, name := range strings.Split(dotted, ".") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		qualified := name
		if parent != nil {
			qualified = parent.QualifiedName() + "." + name
		}
		s, ok := b.scopes[qualified]
		if !ok {
			s = &typegraph.Scope{Kind: typegraph.NamespaceScope, Name: name, Parent: parent, Loc: loc}
			b.scopes[qualified] = s
			b.prog.Namespaces = append(b.prog.Namespaces, s)
		}
		parent = s
	}
	return parent
}

func (b *builder) iface(ns *typegraph.Scope, name, loc string) *typegraph.Scope {
	qualified := name
	if ns != nil {
		qualified = ns.QualifiedName() + "." + name
	}
	if s, ok := b.scopes[qualified]; ok {
		return s
	}
	s := &typegraph.Scope{Kind: typegraph.InterfaceScope, Name: name, Parent: ns, Loc: loc}
	b.scopes[qualified] = s
	b.prog.Interfaces = append(b.prog.Interfaces, s)
	return s
}

func (b *builder) groupRoots() error {
	for _, name := range extStrings(b.doc.Extensions, MarkerGroupRoots) {
		s, ok := b.scopes[name]
		if !ok {
			return &SpecError{
				Code:        ValidationError,
				Message:     fmt.Sprintf("spec: group root %q matches no namespace or interface", name),
				JSONPointer: "#/" + escapePointer(MarkerGroupRoots),
			}
		}
		s.GroupRoot = true
	}
	return nil
}

// parameters merges path-level and operation-level parameters. Operation
// parameters replace path parameters with the same name and location.
// Properties of an object request body become body parameters.
func (b *builder) parameters(item *openapi3.PathItem, itemLoc string, src *openapi3.Operation, loc string) []*typegraph.Parameter {
	var out []*typegraph.Parameter
	index := map[string]int{}
	add := func(refs openapi3.Parameters, base string) {
		for i, ref := range refs {
			if ref == nil || ref.Value == nil {
				continue
			}
			p := ref.Value
			ploc := fmt.Sprintf("%s/parameters/%d", base, i)
			param := &typegraph.Parameter{
				Name:     p.Name,
				Type:     b.parameterType(p, ploc),
				Optional: !p.Required,
				In:       typegraph.Binding(strings.ToLower(p.In)),
				Loc:      ploc,
			}
			key := string(param.In) + "/" + param.Name
			if at, ok := index[key]; ok {
				out[at] = param
				continue
			}
			index[key] = len(out)
			out = append(out, param)
		}
	}
	add(item.Parameters, itemLoc)
	add(src.Parameters, loc)

	if src.RequestBody == nil || src.RequestBody.Value == nil {
		return out
	}
	body := src.RequestBody.Value
	bodyLoc := loc + "/requestBody"
	schema, schemaLoc := pickMedia(body.Content, bodyLoc)
	if schema == nil {
		return out
	}
	t := b.typeOf(schema, schemaLoc)
	if obj := typegraph.AsObject(t); obj != nil {
		obj.WalkPropertiesInherited(func(prop *typegraph.Property) bool {
			out = append(out, &typegraph.Parameter{
				Name:     prop.Name,
				Type:     prop.Type,
				Optional: prop.Optional || !body.Required,
				In:       typegraph.Body,
				Loc:      prop.Loc,
			})
			return true
		})
		return out
	}
	return append(out, &typegraph.Parameter{
		Name:     "body",
		Type:     t,
		Optional: !body.Required,
		In:       typegraph.Body,
		Loc:      bodyLoc,
	})
}

func (b *builder) parameterType(p *openapi3.Parameter, loc string) typegraph.Type {
	if p.Schema != nil {
		return b.typeOf(p.Schema, loc+"/schema")
	}
	if schema, schemaLoc := pickMedia(p.Content, loc); schema != nil {
		return b.typeOf(schema, schemaLoc)
	}
	return &typegraph.Primitive{Kind: typegraph.Unknown, Loc: loc}
}

// returnType is the union of the JSON bodies of the 2xx responses, a single
// type when there is only one, and void when there are none.
func (b *builder) returnType(src *openapi3.Operation, loc string) typegraph.Type {
	codes := make([]string, 0, len(src.Responses))
	for code := range src.Responses {
		if strings.HasPrefix(code, "2") {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)

	var variants []typegraph.Type
	for _, code := range codes {
		ref := src.Responses[code]
		if ref == nil || ref.Value == nil {
			continue
		}
		schema, schemaLoc := pickMedia(ref.Value.Content, loc+"/responses/"+escapePointer(code))
		if schema == nil {
			continue
		}
		variants = append(variants, b.typeOf(schema, schemaLoc))
	}
	switch len(variants) {
	case 0:
		return &typegraph.Primitive{Kind: typegraph.Void, Loc: loc + "/responses"}
	case 1:
		return variants[0]
	}
	return &typegraph.Union{Variants: variants, Loc: loc + "/responses"}
}

// pickMedia returns the JSON schema of content, falling back to the first
// media type in lexical order.
func pickMedia(content openapi3.Content, base string) (*openapi3.SchemaRef, string) {
	if len(content) == 0 {
		return nil, ""
	}
	types := make([]string, 0, len(content))
	for mt := range content {
		types = append(types, mt)
	}
	sort.Strings(types)
	chosen := types[0]
	for _, mt := range types {
		if mt == "application/json" || strings.HasSuffix(mt, "+json") {
			chosen = mt
			break
		}
	}
	media := content[chosen]
	if media == nil || media.Schema == nil {
		return nil, ""
	}
	return media.Schema, base + "/content/" + escapePointer(chosen) + "/schema"
}

func (b *builder) typeOf(ref *openapi3.SchemaRef, loc string) typegraph.Type {
	if ref == nil || ref.Value == nil {
		return &typegraph.Primitive{Kind: typegraph.Unknown, Loc: loc}
	}
	if t, ok := b.types[ref.Value]; ok {
		return t
	}
	name := ""
	if ref.Ref != "" {
		loc = ref.Ref
		if i := strings.LastIndex(ref.Ref, "/"); i >= 0 {
			name = strings.NewReplacer("~1", "/", "~0", "~").Replace(ref.Ref[i+1:])
		}
	}
	return b.named(ref.Value, name, loc)
}

// named converts s. Types are registered before their members are built so
// recursive schemas resolve to the same node.
func (b *builder) named(s *openapi3.Schema, name, loc string) typegraph.Type {
	if t, ok := b.types[s]; ok {
		return t
	}
	switch {
	case len(s.OneOf) > 0 || len(s.AnyOf) > 0:
		u := &typegraph.Union{Name: name, Loc: loc}
		b.types[s] = u
		members, key := s.OneOf, "oneOf"
		if len(members) == 0 {
			members, key = s.AnyOf, "anyOf"
		}
		for i, m := range members {
			u.Variants = append(u.Variants, b.typeOf(m, fmt.Sprintf("%s/%s/%d", loc, key, i)))
		}
		return u

	case s.Type == "object" || len(s.Properties) > 0 || len(s.AllOf) > 0:
		obj := &typegraph.Object{Name: name, Loc: loc}
		b.types[s] = obj
		for i, m := range s.AllOf {
			member := typegraph.AsObject(b.typeOf(m, fmt.Sprintf("%s/allOf/%d", loc, i)))
			if member == nil {
				continue
			}
			if obj.Base == nil && m.Ref != "" {
				obj.Base = member
				continue
			}
			for _, p := range member.Properties {
				if obj.Property(p.Name) == nil {
					obj.Properties = append(obj.Properties, p)
				}
			}
		}
		b.properties(obj, s, loc)
		return obj

	case s.Type == "array":
		arr := &typegraph.Array{Loc: loc}
		b.types[s] = arr
		arr.Elem = b.typeOf(s.Items, loc+"/items")
		return arr
	}

	p := &typegraph.Primitive{Kind: primitiveKind(s.Type), Name: name, Loc: loc}
	b.types[s] = p
	return p
}

func (b *builder) properties(obj *typegraph.Object, s *openapi3.Schema, loc string) {
	required := map[string]bool{}
	for _, r := range s.Required {
		required[r] = true
	}
	names := make([]string, 0, len(s.Properties))
	for n := range s.Properties {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		ploc := loc + "/properties/" + escapePointer(n)
		prop := &typegraph.Property{
			Name:     n,
			Type:     b.typeOf(s.Properties[n], ploc),
			Optional: !required[n],
			Loc:      ploc,
		}
		if i := propertyIndex(obj, n); i >= 0 {
			obj.Properties[i] = prop
			continue
		}
		obj.Properties = append(obj.Properties, prop)
	}
}

func propertyIndex(obj *typegraph.Object, name string) int {
	for i, p := range obj.Properties {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func primitiveKind(t string) typegraph.PrimitiveKind {
	switch t {
	case "string":
		return typegraph.String
	case "integer":
		return typegraph.Integer
	case "number":
		return typegraph.Number
	case "boolean":
		return typegraph.Boolean
	}
	return typegraph.Unknown
}

func escapePointer(s string) string {
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(s)
}
