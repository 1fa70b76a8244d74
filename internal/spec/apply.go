package spec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/formancehq/apistd/internal/decorators"
	"github.com/formancehq/apistd/internal/extschema"
)

// managed are the extension keys Apply owns. A managed key present on a
// document operation but not set by the current run is removed.
var managed = []string{
	decorators.ExtPagination,
	decorators.ExtGroup,
	decorators.ExtNameOverride,
	decorators.ExtErrors,
	decorators.ExtRetries,
}

// ApplyOptions configures Apply.
type ApplyOptions struct {
	// StripMarkers removes the x-formance-* markers from the document once
	// the extensions are written.
	StripMarkers bool
}

// Apply writes the extensions and operation IDs carried by the projected
// operations back into the document. Every value is checked against its
// extension schema first; the first rejected value aborts the write with a
// ValidationError and leaves the remaining operations untouched.
func Apply(p *Projection, opts ApplyOptions) (int, error) {
	if p == nil || p.Program == nil {
		return 0, &SpecError{Code: InputError, Message: "spec: nil projection"}
	}
	written := 0
	for _, op := range p.Program.Operations {
		src := p.Source(op)
		if src == nil {
			continue
		}
		keys := op.ExtensionKeys()
		for _, key := range keys {
			value, _ := op.Extension(key)
			if err := extschema.Validate(key, value); err != nil {
				return written, &SpecError{
					Code:        ValidationError,
					Message:     fmt.Sprintf("spec: %s on %s: %v", key, op.QualifiedName(), err),
					JSONPointer: op.Loc,
					Cause:       err,
				}
			}
		}

		if src.Extensions == nil {
			src.Extensions = map[string]interface{}{}
		}
		for _, key := range managed {
			if _, ok := op.Extension(key); !ok {
				delete(src.Extensions, key)
			}
		}
		for _, key := range keys {
			value, _ := op.Extension(key)
			src.Extensions[key] = value
		}
		if op.OperationID != "" {
			src.OperationID = op.OperationID
		}
		if opts.StripMarkers {
			stripMarkers(src.Extensions)
		}
		written++
	}

	if opts.StripMarkers {
		stripMarkers(p.Doc.Extensions)
		if p.Doc.Info != nil {
			stripMarkers(p.Doc.Info.Extensions)
		}
	}
	return written, nil
}

func stripMarkers(exts map[string]interface{}) {
	for _, key := range Markers() {
		delete(exts, key)
	}
}

// Output formats understood by Encode.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// FormatFromPath picks the output format from a file extension, defaulting
// to YAML.
func FormatFromPath(path string) string {
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Encode serializes doc. Keys come out in the order kin-openapi marshals
// them, so two encodings of the same document are byte-identical.
func Encode(doc *openapi3.T, format string) ([]byte, error) {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, &SpecError{Code: ConversionError, Message: fmt.Sprintf("encode: %v", err), Cause: err}
	}
	switch strings.ToLower(format) {
	case FormatJSON:
		return append(raw, '\n'), nil
	case FormatYAML, "yml", "":
	default:
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("spec: unknown output format %q (want yaml or json)", format)}
	}

	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, &SpecError{Code: ConversionError, Message: fmt.Sprintf("encode yaml: %v", err), Cause: err}
	}
	blockStyle(&node)
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, &SpecError{Code: ConversionError, Message: fmt.Sprintf("encode yaml: %v", err), Cause: err}
	}
	if err := enc.Close(); err != nil {
		return nil, &SpecError{Code: ConversionError, Message: fmt.Sprintf("encode yaml: %v", err), Cause: err}
	}
	return buf.Bytes(), nil
}

// blockStyle clears the flow and quoting styles JSON input leaves on nodes.
// The encoder re-quotes scalars that would otherwise change type.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
