package diag

import "fmt"

// Diagnostic is a single finding reported against a declaration.
// Target is the stable reference of the offending node (see typegraph.Node).
type Diagnostic struct {
	Code     Code     `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Target   string   `json:"target"`
}

// New builds a diagnostic from the catalog. Unknown codes are reported as
// errors carrying the bare code as message.
func New(code Code, target string) Diagnostic {
	def, ok := Lookup(code)
	if !ok {
		return Diagnostic{Code: code, Severity: SevError, Message: string(code), Target: target}
	}
	return Diagnostic{Code: code, Severity: def.Severity, Message: def.Message, Target: target}
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s %s: %s", d.Target, d.Severity, d.Code, d.Message)
}
