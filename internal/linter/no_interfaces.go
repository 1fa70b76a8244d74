package linter

import (
	"github.com/formancehq/apistd/internal/diag"
	"github.com/formancehq/apistd/internal/typegraph"
)

// NoInterfaces flags every interface declaration.
type NoInterfaces struct{}

func (NoInterfaces) Name() string { return "no-interfaces" }

func (NoInterfaces) Description() string {
	return "Operations should be declared in namespaces, not interfaces."
}

func (NoInterfaces) Create(r diag.Reporter) typegraph.Listener {
	return typegraph.Listener{
		Interface: func(iface *typegraph.Scope) {
			r.Report(diag.New(diag.NoInterfaces, iface.Ref()))
		},
	}
}
