// Package diag defines the diagnostic catalog and the plumbing validators use
// to emit findings.
//
// Every code a validator or lint rule may raise is declared in codes.go
// together with its severity and default message. Producers never build
// messages themselves: they call New(code, target) and hand the result to a
// Reporter. A Bag collects a whole pass so the CLI can sort, deduplicate and
// render it.
//
// Package diag performs no formatting or IO; rendering lives in
// internal/report.
package diag
