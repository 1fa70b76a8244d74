// Package report renders a diagnostic bag for people and for tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/bndr/gotabulate"
	"github.com/fatih/color"

	"github.com/formancehq/apistd/internal/diag"
)

// Output formats.
const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatTable = "table"
)

// Formats lists the accepted values of Options.Format.
func Formats() []string {
	return []string{FormatText, FormatJSON, FormatTable}
}

// Options configures Write.
type Options struct {
	Format string
	// Color enables ANSI colors in text output.
	Color bool
}

// Write renders bag to w. The bag is expected to be sorted already.
func Write(w io.Writer, bag *diag.Bag, opts Options) error {
	switch strings.ToLower(opts.Format) {
	case "", FormatText:
		return Text(w, bag, opts.Color)
	case FormatJSON:
		return JSON(w, bag)
	case FormatTable:
		return Table(w, bag)
	}
	return fmt.Errorf("report: unknown format %q (want one of %s)", opts.Format, strings.Join(Formats(), ", "))
}

type palette struct {
	err, warn, target, summary *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:     color.New(color.FgRed, color.Bold),
		warn:    color.New(color.FgYellow, color.Bold),
		target:  color.New(color.Bold),
		summary: color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.target, p.summary} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	if s == diag.SevError {
		return p.err
	}
	return p.warn
}

// Text writes one line per diagnostic:
//
//	<target>: <severity> <code>: <message>
//
// followed by a summary line.
func Text(w io.Writer, bag *diag.Bag, useColor bool) error {
	p := newPalette(useColor)
	for _, d := range bag.Items() {
		if _, err := fmt.Fprintf(w, "%s: %s %s\n",
			p.target.Sprint(d.Target),
			p.severity(d.Severity).Sprintf("%s %s:", d.Severity, d.Code),
			d.Message); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, p.summary.Sprint(Summary(bag)))
	return err
}

// Summary is "<n> error(s), <m> warning(s)".
func Summary(bag *diag.Bag) string {
	return fmt.Sprintf("%s, %s",
		plural(bag.Count(diag.SevError), "error"),
		plural(bag.Count(diag.SevWarning), "warning"))
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// Document is the JSON shape written by JSON.
type Document struct {
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
	Count       int               `json:"count"`
	Errors      int               `json:"errors"`
	Warnings    int               `json:"warnings"`
}

func JSON(w io.Writer, bag *diag.Bag) error {
	doc := Document{
		Diagnostics: append([]diag.Diagnostic{}, bag.Items()...),
		Count:       bag.Len(),
		Errors:      bag.Count(diag.SevError),
		Warnings:    bag.Count(diag.SevWarning),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Table renders a grid with one row per diagnostic. An empty bag prints only
// the summary.
func Table(w io.Writer, bag *diag.Bag) error {
	if bag.Len() > 0 {
		rows := make([][]any, 0, bag.Len())
		for _, d := range bag.Items() {
			rows = append(rows, []any{d.Severity.String(), string(d.Code), d.Target, d.Message})
		}
		t := gotabulate.Create(rows)
		t.SetHeaders([]string{"severity", "code", "target", "message"})
		t.SetAlign("left")
		t.SetWrapStrings(true)
		t.SetMaxCellSize(60)
		if _, err := fmt.Fprint(w, t.Render("grid")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, Summary(bag))
	return err
}
