package diag

// Reporter receives diagnostics from validators and rules.
// Implementations: BagReporter, Collector, MultiReporter.
type Reporter interface {
	Report(d Diagnostic)
}

// ReportFunc adapts a plain function to Reporter.
type ReportFunc func(d Diagnostic)

func (f ReportFunc) Report(d Diagnostic) { f(d) }

// BagReporter writes into a *Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(d)
}

// Collector records what it receives and forwards to Next when set.
// Validators use it to return the diagnostics they emitted.
type Collector struct {
	Next  Reporter
	Items []Diagnostic
}

func (c *Collector) Report(d Diagnostic) {
	c.Items = append(c.Items, d)
	if c.Next != nil {
		c.Next.Report(d)
	}
}

// MultiReporter fans out to every non-nil reporter.
type MultiReporter []Reporter

func (m MultiReporter) Report(d Diagnostic) {
	for _, r := range m {
		if r != nil {
			r.Report(d)
		}
	}
}

// Nop discards everything.
var Nop Reporter = ReportFunc(func(Diagnostic) {})
