package pipeline

import (
	"go.uber.org/zap"

	"github.com/formancehq/apistd/internal/decorators"
	"github.com/formancehq/apistd/internal/diag"
	"github.com/formancehq/apistd/internal/linter"
	"github.com/formancehq/apistd/internal/typegraph"
)

// Options configures a run.
type Options struct {
	// RuleSet selects the linter rule set; empty disables linting.
	RuleSet string
	// Enable and Disable adjust the rule set by rule name.
	Enable  []string
	Disable []string
	Logger  *zap.Logger
}

// Result summarizes a run.
type Result struct {
	Diagnostics *diag.Bag
	Annotated   int
	Paginated   int
}

// Run performs one compilation pass over p: every operation is annotated,
// paginated operations are validated, then the linter runs. Diagnostics are
// deduplicated and sorted.
func Run(p *typegraph.Program, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	l, err := linter.New(opts.RuleSet)
	if err != nil {
		return nil, err
	}
	for _, name := range opts.Enable {
		if err := l.Enable(name); err != nil {
			return nil, err
		}
	}
	for _, name := range opts.Disable {
		if err := l.Disable(name); err != nil {
			return nil, err
		}
	}

	res := &Result{Diagnostics: diag.NewBag()}
	r := diag.BagReporter{Bag: res.Diagnostics}

	for _, op := range p.Operations {
		decorators.Annotate(op)
		res.Annotated++
		log.Debug("annotated operation",
			zap.String("operation", op.QualifiedName()),
			zap.String("operation_id", op.OperationID))

		if !op.Paginated {
			continue
		}
		res.Paginated++
		out := decorators.ValidatePagination(op, r)
		log.Debug("validated pagination",
			zap.String("operation", op.QualifiedName()),
			zap.Bool("accepted", out.Accepted),
			zap.Int("diagnostics", len(out.Diagnostics)))
	}

	l.Lint(p, r)
	log.Debug("linted program",
		zap.Strings("rules", l.Enabled()),
		zap.Int("interfaces", len(p.Interfaces)))

	res.Diagnostics.Dedup()
	res.Diagnostics.Sort()
	return res, nil
}
