package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/formancehq/apistd/internal/diag"
	"github.com/formancehq/apistd/internal/logging"
	"github.com/formancehq/apistd/internal/pipeline"
	"github.com/formancehq/apistd/internal/report"
	"github.com/formancehq/apistd/internal/spec"
)

var checkRunner = runCheck

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate and lint an OpenAPI/Swagger document",
		Long: "Validate cursor pagination on operations marked x-formance-paginated and run " +
			"the linter. Exits with an error when any error diagnostic is reported.",
		Example: strings.TrimSpace(`  apistd check --input openapi.yaml
  apistd check --input openapi.yaml --rule-set all --format table
  APISTD_INPUT=openapi.yaml apistd check --format json`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.validate("check"); err != nil {
				return err
			}
			return checkRunner(cmd.Context(), cfg)
		},
	}
	registerCommonFlags(cmd.Flags())
	return cmd
}

func runCheck(ctx context.Context, cfg *Config) error {
	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	_, res, err := compile(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := writeDiagnostics(cfg, res); err != nil {
		return err
	}
	if res.Diagnostics.HasErrors() {
		return ErrDiagnostics
	}
	return nil
}

func newLogger(cfg *Config) *zap.Logger {
	return logging.New(logging.Options{Verbose: cfg.Verbose, Level: cfg.LogLevel, Output: cfg.stderr})
}

// compile loads the document, projects it and runs one pipeline pass.
func compile(ctx context.Context, cfg *Config, log *zap.Logger) (*spec.Projection, *pipeline.Result, error) {
	opts := []spec.Option{spec.WithStrict(cfg.Strict)}
	if cfg.HTTPTimeout > 0 {
		opts = append(opts, spec.WithHTTPTimeout(cfg.HTTPTimeout))
	}
	doc, err := spec.Load(ctx, cfg.Input, opts...)
	if err != nil {
		return nil, nil, specUsageError(err)
	}
	log.Debug("loaded document", zap.String("input", cfg.Input), zap.String("openapi", doc.OpenAPI))

	proj, err := spec.BuildProgram(ctx, doc)
	if err != nil {
		return nil, nil, specUsageError(err)
	}
	log.Debug("projected document",
		zap.Int("operations", len(proj.Program.Operations)),
		zap.Int("namespaces", len(proj.Program.Namespaces)),
		zap.Int("interfaces", len(proj.Program.Interfaces)))

	res, err := pipeline.Run(proj.Program, pipeline.Options{
		RuleSet: cfg.RuleSet,
		Enable:  cfg.Enable,
		Disable: cfg.Disable,
		Logger:  log,
	})
	if err != nil {
		return nil, nil, newUsageError(err.Error())
	}
	log.Info("pipeline complete",
		zap.Int("errors", res.Diagnostics.Count(diag.SevError)),
		zap.Int("diagnostics", res.Diagnostics.Len()))
	return proj, res, nil
}

func writeDiagnostics(cfg *Config, res *pipeline.Result) error {
	return report.Write(cfg.stdout, res.Diagnostics, report.Options{
		Format: cfg.Format,
		Color:  !cfg.NoColor && !color.NoColor,
	})
}

// specUsageError maps structured loader errors into friendly messages.
func specUsageError(err error) error {
	var se *spec.SpecError
	if !errors.As(err, &se) {
		return err
	}
	msg := se.Message
	if !strings.HasPrefix(msg, "spec:") {
		msg = "spec: " + msg
	}
	if se.Location != "" {
		msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
	}
	if se.JSONPointer != "" {
		msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
	}
	return newUsageError(msg)
}
