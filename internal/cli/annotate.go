package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/formancehq/apistd/internal/spec"
)

var annotateRunner = runAnnotate

func newAnnotateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Write SDK generator extensions into an OpenAPI/Swagger document",
		Long: "Run check, then write x-speakeasy-* extensions and operation IDs into the " +
			"document. Nothing is written when error diagnostics are reported.",
		Example: strings.TrimSpace(`  apistd annotate --input openapi.yaml --out build/openapi.yaml
  apistd annotate --input openapi.yaml --out - --output-format json
  apistd --config apistd.toml annotate --force --strip-markers`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.validate("annotate"); err != nil {
				return err
			}
			return annotateRunner(cmd.Context(), cfg)
		},
	}

	registerCommonFlags(cmd.Flags())
	flags := cmd.Flags()
	flags.String("out", "", "Output file for the annotated document; - or empty writes to stdout")
	flags.String("output-format", "", "Output document format (yaml|json); derived from --out when omitted")
	flags.Bool("force", false, "Overwrite the output file when it exists")
	flags.Bool("dry-run", false, "Report what would be written without writing")
	flags.Bool("strip-markers", false, "Remove x-formance-* markers from the output")

	return cmd
}

func runAnnotate(ctx context.Context, cfg *Config) error {
	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	toStdout := cfg.Out == "" || cfg.Out == "-"
	if !toStdout && !cfg.Force && !cfg.DryRun {
		if st, err := os.Stat(cfg.Out); err == nil && st.Mode().IsRegular() {
			return newUsageError(fmt.Sprintf("annotate: %q already exists (use --force to overwrite)", cfg.Out))
		}
	}

	proj, res, err := compile(ctx, cfg, log)
	if err != nil {
		return err
	}

	// The document goes to stdout, so diagnostics move to stderr.
	diagCfg := *cfg
	if toStdout {
		diagCfg.stdout = cfg.stderr
	}
	if res.Diagnostics.Len() > 0 || !toStdout {
		if err := writeDiagnostics(&diagCfg, res); err != nil {
			return err
		}
	}
	if res.Diagnostics.HasErrors() {
		return ErrDiagnostics
	}

	written, err := spec.Apply(proj, spec.ApplyOptions{StripMarkers: cfg.StripMarkers})
	if err != nil {
		return specUsageError(err)
	}

	format := cfg.OutputFormat
	if format == "" {
		format = spec.FormatFromPath(cfg.Out)
	}
	data, err := spec.Encode(proj.Doc, format)
	if err != nil {
		return specUsageError(err)
	}
	log.Debug("encoded document", zap.String("format", format), zap.Int("bytes", len(data)), zap.Int("operations", written))

	if cfg.DryRun {
		printPlan(cfg.stdout, cfg.Out, written, len(data))
		return nil
	}
	if toStdout {
		_, err := cfg.stdout.Write(data)
		return err
	}
	if err := writeAtomic(cfg.Out, data); err != nil {
		return err
	}
	fmt.Fprintf(cfg.stdout, "Wrote annotated document to %s (%d operations)\n", cfg.Out, written) //nolint:errcheck
	return nil
}

func printPlan(w io.Writer, out string, operations, size int) {
	if out == "" {
		out = "-"
	}
	fmt.Fprintf(w, "Planned write to %s: %d operations annotated, %d bytes\n", out, operations, size) //nolint:errcheck
}

// writeAtomic writes via a temp file and rename.
func writeAtomic(path string, data []byte) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("write: resolve output path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return newUsageError(fmt.Sprintf("write: cannot create parent directory: %v", err))
	}
	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return newUsageError(fmt.Sprintf("write: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err))
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return newUsageError(fmt.Sprintf("write: cannot place file at %s: %v", absPath, err))
	}
	return nil
}
