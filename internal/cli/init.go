package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
	Verbose    bool

	stdout io.Writer
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample apistd configuration file",
		Long: "Scaffold a commented apistd configuration file that documents available options. " +
			"The file is TOML when --out ends in .toml, YAML otherwise.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			cfg := &InitConfig{
				OutputPath: out,
				Force:      force,
				Verbose:    verbose,
				stdout:     cmd.OutOrStdout(),
			}
			return initRunner(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("out", "apistd.yaml", "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig) error {
	_ = ctx

	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = "apistd.yaml"
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force {
		if st.Mode().IsRegular() {
			return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
		}
	}

	content := sampleConfigYAML
	if strings.EqualFold(filepath.Ext(absPath), ".toml") {
		content = sampleConfigTOML
	}
	if err := writeAtomic(absPath, []byte(strings.TrimSpace(content)+"\n")); err != nil {
		return err
	}

	w := cfg.stdout
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintf(w, "Wrote sample config to %s\n", absPath) //nolint:errcheck
	return nil
}

// sampleConfigYAML documents every config key. Keys are case and
// separator insensitive: ruleSet, rule-set and rule_set are the same key.
const sampleConfigYAML = `# apistd configuration (YAML)
# All fields are optional. Precedence: defaults < APISTD_* environment < this file < flags.

# Path or URL to the OpenAPI/Swagger document (http/https or local file).
# input: ./openapi.yaml

# Linter rule set: recommended, all or none.
# ruleSet: recommended

# Lint rules to enable or disable on top of the rule set (list or comma-separated).
# enable: [apistd/no-interfaces]
# disable: []

# Diagnostics format: text, json or table.
# format: text

# Disable colored text diagnostics.
# noColor: false

# Reject documents that fail OpenAPI validation, even for unresolved refs only.
# strict: false

# Timeout for each HTTP request when input is a URL.
# httpTimeout: 10s

# annotate: output file (- for stdout) and format (yaml or json).
# out: ./build/openapi.yaml
# outputFormat: yaml

# annotate: overwrite an existing output file.
# force: false

# annotate: report what would be written without writing.
# dryRun: false

# annotate: remove x-formance-* markers from the output.
# stripMarkers: false

# Logging: verbose switches to debug; logLevel wins when both are set.
# verbose: false
# logLevel: warn
`

const sampleConfigTOML = `# apistd configuration (TOML)
# All fields are optional. Precedence: defaults < APISTD_* environment < this file < flags.

# input = "./openapi.yaml"
# ruleSet = "recommended"
# enable = ["apistd/no-interfaces"]
# disable = []
# format = "text"
# noColor = false
# strict = false
# httpTimeout = "10s"

# annotate only
# out = "./build/openapi.yaml"
# outputFormat = "yaml"
# force = false
# dryRun = false
# stripMarkers = false

# verbose = false
# logLevel = "warn"
`
