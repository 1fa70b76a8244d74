package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Execute runs the apistd CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apistd",
		Short: "Check and annotate OpenAPI documents against the Formance API standards",
		Long: "apistd validates cursor pagination, lints API structure and stamps the " +
			"SDK generator extensions (group, name override, errors, retries, pagination) " +
			"onto every operation of an OpenAPI document.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.SetFlagErrorFunc(flagUsageError)

	cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML, or TOML when it ends in .toml)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging output")
	cmd.PersistentFlags().String("log-level", "", "Log level (debug|info|warn|error); overrides --verbose")

	for _, sub := range []*cobra.Command{newCheckCmd(), newAnnotateCmd(), newInitCmd()} {
		sub.SetFlagErrorFunc(flagUsageError)
		cmd.AddCommand(sub)
	}

	return cmd
}

// flagUsageError turns cobra flag errors (like unknown flags) into usage
// errors that carry the command's help text.
func flagUsageError(c *cobra.Command, err error) error {
	return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
}
