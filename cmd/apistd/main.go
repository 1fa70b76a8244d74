package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/formancehq/apistd/internal/cli"
)

func main() {
	err := cli.Execute()
	switch {
	case err == nil:
	case errors.Is(err, cli.ErrDiagnostics):
		os.Exit(1)
	case errors.Is(err, cli.ErrUsage):
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "apistd: %v\n", err)
		os.Exit(1)
	}
}
