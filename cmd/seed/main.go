package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "seed",
		Short: "Agricultural dataset tool",
		Long: `Generates, checks and loads the farmers, crops, livestock and aquaculture
tables served by the agristat API.

Generated tables can be served directly with DATA_MODE=file or pushed into
Postgres with the load command for DATA_MODE=postgres.`,
		SilenceUsage: true,
	}

	root.AddCommand(newGenerateCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newLoadCmd())

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
