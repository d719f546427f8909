package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "sqlcheck",
		Short: "Validate embedded SQL against a PostgreSQL DDL schema at build time",
		Long: `sqlcheck parses a SQL query against a static schema file and reports the
typed shape it would produce, with no live database connection. It is meant
to run from a build script or editor integration, not an application.`,
	}

	cmd.PersistentFlags().StringVar(&root, "root", ".", "project root the schema path resolves against")

	cmd.AddCommand(newCheckCmd(&root))
	cmd.AddCommand(newDumpCatalogCmd(&root))
	cmd.AddCommand(newTypesCmd())

	return cmd
}
