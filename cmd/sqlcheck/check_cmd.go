package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/coreyja-studio/sql-check"
)

func newCheckCmd(root *string) *cobra.Command {
	var (
		queryText string
		queryFile string
		params    int
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Analyze a single query against the project's schema",
		Example: `  sqlcheck check --query "SELECT id, name FROM users" --params 0
  sqlcheck check --query-file ./query.sql --params 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := resolveQueryText(queryText, queryFile)
			if err != nil {
				return err
			}
			return runCheck(*root, query, params)
		},
	}

	cmd.Flags().StringVar(&queryText, "query", "", "inline SQL query text")
	cmd.Flags().StringVar(&queryFile, "query-file", "", "path to a file containing the SQL query")
	cmd.Flags().IntVar(&params, "params", 0, "declared positional parameter count")

	return cmd
}

func resolveQueryText(inline, path string) (string, error) {
	if inline != "" && path != "" {
		return "", fmt.Errorf("--query and --query-file are mutually exclusive")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading query file %q: %w", path, err)
		}
		return string(data), nil
	}
	if inline == "" {
		return "", fmt.Errorf("one of --query or --query-file is required")
	}
	return inline, nil
}

func runCheck(root, query string, params int) error {
	desc, err := sqlcheck.AnalyzeFile(root, query, params)
	if err != nil {
		return err
	}

	fmt.Printf("%-24s %-16s %s\n", "FIELD", "TYPE", "NULLABLE")
	for _, f := range desc.Fields {
		fmt.Printf("%-24s %-16s %v\n", f.Name, f.SQLTypeTag, f.Nullable)
	}
	for _, w := range desc.Warnings {
		fmt.Println("warning:", w)
	}
	return nil
}
