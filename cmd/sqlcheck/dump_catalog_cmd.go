package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	sqlcheck "github.com/coreyja-studio/sql-check"
	"github.com/coreyja-studio/sql-check/pkg/catalog"
)

func newDumpCatalogCmd(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "dump-catalog",
		Short: "Print every table and column the resolved schema file declares",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDumpCatalog(*root)
		},
	}
}

func runDumpCatalog(root string) error {
	path, err := sqlcheck.ResolveSchemaPath(root)
	if err != nil {
		return err
	}
	text, err := sqlcheck.ReadSchemaFile(path)
	if err != nil {
		return err
	}
	cat, err := catalog.Build(text)
	if err != nil {
		return err
	}

	tables := cat.Tables()
	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })

	for _, t := range tables {
		fmt.Println(t.Name)
		for _, c := range t.Columns {
			flags := ""
			if !c.Nullable {
				flags += " NOT NULL"
			}
			if c.PrimaryKey {
				flags += " PRIMARY KEY"
			}
			if c.HasDefault {
				flags += " HAS DEFAULT"
			}
			fmt.Printf("  %-24s %-12s%s\n", c.Name, c.Type, flags)
		}
	}
	return nil
}
