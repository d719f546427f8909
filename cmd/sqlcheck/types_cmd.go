package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coreyja-studio/sql-check/pkg/sqltype"
)

// scalarTags lists every non-Array SqlType in the canonical display order.
var scalarTags = []sqltype.Type{
	sqltype.SmallInt, sqltype.Integer, sqltype.BigInt, sqltype.Real,
	sqltype.Double, sqltype.Numeric, sqltype.Text, sqltype.Bytea,
	sqltype.Boolean, sqltype.Timestamp, sqltype.Timestamptz, sqltype.Date,
	sqltype.Time, sqltype.Uuid, sqltype.Json, sqltype.Jsonb, sqltype.Inet,
}

func newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "Print the canonical sql_type tag to target-language type mapping",
		RunE: func(cmd *cobra.Command, args []string) error {
			runTypes()
			return nil
		},
	}
}

func runTypes() {
	mapper := sqltype.DefaultTypeMapper{}
	fmt.Printf("%-16s %s\n", "TAG", "TARGET TYPE")
	for _, tag := range scalarTags {
		v := sqltype.Of(tag)
		fmt.Printf("%-16s %s\n", v, mapper.Map(v))
	}
	array := sqltype.OfArray(sqltype.Text)
	fmt.Printf("%-16s %s\n", array, mapper.Map(array))
}
