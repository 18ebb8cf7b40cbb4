package main

import (
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/chazu/pipes/translator"
)

var opsCmd = &cobra.Command{
	Use:     "ops",
	Short:   "list the glyph rules in dispatch order",
	Args:    cobra.NoArgs,
	Example: `pipes ops`,
	Run: func(cmd *cobra.Command, args []string) {
		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"#", "RULE", "OPERATOR", "KIND", "EXAMPLE"})
		table.SetAutoWrapText(false)
		for i, rule := range translator.DefaultTable() {
			op := rule.Operator
			if op == "" {
				op = "*"
			}
			table.Append([]string{strconv.Itoa(i + 1), rule.Name, op, rule.Kind.String(), rule.Example})
		}
		table.Render()
	},
}

func init() {
	rootCmd.AddCommand(opsCmd)
}
