package commands

import (
	"github.com/spf13/cobra"

	"github.com/Bilal079/dropvault/internal/cli/output"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "list files",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialAndLogin()
		if err != nil {
			return err
		}
		defer c.Close()

		names, err := c.List()
		if err != nil {
			return err
		}

		format, err := output.ParseFormat(outputFormat)
		if err != nil {
			return err
		}

		if format == output.FormatTable {
			table := output.NewTableData("NAME")
			for _, n := range names {
				table.AddRow(n)
			}
			return output.PrintTable(cmd.OutOrStdout(), table)
		}

		printer := output.NewPrinter(cmd.OutOrStdout(), format, false)
		return printer.Print(names)
	},
}
