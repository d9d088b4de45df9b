package commands

import (
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <remote-name>",
	Short: "delete a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialAndLogin()
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.Delete(args[0]); err != nil {
			return err
		}
		cmd.Println("deleted", args[0])
		return nil
	},
}
