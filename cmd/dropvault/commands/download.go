package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download <remote-name> [local-path]",
	Short: "download a file",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		remoteName := args[0]
		localPath := remoteName
		if len(args) == 2 {
			localPath = args[1]
		}

		c, err := dialAndLogin()
		if err != nil {
			return err
		}
		defer c.Close()

		f, err := os.Create(localPath)
		if err != nil {
			return err
		}
		defer f.Close()

		n, err := c.Download(remoteName, f)
		if err != nil {
			os.Remove(localPath)
			return err
		}
		cmd.Println(fmt.Sprintf("downloaded %s (%d bytes) to %s", remoteName, n, localPath))
		return nil
	},
}
