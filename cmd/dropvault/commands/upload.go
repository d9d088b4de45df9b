package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <local-path> [remote-name]",
	Short: "upload a file",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		localPath := args[0]
		remoteName := localPath
		if len(args) == 2 {
			remoteName = args[1]
		} else {
			remoteName = baseName(localPath)
		}

		f, err := os.Open(localPath)
		if err != nil {
			return err
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return err
		}

		c, err := dialAndLogin()
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.Upload(remoteName, info.Size(), f); err != nil {
			return err
		}
		cmd.Println(fmt.Sprintf("uploaded %s (%d bytes) as %s", localPath, info.Size(), remoteName))
		return nil
	},
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}
