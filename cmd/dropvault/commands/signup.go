package commands

import (
	"github.com/spf13/cobra"

	"github.com/Bilal079/dropvault/internal/cli/prompt"
	"github.com/Bilal079/dropvault/internal/client"
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "create a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if username == "" {
			return cmd.Usage()
		}
		password, err := prompt.NewPassword()
		if err != nil {
			return err
		}

		c, err := client.Dial(serverAddr)
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.Signup(username, password); err != nil {
			return err
		}
		cmd.Println("account created")
		return nil
	},
}
