package commands

import (
	"fmt"

	"github.com/Bilal079/dropvault/internal/cli/credentials"
	"github.com/Bilal079/dropvault/internal/cli/prompt"
	"github.com/Bilal079/dropvault/internal/client"
)

// resolveProfile fills in any unset --server/--admin/--user flags from the
// last profile saved on disk, if one exists.
func resolveProfile() {
	store, err := credentials.NewStore()
	if err != nil {
		return
	}
	last, err := store.LastProfile()
	if err != nil {
		return
	}
	if !rootCmd.PersistentFlags().Changed("server") && last.ServerAddr != "" {
		serverAddr = last.ServerAddr
	}
	if !rootCmd.PersistentFlags().Changed("admin") && last.AdminAddr != "" {
		adminAddr = last.AdminAddr
	}
	if username == "" {
		username = last.Username
	}
}

// saveProfile remembers the connection settings used for a successful
// command so later invocations don't need to repeat them.
func saveProfile() {
	store, err := credentials.NewStore()
	if err != nil {
		return
	}
	_ = store.SaveProfile(credentials.Profile{
		ServerAddr: serverAddr,
		AdminAddr:  adminAddr,
		Username:   username,
	})
}

// dialAndLogin connects to the server and authenticates as username,
// prompting for a password interactively. Used by the upload, download,
// delete and list commands; signup creates the account before any login is
// possible, and health only talks to the admin HTTP endpoint.
func dialAndLogin() (*client.Client, error) {
	resolveProfile()
	if username == "" {
		return nil, fmt.Errorf("--user is required")
	}
	password, err := prompt.Password("Password")
	if err != nil {
		return nil, err
	}

	c, err := client.Dial(serverAddr)
	if err != nil {
		return nil, err
	}
	if err := c.Login(username, password); err != nil {
		c.Close()
		return nil, err
	}
	saveProfile()
	return c, nil
}
