package commands

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/Bilal079/dropvault/internal/cli/health"
	"github.com/Bilal079/dropvault/internal/cli/timeutil"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "check server health over the admin HTTP endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		url := fmt.Sprintf("http://%s/healthz", adminAddr)
		resp, err := http.Get(url)
		if err != nil {
			return fmt.Errorf("reach admin endpoint: %w", err)
		}
		defer resp.Body.Close()

		var h health.Response
		if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
			return fmt.Errorf("decode health response: %w", err)
		}

		cmd.Printf("status:     %s\n", h.Status)
		cmd.Printf("service:    %s\n", h.Data.Service)
		cmd.Printf("started at: %s\n", timeutil.FormatTime(h.Data.StartedAt))
		cmd.Printf("uptime:     %s\n", timeutil.FormatUptime(h.Data.Uptime))
		if h.Error != "" {
			cmd.Printf("error:      %s\n", h.Error)
		}
		return nil
	},
}
