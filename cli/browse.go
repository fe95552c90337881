package cli

import (
	"net/http"
	"time"

	"cmdhub/client"
	"cmdhub/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var browseServer string

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Search, edit and run commands in a terminal UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		server := browseServer
		if server == "" {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			server = "http://localhost" + cfg.Addr()
		}

		app, err := ui.NewApp(client.New(server, &http.Client{Timeout: 10 * time.Second}))
		if err != nil {
			return err
		}

		_, err = tea.NewProgram(app, tea.WithAltScreen()).Run()
		return err
	},
}

func init() {
	browseCmd.Flags().StringVar(&browseServer, "server", "", "API base URL (default http://localhost:$APP_PORT)")
}
