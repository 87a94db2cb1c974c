package helloext

import (
	"time"

	"github.com/igorsilveira/helloext/pkg/a2a"
	"github.com/igorsilveira/helloext/pkg/tui"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive TUI chat session with the agent",
	RunE:  runChat,
}

var chatExtensions []string

func init() {
	chatCmd.Flags().StringSliceVar(&chatExtensions, "ext", nil, "extension URIs to activate on every message")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client := a2a.NewClient(gatewayURL(cfg),
		a2a.WithExtensions(chatExtensions...),
		a2a.WithAuthToken(cfg.Gateway.AuthToken),
	)
	return tui.Run(cfg.Agent.Name, tui.ClientSender(client, 30*time.Second))
}
