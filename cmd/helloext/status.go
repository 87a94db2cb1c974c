package helloext

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/igorsilveira/helloext/pkg/a2a"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the health of the running agent and docs server",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: 3 * time.Second}

	resp, err := client.Get(gatewayURL(cfg) + "/healthz")
	if err != nil {
		fmt.Println("gateway: not running")
		return nil
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("gateway: returned %s\n", resp.Status)
		return nil
	}
	fmt.Println("gateway: healthy")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	card, err := a2a.NewClient(gatewayURL(cfg), a2a.WithHTTPClient(client)).AgentCard(ctx)
	if err == nil {
		fmt.Printf("agent: %s v%s (%d skills, %d extensions)\n",
			card.Name, card.Version, len(card.Skills), len(card.Capabilities.Extensions))
	}

	if cfg.Docs.Enabled {
		resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%d/", cfg.Docs.Port))
		if err != nil {
			fmt.Println("docs: not running")
			return nil
		}
		resp.Body.Close()
		fmt.Printf("docs: %s\n", resp.Status)
	}
	return nil
}
