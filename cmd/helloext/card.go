package helloext

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/igorsilveira/helloext/pkg/a2a"
	"github.com/spf13/cobra"
)

var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Print the agent card served by the running agent",
	RunE:  runCard,
}

var cardExtended bool

func init() {
	cardCmd.Flags().BoolVar(&cardExtended, "extended", false, "fetch the authenticated extended card")
}

func runCard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := a2a.NewClient(gatewayURL(cfg), a2a.WithAuthToken(cfg.Gateway.AuthToken))
	var card *a2a.AgentCard
	if cardExtended {
		card, err = client.ExtendedCard(ctx)
	} else {
		card, err = client.AgentCard(ctx)
	}
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(card, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
