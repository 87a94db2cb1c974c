package helloext

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/igorsilveira/helloext/pkg/a2a"
	"github.com/igorsilveira/helloext/pkg/extension/randomgreeting"
	"github.com/spf13/cobra"
)

var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "Call the message/random method",
	RunE:  runRandom,
}

var (
	randomSeed             int64
	randomExcludeStyles    []string
	randomExcludeLanguages []string
	randomVerbose          bool
)

func init() {
	randomCmd.Flags().Int64Var(&randomSeed, "seed", -1, "seed for a reproducible draw (negative for none)")
	randomCmd.Flags().StringSliceVar(&randomExcludeStyles, "exclude-style", nil, "styles to leave out")
	randomCmd.Flags().StringSliceVar(&randomExcludeLanguages, "exclude-language", nil, "languages to leave out")
	randomCmd.Flags().BoolVarP(&randomVerbose, "verbose", "v", false, "print the selection metadata")
}

func runRandom(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	params := map[string]any{"id": "cli-" + uuid.NewString()[:8]}
	if randomSeed >= 0 {
		params["seed"] = randomSeed
	}
	if len(randomExcludeStyles) > 0 {
		params["excludeStyles"] = randomExcludeStyles
	}
	if len(randomExcludeLanguages) > 0 {
		params["excludeLanguages"] = randomExcludeLanguages
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := a2a.NewClient(gatewayURL(cfg),
		a2a.WithExtensions(randomgreeting.URI),
		a2a.WithAuthToken(cfg.Gateway.AuthToken),
	)
	var msg a2a.Message
	if _, err := client.Call(ctx, randomgreeting.Method, params, &msg); err != nil {
		return err
	}
	fmt.Println(msg.Text())
	if randomVerbose {
		printMetadata(msg.Metadata)
	}
	return nil
}
