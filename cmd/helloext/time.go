package helloext

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/igorsilveira/helloext/pkg/a2a"
	"github.com/igorsilveira/helloext/pkg/extension/timegreeting"
	"github.com/igorsilveira/helloext/pkg/greeting"
	"github.com/spf13/cobra"
)

var timeCmd = &cobra.Command{
	Use:   "time",
	Short: "Call the greeting/time-based method",
	RunE:  runTime,
}

var (
	timeZone     string
	timeFormat   string
	timeStyle    string
	timeLanguage string
	timeNoClock  bool
	timeVerbose  bool
)

func init() {
	timeCmd.Flags().StringVar(&timeZone, "tz", "local", "IANA timezone, e.g. Asia/Tokyo")
	timeCmd.Flags().StringVar(&timeFormat, "format", "12h", "12h or 24h")
	timeCmd.Flags().StringVar(&timeStyle, "style", "casual", "casual, formal or brief")
	timeCmd.Flags().StringVar(&timeLanguage, "lang", "en", "en, es, fr, de or ja")
	timeCmd.Flags().BoolVar(&timeNoClock, "no-time", false, "leave the current time out of the greeting")
	timeCmd.Flags().BoolVarP(&timeVerbose, "verbose", "v", false, "print the time context metadata")
}

func runTime(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	includeTime := !timeNoClock
	params := struct {
		ID string `json:"id"`
		timegreeting.Params
	}{
		ID: "cli-" + uuid.NewString()[:8],
		Params: timegreeting.Params{
			Timezone:    timeZone,
			Format:      timegreeting.Format(timeFormat),
			IncludeTime: &includeTime,
			Style:       timegreeting.Style(timeStyle),
			Language:    greeting.Language(timeLanguage),
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := a2a.NewClient(gatewayURL(cfg),
		a2a.WithExtensions(timegreeting.URI),
		a2a.WithAuthToken(cfg.Gateway.AuthToken),
	)
	var msg a2a.Message
	if _, err := client.Call(ctx, timegreeting.Method, params, &msg); err != nil {
		return err
	}
	fmt.Println(msg.Text())
	if timeVerbose {
		printMetadata(msg.Metadata)
	}
	return nil
}

func printMetadata(md map[string]any) {
	if len(md) == 0 {
		return
	}
	b, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return
	}
	fmt.Println(string(b))
}
