package helloext

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/igorsilveira/helloext/pkg/a2a"
	"github.com/igorsilveira/helloext/pkg/extension/timestamp"
	"github.com/igorsilveira/helloext/pkg/grpcserver"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send <text>",
	Short: "Send one message to the agent and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSend,
}

var (
	sendExtensions []string
	sendMetadata   string
	sendGRPC       bool
	sendStream     bool
	sendTimestamp  bool
)

func init() {
	sendCmd.Flags().StringSliceVar(&sendExtensions, "ext", nil, "extension URIs to activate")
	sendCmd.Flags().StringVar(&sendMetadata, "meta", "", `message metadata as JSON, e.g. '{"extensions":{"<uri>":{"style":"formal"}}}'`)
	sendCmd.Flags().BoolVar(&sendGRPC, "grpc", false, "send over the gRPC transport")
	sendCmd.Flags().BoolVar(&sendStream, "stream", false, "print streamed events (gRPC only)")
	sendCmd.Flags().BoolVar(&sendTimestamp, "timestamp", false, "activate the timestamp extension and stamp the outgoing message")
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	msg := a2a.NewTextMessage(a2a.RoleUser, strings.Join(args, " "))
	if sendMetadata != "" {
		if err := json.Unmarshal([]byte(sendMetadata), &msg.Metadata); err != nil {
			return fmt.Errorf("parsing --meta: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if sendGRPC {
		return sendOverGRPC(ctx, fmt.Sprintf("127.0.0.1:%d", cfg.GRPC.Port), *msg)
	}
	if sendStream {
		return fmt.Errorf("--stream requires --grpc")
	}

	opts := []a2a.ClientOption{
		a2a.WithExtensions(sendExtensions...),
		a2a.WithAuthToken(cfg.Gateway.AuthToken),
	}
	if sendTimestamp {
		opts = append(opts, timestamp.New().ClientOption())
	}
	client := a2a.NewClient(gatewayURL(cfg), opts...)
	var res a2a.SendResult
	call, err := client.Call(ctx, a2a.MethodMessageSend, a2a.MessageSendParams{Message: *msg}, &res)
	if err != nil {
		return err
	}
	fmt.Println(res.Text())
	printActivated(call.Activated.List())
	return nil
}

func sendOverGRPC(ctx context.Context, target string, msg a2a.Message) error {
	client, err := grpcserver.NewClient(target, sendExtensions)
	if err != nil {
		return err
	}
	defer client.Close()

	if sendStream {
		return client.Stream(ctx, msg, func(ev a2a.Event) error {
			switch e := ev.(type) {
			case *a2a.TaskStatusUpdateEvent:
				if e.Status.Message != nil {
					fmt.Printf("[%s] %s\n", e.Status.State, e.Status.Message.Text())
				} else {
					fmt.Printf("[%s]\n", e.Status.State)
				}
			case *a2a.TaskArtifactUpdateEvent:
				fmt.Printf("[artifact %s] %s\n", e.Artifact.Name, a2a.Message{Parts: e.Artifact.Parts}.Text())
			case *a2a.Message:
				fmt.Println(e.Text())
			}
			return nil
		})
	}

	resp, err := client.SendMessage(ctx, msg)
	if err != nil {
		return err
	}
	fmt.Println(resp.Result.Text())
	printActivated(resp.ActivatedExtensions)
	return nil
}

func printActivated(uris []string) {
	if len(uris) > 0 {
		fmt.Printf("extensions: %s\n", strings.Join(uris, ", "))
	}
}
