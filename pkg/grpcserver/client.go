package grpcserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/igorsilveira/helloext/pkg/a2a"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

type Client struct {
	conn       *grpc.ClientConn
	extensions []string
}

// NewClient dials target without transport security. extensions are sent
// with every call.
func NewClient(target string, extensions []string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpcserver: connecting to %s: %w", target, err)
	}
	return &Client{conn: conn, extensions: extensions}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) outgoing(ctx context.Context) context.Context {
	if len(c.extensions) == 0 {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, a2a.GRPCExtensionsKey, strings.Join(c.extensions, ","))
}

func (c *Client) SendMessage(ctx context.Context, msg a2a.Message) (*SendMessageResponse, error) {
	out := new(SendMessageResponse)
	if err := c.conn.Invoke(c.outgoing(ctx), sendMessageMethod, &a2a.MessageSendParams{Message: msg}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SendText(ctx context.Context, text string, meta map[string]any) (*SendMessageResponse, error) {
	msg := a2a.NewTextMessage(a2a.RoleUser, text)
	msg.Metadata = meta
	return c.SendMessage(ctx, *msg)
}

// Stream sends msg and calls fn for every event until the server closes
// the stream.
func (c *Client) Stream(ctx context.Context, msg a2a.Message, fn func(a2a.Event) error) error {
	desc := &serviceDesc.Streams[0]
	stream, err := c.conn.NewStream(c.outgoing(ctx), desc, sendStreamingMethod)
	if err != nil {
		return err
	}
	if err := stream.SendMsg(&a2a.MessageSendParams{Message: msg}); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}
	for {
		var raw json.RawMessage
		if err := stream.RecvMsg(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		ev, err := a2a.DecodeEvent(raw)
		if err != nil {
			return err
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}

func (c *Client) AgentCard(ctx context.Context) (*a2a.AgentCard, error) {
	out := new(a2a.AgentCard)
	if err := c.conn.Invoke(ctx, getAgentCardMethod, &GetAgentCardRequest{}, out); err != nil {
		return nil, err
	}
	return out, nil
}
