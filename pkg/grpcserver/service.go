package grpcserver

import (
	"context"

	"github.com/igorsilveira/helloext/pkg/a2a"
	"google.golang.org/grpc"
)

const ServiceName = "a2a.v1.A2AService"

const (
	sendMessageMethod   = "/" + ServiceName + "/SendMessage"
	sendStreamingMethod = "/" + ServiceName + "/SendStreamingMessage"
	getAgentCardMethod  = "/" + ServiceName + "/GetAgentCard"
	streamingStreamName = "SendStreamingMessage"
)

type SendMessageResponse struct {
	Result              a2a.SendResult `json:"result"`
	ActivatedExtensions []string       `json:"activatedExtensions,omitempty"`
}

type GetAgentCardRequest struct{}

// A2AService is the server side of a2a.v1.A2AService.
type A2AService interface {
	SendMessage(ctx context.Context, req *a2a.MessageSendParams) (*SendMessageResponse, error)
	SendStreamingMessage(req *a2a.MessageSendParams, stream grpc.ServerStream) error
	GetAgentCard(ctx context.Context, req *GetAgentCardRequest) (*a2a.AgentCard, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*A2AService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SendMessage", Handler: sendMessageHandler},
		{MethodName: "GetAgentCard", Handler: getAgentCardHandler},
	},
	Streams: []grpc.StreamDesc{{
		StreamName:    streamingStreamName,
		Handler:       sendStreamingHandler,
		ServerStreams: true,
	}},
	Metadata: "a2a.proto",
}

func sendMessageHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(a2a.MessageSendParams)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(A2AService).SendMessage(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: sendMessageMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(A2AService).SendMessage(ctx, req.(*a2a.MessageSendParams))
	}
	return interceptor(ctx, in, info, handler)
}

func getAgentCardHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetAgentCardRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(A2AService).GetAgentCard(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getAgentCardMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(A2AService).GetAgentCard(ctx, req.(*GetAgentCardRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func sendStreamingHandler(srv any, stream grpc.ServerStream) error {
	in := new(a2a.MessageSendParams)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(A2AService).SendStreamingMessage(in, stream)
}

