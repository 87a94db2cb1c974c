// Package grpcserver exposes the A2A agent over gRPC with a JSON codec.
package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/igorsilveira/helloext/pkg/a2a"
	"github.com/igorsilveira/helloext/pkg/telemetry"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

type Config struct {
	Bind    string
	Port    int
	Handler *a2a.Handler
	Logger  *slog.Logger
}

type Server struct {
	handler *a2a.Handler
	server  *grpc.Server
	health  *health.Server
	addr    string
	logger  *slog.Logger
}

func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Server{
		handler: cfg.Handler,
		server:  grpc.NewServer(grpc.ChainUnaryInterceptor(logUnary(cfg.Logger))),
		health:  health.NewServer(),
		addr:    resolveAddr(cfg.Bind, cfg.Port),
		logger:  cfg.Logger,
	}
	s.server.RegisterService(&serviceDesc, s)
	healthpb.RegisterHealthServer(s.server, s.health)
	reflection.Register(s.server)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s
}

func (s *Server) Addr() string { return s.addr }

// Serve blocks serving on ln until Stop is called.
func (s *Server) Serve(ln net.Listener) error {
	return s.server.Serve(ln)
}

func (s *Server) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}

func (s *Server) Start(ctx context.Context) error {
	logger := telemetry.FromContext(ctx)

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("grpcserver: listen %s: %w", s.addr, err)
	}
	logger.Info("grpc server listening", slog.String("addr", s.addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("grpc server shutting down")
		s.Stop()
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) SendMessage(ctx context.Context, req *a2a.MessageSendParams) (*SendMessageResponse, error) {
	active := activeExtensions(ctx)
	result, activated, err := s.handler.SendMessage(ctx, req.Message, active)
	if err != nil {
		return nil, toStatus(err)
	}
	if len(activated) > 0 {
		_ = grpc.SetHeader(ctx, metadata.Pairs(a2a.GRPCExtensionsKey, strings.Join(activated, ", ")))
	}
	return &SendMessageResponse{Result: result, ActivatedExtensions: activated}, nil
}

func (s *Server) SendStreamingMessage(req *a2a.MessageSendParams, stream grpc.ServerStream) error {
	ctx := stream.Context()
	activated, err := s.handler.Stream(ctx, req.Message, activeExtensions(ctx), func(ev a2a.Event) error {
		return stream.SendMsg(ev)
	})
	if err != nil {
		return toStatus(err)
	}
	if len(activated) > 0 {
		stream.SetTrailer(metadata.Pairs(a2a.GRPCExtensionsKey, strings.Join(activated, ", ")))
	}
	return nil
}

func (s *Server) GetAgentCard(ctx context.Context, _ *GetAgentCardRequest) (*a2a.AgentCard, error) {
	card := s.handler.Card()
	return &card, nil
}

func activeExtensions(ctx context.Context) a2a.ExtensionSet {
	md, _ := metadata.FromIncomingContext(ctx)
	return a2a.ParseExtensions(md.Get(a2a.GRPCExtensionsKey)...)
}

func toStatus(err error) error {
	var rpcErr *a2a.JSONRPCError
	switch {
	case errors.Is(err, a2a.ErrEmptyMessage):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, a2a.ErrExecutorUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.As(err, &rpcErr) && rpcErr.Code == a2a.ErrCodeInvalidParams:
		return status.Error(codes.InvalidArgument, rpcErr.Message)
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func logUnary(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			logger.Warn("grpc call failed",
				slog.String("method", info.FullMethod),
				slog.String("err", err.Error()),
			)
		}
		return resp, err
	}
}

func resolveAddr(bind string, port int) string {
	var host string
	switch bind {
	case "lan", "all":
		host = "0.0.0.0"
	case "loopback", "":
		host = "127.0.0.1"
	default:
		host = bind
	}
	return fmt.Sprintf("%s:%d", host, port)
}
