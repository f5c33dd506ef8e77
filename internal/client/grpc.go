package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
)

// HealthProber checks collector liveness over gRPC using the standard
// health service. Used by `ht status`.
type HealthProber struct {
	conn   *grpc.ClientConn
	client healthpb.HealthClient
}

// NewHealthProber connects to the given gRPC address. When token is
// non-empty, a bearer authorization header is attached to every RPC.
func NewHealthProber(addr, token string) (*HealthProber, error) {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if token != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(bearerUnaryInterceptor(token)))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &HealthProber{
		conn:   conn,
		client: healthpb.NewHealthClient(conn),
	}, nil
}

// bearerUnaryInterceptor attaches "authorization: Bearer <token>" metadata
// to every outgoing unary call.
func bearerUnaryInterceptor(token string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// Check queries the collector's overall serving status.
func (p *HealthProber) Check(ctx context.Context) (*healthpb.HealthCheckResponse, error) {
	return p.client.Check(ctx, &healthpb.HealthCheckRequest{})
}

// Close tears down the underlying connection.
func (p *HealthProber) Close() error {
	return p.conn.Close()
}
