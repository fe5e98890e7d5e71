package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/dating-api/internal/config"
)

// Pinger is a dependency whose reachability decides the serving status.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewHealthServer reports SERVING for the overall server ("") and, per named
// dependency, whether it answers its ping. Dependencies are re-pinged every
// interval until ctx is done; interval <= 0 leaves the startup status in place.
func NewHealthServer(ctx context.Context, deps map[string]Pinger, interval time.Duration) *health.Server {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	checkDeps(ctx, hs, deps)

	if interval > 0 {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					checkDeps(ctx, hs, deps)
				}
			}
		}()
	}
	return hs
}

func checkDeps(ctx context.Context, hs *health.Server, deps map[string]Pinger) {
	for name, p := range deps {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := p.Ping(pingCtx)
		cancel()

		status := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		hs.SetServingStatus(name, status)
	}
}

// StartGRPCServer boots the gRPC health endpoint and blocks until ctx is canceled.
func StartGRPCServer(ctx context.Context, cfg *config.Config, hs *health.Server) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)

	// enable reflection for easier debugging with grpcurl
	reflection.Register(grpcServer)

	go func() {
		<-ctx.Done()
		hs.Shutdown()
		grpcServer.GracefulStop()
	}()

	return grpcServer.Serve(lis)
}
