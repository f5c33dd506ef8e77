package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/routelab/hoptrace/internal/client"
	"github.com/routelab/hoptrace/internal/ui"
	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"
)

func defaultGRPCAddr() string {
	if s := os.Getenv("HOPTRACE_GRPC"); s != "" {
		return s
	}
	return "localhost:9090"
}

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Probe the collector's gRPC health endpoint",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("grpc")

		prober, err := client.NewHealthProber(addr, authToken)
		if err != nil {
			return fmt.Errorf("connecting to %s: %w", addr, err)
		}
		defer prober.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		resp, err := prober.Check(ctx)
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}

		if jsonOutput {
			fmt.Println(protojson.Format(resp))
		} else {
			status := resp.GetStatus()
			if status == healthpb.HealthCheckResponse_SERVING {
				fmt.Printf("Health: %s\n", ui.RenderOK(status.String()))
			} else {
				fmt.Printf("Health: %s\n", ui.RenderAlert(status.String()))
			}
		}

		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			return fmt.Errorf("collector not serving (status %s)", resp.GetStatus())
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().String("grpc", defaultGRPCAddr(), "collector gRPC address")
}
