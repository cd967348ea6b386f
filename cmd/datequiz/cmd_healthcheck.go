package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ashureev/datequiz/internal/health"
	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var (
	healthAddr    string
	healthTimeout time.Duration
)

var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Probe a running server's gRPC health service",
	RunE:  runHealthcheck,
}

func init() {
	healthcheckCmd.Flags().StringVar(&healthAddr, "addr", "localhost:9090", "gRPC health address")
	healthcheckCmd.Flags().DurationVar(&healthTimeout, "timeout", 3*time.Second, "probe timeout")
}

func runHealthcheck(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), healthTimeout)
	defer cancel()

	status, err := health.Probe(ctx, healthAddr, health.ServiceName)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), status.String())
	if status != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("service %s is %s", health.ServiceName, status)
	}
	return nil
}
