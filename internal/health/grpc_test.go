package health

import (
	"context"
	"net"
	"testing"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func startServer(t *testing.T) (*Server, string) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	srv := NewServer(nil)
	go func() {
		if err := srv.Serve(lis); err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	}()
	t.Cleanup(srv.Stop)
	return srv, lis.Addr().String()
}

func TestProbe_ReflectsServingStatus(t *testing.T) {
	srv, addr := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status, err := Probe(ctx, addr, ServiceName)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if status != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("initial status = %v, want NOT_SERVING", status)
	}

	srv.SetServing(true)
	status, err = Probe(ctx, addr, ServiceName)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if status != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v, want SERVING", status)
	}

	status, err = Probe(ctx, addr, "")
	if err != nil || status != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("overall status = %v, %v; want SERVING", status, err)
	}
}

func TestProbe_UnknownService(t *testing.T) {
	_, addr := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := Probe(ctx, addr, "nope"); err == nil {
		t.Error("Probe(unknown service) succeeded, want NotFound error")
	}
}

func TestProbe_Unreachable(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	addr := lis.Addr().String()
	_ = lis.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if _, err := Probe(ctx, addr, ServiceName); err == nil {
		t.Error("Probe() against closed port succeeded")
	}
}
