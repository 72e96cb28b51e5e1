//go:build integration
// +build integration

package util

import (
	"context"
	"fmt"
	"net"
	"time"
)

// WaitPortOpen polls a local TCP port until a connection succeeds or
// timeout elapses, the local-process analogue of the teacher's
// docker-exec-pg_isready polling loop.
func WaitPortOpen(ctx context.Context, port int, timeout time.Duration) error {
	addr := fmt.Sprintf("localhost:%d", port)
	deadline := time.Now().Add(timeout)
	for {
		conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%s did not become reachable within %s", addr, timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}
