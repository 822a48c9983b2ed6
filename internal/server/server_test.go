package server

import (
	"context"
	"testing"
	"time"
)

func TestServer_RunDrainsOnCancel(t *testing.T) {
	s := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		// Port 0 binds an ephemeral port.
		errCh <- s.Run(ctx, "127.0.0.1", 0)
	}()

	// Give the listener a moment to come up, then signal shutdown.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run returned %v after graceful shutdown, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
