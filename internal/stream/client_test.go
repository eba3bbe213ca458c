package stream

import (
	"io"
	"log/slog"
	"testing"

	"github.com/vesselwatch/tracker/pkg/streaming"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(Config{Name: "subscription"}, func(env streaming.Envelope) {}, logger)
}

func TestSetSubscriptionWhileDisconnected(t *testing.T) {
	c := testClient(t)

	// No connection yet: the message is cached for the next connect.
	if err := c.SetSubscription([]byte(`{"filters_ship_mmsi":["111222333"]}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.State() != StateDisconnected {
		t.Errorf("expected disconnected state, got %s", c.State())
	}
}

func TestCloseWithoutConnect(t *testing.T) {
	c := testClient(t)

	if err := c.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close should be a no-op: %v", err)
	}
	if c.State() != StateClosing {
		t.Errorf("expected closing state, got %s", c.State())
	}
}
