package pubsub

import (
	"testing"

	"github.com/angelmondragon/sellerpulse-backend/pkg/config"
)

func TestSubscriptionNamesSkipsBlank(t *testing.T) {
	if names := subscriptionNames(config.PubSubConfig{RefreshSubscription: "  "}); len(names) != 0 {
		t.Fatalf("expected no names, got %v", names)
	}
	names := subscriptionNames(config.PubSubConfig{RefreshSubscription: " sp-report-refreshed-worker "})
	if len(names) != 1 || names[0] != "sp-report-refreshed-worker" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestResourceNames(t *testing.T) {
	c := &Client{projectID: "proj"}
	if got := c.subscriptionResourceName("refresh-sub"); got != "projects/proj/subscriptions/refresh-sub" {
		t.Fatalf("unexpected subscription name %q", got)
	}
	full := "projects/other/subscriptions/refresh-sub"
	if got := c.subscriptionResourceName(full); got != full {
		t.Fatalf("full resource names should pass through, got %q", got)
	}
	if got := c.subscriptionResourceName(""); got != "" {
		t.Fatalf("blank subscription should resolve empty, got %q", got)
	}
	if got := (&Client{}).subscriptionResourceName("s"); got != "" {
		t.Fatalf("missing project should resolve empty, got %q", got)
	}
}

func TestNilClientHandles(t *testing.T) {
	var c *Client
	if c.RefreshSubscription() != nil {
		t.Fatal("nil client should not hand out subscribers")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close on nil client: %v", err)
	}
}
