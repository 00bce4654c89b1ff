package instance

import "testing"

func TestIDPrefersRevision(t *testing.T) {
	t.Setenv("K_REVISION", "sellerpulse-api-00042")
	t.Setenv("HOSTNAME", "host-a")
	if got := ID(); got != "sellerpulse-api-00042" {
		t.Fatalf("expected revision, got %q", got)
	}
}

func TestIDFallsBack(t *testing.T) {
	t.Setenv("K_REVISION", "")
	t.Setenv("HOSTNAME", "")
	if got := ID(); got != "local" {
		t.Fatalf("expected local, got %q", got)
	}
}
