package bigquery

import (
	"context"
	"testing"

	"github.com/angelmondragon/sellerpulse-backend/pkg/config"
)

func TestConfiguredTables(t *testing.T) {
	cfg := config.BigQueryConfig{
		AsinMappingTable:    " asin_mapping ",
		BusinessReportTable: "business_report",
		AdsReportTable:      "",
	}

	tables := configuredTables(cfg)

	if len(tables) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(tables))
	}
	if tables[0] != "asin_mapping" || tables[1] != "business_report" {
		t.Fatalf("unexpected tables %v", tables)
	}
}

func TestTableRefOnNilClient(t *testing.T) {
	var c *Client
	if ref := c.TableRef("ads_report"); ref != "" {
		t.Fatalf("expected empty ref from nil client, got %q", ref)
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected ping on nil client to fail")
	}
}

func TestClientOptionsPrioritizesJSON(t *testing.T) {
	gcp := config.GCPConfig{
		CredentialsJSON:        `{"dummy": "value"}`,
		ApplicationCredentials: "/tmp/creds",
	}

	opts := clientOptions(gcp)
	if len(opts) != 1 {
		t.Fatalf("expected 1 option, got %d", len(opts))
	}
}

func TestClientOptionsWithFile(t *testing.T) {
	gcp := config.GCPConfig{
		ApplicationCredentials: "/tmp/creds",
	}

	opts := clientOptions(gcp)
	if len(opts) != 1 {
		t.Fatalf("expected 1 option when using credentials file, got %d", len(opts))
	}
}

func TestClientOptionsEmpty(t *testing.T) {
	gcp := config.GCPConfig{}

	opts := clientOptions(gcp)
	if len(opts) != 0 {
		t.Fatalf("expected 0 options when no credentials provided, got %d", len(opts))
	}
}
