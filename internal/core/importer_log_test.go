package core

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/JonMunkholm/companies/internal/logging"
)

func TestImport_LogsRequestMetadata(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.New(&buf, "info", "json"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := ContextWithClientIP(context.Background(), "198.51.100.7")
	ctx = ContextWithUserAgent(ctx, "curl/8.5.0")

	im := newTestImporter(newMemStore())
	if _, err := im.Import(ctx, "cia.csv", strings.NewReader("CNPJ_CIA;DENOM_SOCIAL;SIT\n1;A;ATIVO\n")); err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	var entry map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var e map[string]any
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("log line %q: %v", line, err)
		}
		if e["msg"] == "import complete" {
			entry = e
		}
	}
	if entry == nil {
		t.Fatalf("no import complete entry in %q", buf.String())
	}
	if entry["client_ip"] != "198.51.100.7" {
		t.Errorf("client_ip = %v", entry["client_ip"])
	}
	if entry["user_agent"] != "curl/8.5.0" {
		t.Errorf("user_agent = %v", entry["user_agent"])
	}
	if entry["file"] != "cia.csv" {
		t.Errorf("file = %v", entry["file"])
	}
}
