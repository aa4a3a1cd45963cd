package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bpfcontain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bpfcontain.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoadConfigMergesDefaults(t *testing.T) {
	path := writeConfig(t, "pin_path: /sys/fs/bpf/custom\naudit:\n  buffer: 16\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.PinPath != "/sys/fs/bpf/custom" {
		t.Errorf("PinPath = %q", cfg.PinPath)
	}
	if cfg.Audit.Buffer != 16 || !cfg.Audit.Enabled {
		t.Errorf("Audit = %+v", cfg.Audit)
	}
	if cfg.Uprobe.Symbol != bpfcontain.UprobeSymbol || cfg.Uprobe.Binary != "/proc/self/exe" {
		t.Errorf("Uprobe defaults lost: %+v", cfg.Uprobe)
	}
	if got := cfg.MapPath("containers"); got != "/sys/fs/bpf/custom/containers" {
		t.Errorf("MapPath = %q", got)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"relative pin path", "pin_path: bpf\n", "must be absolute"},
		{"empty symbol", "uprobe:\n  symbol: \"\"\n", "uprobe.symbol"},
		{"empty binary", "uprobe:\n  binary: \"\"\n", "uprobe.binary"},
		{"zero buffer", "audit:\n  buffer: 0\n", "audit.buffer"},
		{"bad yaml", "pin_path: [\n", "parse config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadConfigDisabledAuditIgnoresBuffer(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "audit:\n  enabled: false\n  buffer: 0\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Audit.Enabled {
		t.Fatalf("audit should be disabled")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestString(t *testing.T) {
	s := DefaultConfig().String()
	if !strings.Contains(s, "/sys/fs/bpf/bpfcontain") || !strings.Contains(s, bpfcontain.UprobeSymbol) {
		t.Fatalf("String() = %q", s)
	}
}
