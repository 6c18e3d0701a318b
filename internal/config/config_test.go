package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSpecFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spec.yaml")
	if err := os.WriteFile(path, []byte("extract:\n  id: $.id\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestParse(t *testing.T) {
	specFile := writeSpecFile(t)

	cfg, result := Parse([]string{"siphon", "--url", "https://api.example.com", "--timeout", "5s", "--rate-limit", "2", specFile})
	if result != nil {
		t.Fatalf("Parse() exit result = %+v", result)
	}

	if cfg.SpecFile != specFile {
		t.Fatalf("SpecFile = %q, want %q", cfg.SpecFile, specFile)
	}
	if cfg.BaseURL != "https://api.example.com" {
		t.Fatalf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Fatalf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.RateLimit != 2 {
		t.Fatalf("RateLimit = %v", cfg.RateLimit)
	}
}

func TestParseInputFile(t *testing.T) {
	specFile := writeSpecFile(t)
	inputFile := filepath.Join(t.TempDir(), "doc.json")
	if err := os.WriteFile(inputFile, []byte(`{"id": 1}`), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, result := Parse([]string{"siphon", "--input", inputFile, specFile})
	if result != nil {
		t.Fatalf("Parse() exit result = %+v", result)
	}
	if cfg.InputFile != inputFile {
		t.Fatalf("InputFile = %q", cfg.InputFile)
	}
}

func TestParseErrors(t *testing.T) {
	specFile := writeSpecFile(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "no_arguments", args: nil},
		{name: "no_spec_file", args: []string{"siphon", "--url", "https://x"}},
		{name: "spec_file_not_found", args: []string{"siphon", "--url", "https://x", "missing.yaml"}},
		{name: "no_source", args: []string{"siphon", specFile}},
		{name: "both_sources", args: []string{"siphon", "--url", "https://x", "--input", specFile, specFile}},
		{name: "multiple_spec_files", args: []string{"siphon", "--url", "https://x", specFile, specFile}},
		{name: "unknown_flag", args: []string{"siphon", "--nope", specFile}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, result := Parse(tt.args)
			if result == nil {
				t.Fatalf("Parse() = %+v, expected exit result", cfg)
			}
			if result.ExitCode == 0 {
				t.Fatalf("Parse() exit code = 0, want non-zero")
			}
		})
	}
}

func TestParseVersionAndHelp(t *testing.T) {
	for _, flagName := range []string{"-v", "-h"} {
		cfg, result := Parse([]string{"siphon", flagName})
		if cfg != nil || result == nil {
			t.Fatalf("Parse(%s) = (%+v, %+v), expected exit result", flagName, cfg, result)
		}
		if result.ExitCode != 0 {
			t.Fatalf("Parse(%s) exit code = %d, want 0", flagName, result.ExitCode)
		}
	}
}

func TestTLSConfig(t *testing.T) {
	cfg := &Config{Insecure: true}
	tlsConfig, err := cfg.TLSConfig()
	if err != nil {
		t.Fatalf("TLSConfig() error = %v", err)
	}
	if !tlsConfig.InsecureSkipVerify {
		t.Fatal("InsecureSkipVerify = false, want true")
	}

	cfg = &Config{CACertFile: "does-not-exist.pem"}
	if _, err := cfg.TLSConfig(); err == nil {
		t.Fatal("TLSConfig() expected error for missing CA file")
	}
}
