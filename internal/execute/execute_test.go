package execute

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alpeshvas/siphon/internal/config"
)

const testSpec = `
request:
  path: /api/products
extract:
  id: $.data.id
  names: $.data.items[*].name
`

const testBody = `{"data": {"id": "prod_123", "items": [{"name": "a"}, {"name": "b"}]}}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func runToString(t *testing.T, cfg *config.Config) (string, string, int) {
	t.Helper()
	var out, errOut strings.Builder
	r := New(cfg)
	r.SetOutput(&out)
	r.SetErrorOutput(&errOut)
	code := r.Run(context.Background())
	return out.String(), errOut.String(), code
}

func TestRunWithInputFile(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		SpecFile:  writeFile(t, "spec.yaml", testSpec),
		InputFile: writeFile(t, "doc.json", testBody),
	}

	out, errOut, code := runToString(t, cfg)
	if code != 0 {
		t.Fatalf("Run() = %d, stderr: %s", code, errOut)
	}

	want := `{
  "id": "prod_123",
  "names": [
    "a",
    "b"
  ]
}
`
	if out != want {
		t.Fatalf("output = %q, want %q", out, want)
	}
}

func TestRunFetches(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/products" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(testBody))
	}))
	defer server.Close()

	cfg := &config.Config{
		SpecFile: writeFile(t, "spec.yaml", testSpec),
		BaseURL:  server.URL,
	}

	out, errOut, code := runToString(t, cfg)
	if code != 0 {
		t.Fatalf("Run() = %d, stderr: %s", code, errOut)
	}
	if !strings.Contains(out, `"prod_123"`) {
		t.Fatalf("output = %s", out)
	}
}

func TestRunBadSpec(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		SpecFile:  writeFile(t, "spec.yaml", "extract:\n  broken:\n    select:\n      x: $.a\n"),
		InputFile: writeFile(t, "doc.json", testBody),
	}

	_, errOut, code := runToString(t, cfg)
	if code == 0 {
		t.Fatal("Run() = 0, want failure")
	}
	if !strings.Contains(errOut, "path") {
		t.Fatalf("stderr = %s", errOut)
	}
}

func TestRunMalformedInput(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		SpecFile:  writeFile(t, "spec.yaml", testSpec),
		InputFile: writeFile(t, "doc.json", "not json"),
	}

	if _, _, code := runToString(t, cfg); code == 0 {
		t.Fatal("Run() = 0, want failure")
	}
}
