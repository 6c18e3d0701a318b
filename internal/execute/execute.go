// Package execute wires configuration, spec loading, document acquisition
// and extraction into one run.
package execute

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alpeshvas/siphon/internal/config"
	"github.com/alpeshvas/siphon/internal/document"
	"github.com/alpeshvas/siphon/internal/extract"
	"github.com/alpeshvas/siphon/internal/fetch"
	"github.com/alpeshvas/siphon/internal/spec"
)

// Runner executes a single siphon invocation.
type Runner struct {
	config    *config.Config
	output    io.Writer
	errOutput io.Writer
}

// New creates a Runner writing to stdout/stderr.
func New(cfg *config.Config) *Runner {
	return &Runner{
		config:    cfg,
		output:    os.Stdout,
		errOutput: os.Stderr,
	}
}

func (r *Runner) SetOutput(w io.Writer)      { r.output = w }
func (r *Runner) SetErrorOutput(w io.Writer) { r.errOutput = w }

func (r *Runner) logf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.errOutput, format, args...)
}

// Run loads the spec, acquires the document and prints the extraction
// result as indented JSON. It returns the process exit code.
func (r *Runner) Run(ctx context.Context) int {
	es, err := r.loadSpec()
	if err != nil {
		r.logf("Error: %v\n", err)
		return 1
	}

	result, err := r.extract(ctx, es)
	if err != nil {
		r.logf("Error: %v\n", err)
		return 1
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		r.logf("Error: failed to encode result: %v\n", err)
		return 1
	}

	fmt.Fprintln(r.output, string(payload))
	return 0
}

func (r *Runner) loadSpec() (*spec.ExtractSpec, error) {
	f, err := os.Open(r.config.SpecFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open spec file: %w", err)
	}
	defer f.Close()

	return spec.ParseDocument(f)
}

func (r *Runner) extract(ctx context.Context, es *spec.ExtractSpec) (document.Value, error) {
	if r.config.InputFile != "" {
		f, err := os.Open(r.config.InputFile)
		if err != nil {
			return document.Missing(), fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()

		doc, err := document.Decode(f)
		if err != nil {
			return document.Missing(), err
		}
		return extract.ProcessDocument(es, doc)
	}

	tlsConfig, err := r.config.TLSConfig()
	if err != nil {
		return document.Missing(), err
	}

	var debug io.Writer
	if r.config.Debug {
		debug = r.errOutput
	}

	client := fetch.NewClient(fetch.Options{
		TLSConfig: tlsConfig,
		Timeout:   r.config.RequestTimeout,
		RateLimit: r.config.RateLimit,
		Debug:     debug,
	})

	return fetch.FetchAndProcess(ctx, client, es, r.config.BaseURL)
}
