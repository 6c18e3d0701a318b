// Package config parses command line arguments for the siphon tool.
package config

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/alpeshvas/siphon/internal/exit"
)

// DefaultTimeout is the default timeout for HTTP requests.
const DefaultTimeout = 30 * time.Second

// Version is stamped at build time.
var Version = "dev"

var (
	ErrNoArguments  = errors.New("no arguments provided")
	ErrNoSpecFile   = errors.New("no spec file specified")
	ErrNoSource     = errors.New("either --url or --input must be specified")
	ErrBothSources  = errors.New("--url and --input are mutually exclusive")
	ErrManySpecArgs = errors.New("exactly one spec file expected")
)

// Config is the complete configuration for one siphon invocation.
type Config struct {
	SpecFile string

	// Document source: fetch from BaseURL or read InputFile.
	BaseURL   string
	InputFile string

	// HTTP client configuration.
	Insecure       bool
	CACertFile     string
	RequestTimeout time.Duration
	RateLimit      float64 // requests per second, 0 for unlimited

	Debug bool
}

// TLSConfig returns a TLS configuration based on the config settings.
func (c *Config) TLSConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: c.Insecure,
	}

	if c.CACertFile != "" {
		caCertPool, err := x509.SystemCertPool()
		if err != nil {
			caCertPool = x509.NewCertPool()
		}

		caCert, err := os.ReadFile(c.CACertFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate file %s: %w", c.CACertFile, err)
		}

		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate from %s", c.CACertFile)
		}

		tlsConfig.RootCAs = caCertPool
	}

	return tlsConfig, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.SpecFile == "" {
		return ErrNoSpecFile
	}
	if _, err := os.Stat(c.SpecFile); err != nil {
		return fmt.Errorf("spec file %s not found: %w", c.SpecFile, err)
	}

	if c.BaseURL == "" && c.InputFile == "" {
		return ErrNoSource
	}
	if c.BaseURL != "" && c.InputFile != "" {
		return ErrBothSources
	}

	if c.InputFile != "" {
		if _, err := os.Stat(c.InputFile); err != nil {
			return fmt.Errorf("input file %s not found: %w", c.InputFile, err)
		}
	}

	if c.CACertFile != "" {
		if _, err := os.Stat(c.CACertFile); err != nil {
			return fmt.Errorf("CA certificate file %s not found: %w", c.CACertFile, err)
		}
	}

	return nil
}

// Parse parses command line arguments into a Config. The second return
// value is non-nil when the process should terminate immediately (help,
// version, or a usage error).
func Parse(args []string) (*Config, *exit.Result) {
	if len(args) == 0 {
		return nil, exit.Errorf("Error: %v\n\n%s", ErrNoArguments, Usage())
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, Usage())
	}

	var (
		baseURL    = fs.String("url", "", "Base URL to fetch the document from")
		inputFile  = fs.String("input", "", "Read the document from a JSON file instead of fetching")
		debug      = fs.Bool("debug", false, "Show request and response details")
		insecure   = fs.Bool("insecure", false, "Skip TLS certificate verification")
		caCertFile = fs.String("cacert", "", "Path to CA certificate file")
		timeout    = fs.Duration("timeout", DefaultTimeout, "HTTP request timeout")
		rateLimit  = fs.Float64("rate-limit", 0, "Rate limit in requests per second")
		help       = fs.Bool("h", false, "Show help")
		version    = fs.Bool("v", false, "Show version")
	)

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, exit.Success(Usage() + "\n")
		}
		return nil, exit.Errorf("Error: failed to parse arguments: %v\n\n%s", err, Usage())
	}

	if *help {
		return nil, exit.Success(Usage() + "\n")
	}
	if *version {
		return nil, exit.Success(fmt.Sprintf("siphon %s\n", Version))
	}

	files := fs.Args()
	if len(files) == 0 {
		return nil, exit.Errorf("Error: %v\n\n%s", ErrNoSpecFile, Usage())
	}
	if len(files) > 1 {
		return nil, exit.Errorf("Error: %v, got %d\n\n%s", ErrManySpecArgs, len(files), Usage())
	}

	config := &Config{
		SpecFile:       files[0],
		BaseURL:        *baseURL,
		InputFile:      *inputFile,
		Insecure:       *insecure,
		CACertFile:     *caCertFile,
		RequestTimeout: *timeout,
		RateLimit:      *rateLimit,
		Debug:          *debug,
	}

	if err := config.Validate(); err != nil {
		return nil, exit.Errorf("Error: %v\n\n%s", err, Usage())
	}

	return config, nil
}

// Usage returns a usage string for the CLI tool.
func Usage() string {
	return `siphon - declarative JSON extraction

Usage: siphon [options] <spec.yaml>

Options:
  --url BASE            Base URL to fetch the document from; the spec's
                        request path is appended
  --input FILE          Read the document from a JSON file instead of fetching
  --debug               Show request and response details
  --insecure            Skip TLS certificate verification
  --cacert FILE         Path to CA certificate file for TLS verification
  --timeout DURATION    HTTP request timeout (default: 30s)
  --rate-limit N        Rate limit in requests per second (0 for unlimited)
  -h, --help            Show this help message
  -v, --version         Show version information

Examples:
  siphon --url https://api.example.com spec.yaml   # Fetch and extract
  siphon --input response.json spec.yaml           # Extract from a local file
  siphon --url https://api.example.com --debug spec.yaml`
}
