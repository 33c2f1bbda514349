// Package cli parses command-line arguments for the stagediff binary.
package cli

import (
	"flag"
	"fmt"
	"strings"
)

// CLIArgs are the command-line arguments that control a single comparison
// run or the API server. Keep this small; add fields as modules need them.
type CLIArgs struct {
	// DevURL and ProdURL are the two renderings to compare. Required
	// unless Serve is set.
	DevURL  string
	ProdURL string

	// Preset selects the alert threshold preset: default|strict.
	Preset string

	// Backend selects the fetch backend: nethttp|chromedp. The -render
	// shorthand forces chromedp.
	Backend string

	// Serve starts the API server instead of running one comparison.
	Serve bool

	// Addr is the HTTP listen address in serve mode.
	Addr string

	// DBPath locates the history database.
	DBPath string

	// Concurrency overrides the resource fetch fan-out; 0 means "use
	// config default".
	Concurrency int

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string
}

// ParseArgs parses a slice of args and returns CLIArgs. Use in tests by
// passing arbitrary slices. The function is deterministic and does not
// read os.Args.
func ParseArgs(args []string) (*CLIArgs, error) {
	fs := flag.NewFlagSet("stagediff", flag.ContinueOnError)
	var (
		devURL      = fs.String("dev", "", "Development environment URL")
		prodURL     = fs.String("prod", "", "Production environment URL")
		preset      = fs.String("preset", "default", "Alert threshold preset: default|strict")
		backend     = fs.String("backend", "nethttp", "Fetch backend: nethttp|chromedp")
		render      = fs.Bool("render", false, "Render pages in headless Chrome (same as -backend chromedp)")
		serve       = fs.Bool("serve", false, "Start the API server instead of running one comparison")
		addr        = fs.String("addr", ":8080", "HTTP listen address in serve mode")
		dbPath      = fs.String("db", "stagediff.db", "Path to the history database")
		concurrency = fs.Int("concurrency", 0, "Resource fetch concurrency for this run (0=use default)")
	)

	// Ensure Parse doesn't write to stdout/stderr in tests
	fs.SetOutput(nil)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *render {
		*backend = "chromedp"
	}

	switch *preset {
	case "default", "strict":
	default:
		return nil, fmt.Errorf("unknown -preset %q (want default or strict)", *preset)
	}

	if !*serve {
		if strings.TrimSpace(*devURL) == "" || strings.TrimSpace(*prodURL) == "" {
			return nil, fmt.Errorf("missing required -dev and -prod arguments")
		}
	}

	return &CLIArgs{
		DevURL:      *devURL,
		ProdURL:     *prodURL,
		Preset:      *preset,
		Backend:     *backend,
		Serve:       *serve,
		Addr:        *addr,
		DBPath:      *dbPath,
		Concurrency: *concurrency,
		RawArgs:     args,
	}, nil
}
