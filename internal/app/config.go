package app

import (
	"time"

	"github.com/stagediff/stagediff/internal/fetcher"
	"github.com/stagediff/stagediff/internal/resource"
	"github.com/stagediff/stagediff/internal/urlutil"
	"github.com/stagediff/stagediff/internal/webclient"
)

// Config contains the runtime configuration shared by the CLI and the API
// server. Keep this small; add fields as wiring requires them.
type Config struct {
	// ListenAddr is the HTTP listen address when running in serve mode.
	ListenAddr string

	// DBPath locates the comparison history database.
	DBPath string

	// Preset selects the threshold preset: "default" or "strict".
	Preset string

	// Marker overrides the static-asset path marker; "" selects the default.
	Marker string

	// DenySegments skips generated-artifact folders in resource trees.
	DenySegments []string

	// WebClientCfg selects and configures the fetch backend.
	WebClientCfg webclient.Config

	// MaxConcurrency bounds the per-comparison resource fetch fan-out.
	MaxConcurrency int

	// URLCfg controls canonicalization of the dev/prod URLs.
	URLCfg urlutil.CanonicalizeOptions
}

// DefaultConfig returns a Config populated with sensible development defaults.
func DefaultConfig() *Config {
	return &Config{
		ListenAddr: ":8080",
		DBPath:     "stagediff.db",
		Preset:     "default",
		Marker:     resource.DefaultMarker,
		WebClientCfg: webclient.Config{
			Backend: webclient.BackendNetHTTP,
			Timeout: 30 * time.Second,
		},
		MaxConcurrency: fetcher.DefaultMaxConcurrency,
		URLCfg: urlutil.CanonicalizeOptions{
			StripTrailingSlash: true,
			DefaultScheme:      "https",
		},
	}
}
