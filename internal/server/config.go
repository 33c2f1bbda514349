package server

import (
	"github.com/stagediff/stagediff/internal/app"
	"github.com/stagediff/stagediff/internal/logging"
)

type Config struct {
	// ListenAddr is the HTTP listen address for the API server (the CLI
	// runs comparisons in-process and does not require the network).
	ListenAddr string

	// AppConfig configures the comparison pipeline. nil selects defaults.
	AppConfig *app.Config

	// Logger receives request and pipeline logs. nil selects stdout.
	Logger logging.Logger
}
