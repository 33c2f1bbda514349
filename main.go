package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/stagediff/stagediff/internal/alert"
	"github.com/stagediff/stagediff/internal/app"
	"github.com/stagediff/stagediff/internal/cli"
	"github.com/stagediff/stagediff/internal/logging"
	"github.com/stagediff/stagediff/internal/server"
	"github.com/stagediff/stagediff/internal/webclient"
)

func main() {
	args, err := cli.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "stagediff: %v\n", err)
		os.Exit(2)
	}

	logger := logging.NewStdoutLogger("stagediff")

	cfg := app.DefaultConfig()
	cfg.ListenAddr = args.Addr
	cfg.DBPath = args.DBPath
	cfg.Preset = args.Preset
	cfg.WebClientCfg.Backend = webclient.Backend(args.Backend)
	if args.Concurrency > 0 {
		cfg.MaxConcurrency = args.Concurrency
	}

	if args.Serve {
		runServer(cfg, logger)
		return
	}

	runOnce(cfg, logger, args)
}

func runOnce(cfg *app.Config, logger logging.Logger, args *cli.CLIArgs) {
	a, err := app.New(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stagediff: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	record, err := a.Run(ctx, app.RunRequest{DevURL: args.DevURL, ProdURL: args.ProdURL},
		func(stage app.Stage, detail string) {
			logger.Info("progress",
				logging.Field{Key: "stage", Value: string(stage)},
				logging.Field{Key: "detail", Value: detail})
		})
	if err != nil {
		fmt.Fprintf(os.Stderr, "stagediff: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		fmt.Fprintf(os.Stderr, "stagediff: encoding report: %v\n", err)
		os.Exit(1)
	}

	for _, al := range record.Alerts {
		if al.Severity == alert.SeverityError {
			a.Close()
			os.Exit(1)
		}
	}
}

func runServer(cfg *app.Config, logger logging.Logger) {
	s, err := server.NewServer(server.Config{
		ListenAddr: cfg.ListenAddr,
		AppConfig:  cfg,
		Logger:     logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "stagediff: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	logger.Info("listening", logging.Field{Key: "addr", Value: cfg.ListenAddr})
	if err := s.HTTPServer().ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "stagediff: %v\n", err)
		os.Exit(1)
	}
}
