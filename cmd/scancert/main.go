// scancert - Scanner driver certification harness
//
// scancert runs a certification session against an installed scanner
// driver and records the outcome in a results journal:
//
//	scancert                       Run with the default configuration
//	scancert -config cert.toml     Run with an explicit configuration
//
// On Windows the harness owns a native message loop on the starting
// thread: the driver posts notifications through the process message
// queue, and the harness intercepts the ones addressed to the session
// before normal dispatch. On other platforms the session runs
// synchronously with no message loop.
package main

import (
	"flag"
	"fmt"
	"os"

	"scancert/internal/config"
	"scancert/internal/logging"
	"scancert/internal/platform"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("scancert", flag.ContinueOnError)
	configPath := fs.String("config", "", "configuration file (TOML, JSON, or YAML)")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	loader := config.NewLoader(*configPath)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Printf("scancert: cannot load configuration: %v\n", err)
		return 1
	}
	defer loader.Close()

	steps, err := cfg.PlanSteps()
	if err != nil {
		fmt.Printf("scancert: cannot load session profile: %v\n", err)
		return 1
	}

	// Only a configuration failure is startup-fatal; an unopenable log
	// destination downgrades to stderr and the run proceeds.
	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scancert: cannot open log output: %v; logging to stderr\n", err)
		logger = logging.Default()
	}
	defer logger.Close()
	logging.SetDefault(logger)

	// Log-level changes apply without a restart; everything else in
	// the config is fixed for the run.
	loader.OnChange(func(c *config.Config) {
		if level, err := logging.ParseLevel(c.Logging.Level); err == nil {
			logger.SetLevel(level)
		}
	})
	if err := loader.Watch(); err != nil {
		logger.Warn("config watch unavailable", "error", err)
	} else {
		go func() {
			for err := range loader.Errors() {
				logger.Warn("config reload failed", "error", err)
			}
		}()
	}

	mode := platform.Detect()
	logger.Info("scancert starting",
		"mode", mode.String(), "driver", cfg.Driver.Name, "steps", len(steps))

	if err := runSession(cfg, steps, logger); err != nil {
		// The exit code reflects harness startup, not the
		// certification verdict; that lives in the journal.
		logger.Error("certification session error", "error", err)
	}

	logger.Info("scancert exiting")
	return 0
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = level
	logCfg.Format = format
	if cfg.Logging.Output != "" {
		logCfg.Output = cfg.Logging.Output
	}
	if cfg.Logging.FilePath != "" {
		logCfg.FilePath = cfg.Logging.FilePath
	}
	return logging.New(logCfg)
}
