// Command pdusim runs the dual Power Distribution Unit simulator: it
// parses CLI flags and an optional ICD YAML file, then hands off to the
// Supervisor for the lifetime of the process.
package main

import (
	"fmt"
	"os"

	"github.com/GoAethereal/cancel"
	"github.com/charmbracelet/log"

	"github.com/stratos-avionics/pdusim/internal/config"
	"github.com/stratos-avionics/pdusim/internal/supervisor"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := log.Default()
	s := supervisor.New(cfg, logger)

	ctx := cancel.New()
	if err := s.Run(ctx); err != nil {
		logger.Error("pdusim exited with error", "err", err)
		os.Exit(1)
	}
}
