package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/noah-isme/checkout-pricing/internal/config"
	"github.com/noah-isme/checkout-pricing/internal/migrations"
	"github.com/noah-isme/checkout-pricing/internal/obs"
)

func main() {
	steps := flag.Int("steps", 0, "apply n migrations (negative rolls back)")
	force := flag.Int("force", -1, "force the schema version without migrating")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate [flags] up|down|version\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel)

	m, err := migrations.New(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open migrations")
	}
	defer func() {
		if err := m.Close(); err != nil {
			logger.Error().Err(err).Msg("close migrations")
		}
	}()

	switch {
	case *force >= 0:
		err = m.Force(*force)
	case *steps != 0:
		err = m.Steps(*steps)
	default:
		switch flag.Arg(0) {
		case "", "up":
			err = m.Up()
		case "down":
			err = m.Down()
		case "version":
			var (
				version uint
				dirty   bool
			)
			version, dirty, err = m.Version()
			if err == nil {
				logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("schema version")
			}
		default:
			flag.Usage()
			os.Exit(2)
		}
	}
	if err != nil {
		logger.Error().Err(err).Msg("migrate")
		os.Exit(1)
	}
}
