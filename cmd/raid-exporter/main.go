// raid-exporter serves the md RAID verdict and per-array snapshots as JSON
// over HTTP.
package main

import (
	"flag"

	"github.com/addisonbair/mdraid-sidecars/pkg/config"
	"github.com/addisonbair/mdraid-sidecars/pkg/log"
	"github.com/addisonbair/mdraid-sidecars/pkg/raid"
	"github.com/addisonbair/mdraid-sidecars/pkg/server"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	addr := flag.String("addr", "", "Listen address (default :9275)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("Failed to load config")
	}
	if err := config.ApplyEnvOverrides(cfg); err != nil {
		log.Fatal().Err(err).Msg("Invalid environment")
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	if err := log.SetLevel(cfg.Log.Level); err != nil {
		log.Fatal().Err(err).Msg("Invalid log level")
	}
	if *debug {
		log.SetDebugMode()
	}
	if cfg.Log.Journal && log.UseJournal() {
		log.Debug().Msg("Logging to journald")
	}

	target, _ := cfg.Target()
	checker := raid.NewChecker(cfg.Raid.SysfsRoot, cfg.Raid.DevRoot,
		raid.WithTarget(target),
		raid.WithTimeout(cfg.ReadTimeout()),
		raid.WithSpareOK(cfg.Raid.SpareOK),
	)

	if err := server.New(checker).Start(cfg.Server.Addr); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
