// raid-inhibitor monitors md RAID health and holds a logind inhibitor lock
// while arrays are degraded or rebuilding, preventing shutdown and updates.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/addisonbair/mdraid-sidecars/pkg/check"
	"github.com/addisonbair/mdraid-sidecars/pkg/config"
	"github.com/addisonbair/mdraid-sidecars/pkg/inhibitor"
	"github.com/addisonbair/mdraid-sidecars/pkg/log"
	"github.com/addisonbair/mdraid-sidecars/pkg/raid"
	"github.com/addisonbair/mdraid-sidecars/pkg/status"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	device := flag.String("device", "", "MD device to watch, or 'all'")
	spareOK := flag.Bool("spare-ok", false, "Treat spare devices as OK")
	interval := flag.Duration("interval", 0, "Check interval (default 60s)")
	checkTimeout := flag.Duration("check-timeout", 30*time.Second, "Timeout for each check cycle")
	threshold := flag.String("threshold", "", "Lowest severity that takes the lock: warning or critical")
	inhibitorWho := flag.String("inhibitor-who", "", "Inhibitor 'who' field")
	inhibitorWhat := flag.String("inhibitor-what", "", "What to inhibit")
	verbose := flag.Bool("verbose", false, "Verbose logging")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if err := config.ApplyEnvOverrides(cfg); err != nil {
		log.Fatal().Err(err).Msg("Invalid environment")
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device":
			cfg.Raid.Device = *device
		case "spare-ok":
			cfg.Raid.SpareOK = *spareOK
		case "interval":
			cfg.Inhibit.Interval = int(interval.Seconds())
		case "threshold":
			cfg.Inhibit.Threshold = *threshold
		case "inhibitor-who":
			cfg.Inhibit.Who = *inhibitorWho
		case "inhibitor-what":
			cfg.Inhibit.What = *inhibitorWhat
		}
	})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if err := log.SetLevel(cfg.Log.Level); err != nil {
		log.Fatal().Err(err).Msg("Invalid log level")
	}
	if *verbose {
		log.SetDebugMode()
	}
	if cfg.Log.Journal {
		log.UseJournal()
	}

	target, _ := cfg.Target()
	minSeverity, _ := cfg.Threshold()

	checker := raid.NewChecker(cfg.Raid.SysfsRoot, cfg.Raid.DevRoot,
		raid.WithTarget(target),
		raid.WithTimeout(cfg.ReadTimeout()),
		raid.WithSpareOK(cfg.Raid.SpareOK),
	)

	lock := inhibitor.New(cfg.Inhibit.Who, "RAID array unhealthy")
	lock.What = cfg.Inhibit.What
	lock.Mode = cfg.Inhibit.Mode
	defer lock.Close()

	runner := &check.Runner{
		Checks:    []check.Checker{checker},
		Interval:  cfg.InhibitInterval(),
		Timeout:   *checkTimeout,
		Threshold: minSeverity,
		Lock:      lock,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info().Stringer("signal", sig).Msg("Received signal, releasing inhibitor and exiting")
		cancel()
	}()

	log.Info().
		Str("target", target.String()).
		Dur("interval", runner.Interval).
		Stringer("threshold", minSeverity).
		Str("what", lock.What).
		Msg("raid-inhibitor starting")

	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Runner exited with error")
	}

	log.Info().Msg("Shutdown complete")
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "raid-inhibitor watches md RAID arrays and holds a systemd inhibitor\n")
		fmt.Fprintf(os.Stderr, "lock while the verdict is at or above the threshold (%s by default).\n\n", status.Warning)
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Watch every array, block only on critical failures\n")
		fmt.Fprintf(os.Stderr, "  %s -threshold=critical\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Watch md0 with a config file\n")
		fmt.Fprintf(os.Stderr, "  %s -config=/etc/mdraid-sidecars.yaml -device=md0\n", os.Args[0])
	}
}
