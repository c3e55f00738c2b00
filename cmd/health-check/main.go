// health-check performs a one-shot md RAID health check for Greenboot
// integration. Exits 0 if the verdict is below the threshold, 1 otherwise.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/addisonbair/mdraid-sidecars/pkg/check"
	"github.com/addisonbair/mdraid-sidecars/pkg/config"
	"github.com/addisonbair/mdraid-sidecars/pkg/log"
	"github.com/addisonbair/mdraid-sidecars/pkg/raid"
	"github.com/addisonbair/mdraid-sidecars/pkg/status"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall timeout for all checks")
	device := flag.String("raid-device", "", "MD device to check, or 'all'")
	spareOK := flag.Bool("raid-spare-ok", false, "Treat spare devices as OK")
	threshold := flag.String("threshold", "critical", "Lowest severity that fails the check")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := config.ApplyEnvOverrides(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "raid-device":
			cfg.Raid.Device = *device
		case "raid-spare-ok":
			cfg.Raid.SpareOK = *spareOK
		}
	})
	cfg.Inhibit.Threshold = *threshold

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := log.SetLevel(cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	target, _ := cfg.Target()
	minSeverity, _ := cfg.Threshold()

	checks := []check.Checker{
		raid.NewChecker(cfg.Raid.SysfsRoot, cfg.Raid.DevRoot,
			raid.WithTarget(target),
			raid.WithTimeout(cfg.ReadTimeout()),
			raid.WithSpareOK(cfg.Raid.SpareOK),
		),
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	results := check.RunAll(ctx, checks)

	exitCode := 0
	for _, r := range results {
		line := status.Line(r.Name, r.Severity, r.Reason)
		if r.Severity >= minSeverity {
			fmt.Printf("✗ %s\n", line)
			exitCode = 1
		} else {
			fmt.Printf("✓ %s\n", line)
		}
	}

	if exitCode == 0 {
		fmt.Println("All checks passed")
	} else {
		fmt.Println("Some checks failed")
	}

	os.Exit(exitCode)
}
