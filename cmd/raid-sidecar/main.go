// raid-sidecar prevents shutdown while md arrays are degraded, rebuilding or
// otherwise unhealthy. This runs on the host, not in a container.
package main

import (
	"context"
	"os"
	"strconv"
	"time"

	sidecar "github.com/addisonbair/go-systemd-sidecar"

	"github.com/addisonbair/mdraid-sidecars/pkg/config"
	"github.com/addisonbair/mdraid-sidecars/pkg/log"
	"github.com/addisonbair/mdraid-sidecars/pkg/raid"
	"github.com/addisonbair/mdraid-sidecars/pkg/status"
)

func main() {
	cfg, err := config.LoadOrDefault(getEnv("MDRAID_CONFIG", ""))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if err := config.ApplyEnvOverrides(cfg); err != nil {
		log.Fatal().Err(err).Msg("Invalid environment")
	}
	if v := os.Getenv("INHIBIT_THRESHOLD"); v != "" {
		cfg.Inhibit.Threshold = v
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if err := log.SetLevel(cfg.Log.Level); err != nil {
		log.Fatal().Err(err).Msg("Invalid log level")
	}
	if cfg.Log.Journal || getBool("LOG_JOURNAL", false) {
		log.UseJournal()
	}

	target, _ := cfg.Target()
	threshold, _ := cfg.Threshold()

	checker := &raidChecker{
		raid: raid.NewChecker(cfg.Raid.SysfsRoot, cfg.Raid.DevRoot,
			raid.WithTarget(target),
			raid.WithTimeout(cfg.ReadTimeout()),
			raid.WithSpareOK(cfg.Raid.SpareOK),
		),
		threshold: threshold,
	}

	log.Info().
		Str("target", target.String()).
		Stringer("threshold", threshold).
		Msg("Starting raid-sidecar")

	sidecar.MustRun(context.Background(), checker, sidecar.Options{
		InhibitWhat:  getEnv("INHIBIT_WHAT", "shutdown"),
		PollInterval: getDuration("POLL_INTERVAL", 30*time.Second),
		NotifyReady:  getBool("NOTIFY_READY", true),
		NotifyStatus: true,
	})
}

// raidChecker adapts the severity verdict to the sidecar's block/allow
// decision.
type raidChecker struct {
	raid      *raid.Checker
	threshold status.Severity
}

func (c *raidChecker) Name() string {
	return c.raid.Name()
}

func (c *raidChecker) Check(ctx context.Context) (bool, string, error) {
	sev, msg, err := c.raid.Check(ctx)
	if err != nil {
		return false, "", err
	}

	if sev >= c.threshold {
		return true, status.Line("MDRAID", sev, msg), nil
	}

	return false, "", nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
