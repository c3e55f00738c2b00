// check_mdraid checks the state of one or all Linux software RAID devices
// and reports the verdict as a monitoring plugin: one status line on stdout
// and the matching exit code.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/addisonbair/mdraid-sidecars/pkg/config"
	"github.com/addisonbair/mdraid-sidecars/pkg/log"
	"github.com/addisonbair/mdraid-sidecars/pkg/raid"
	"github.com/addisonbair/mdraid-sidecars/pkg/status"
)

const pluginName = "MDRAID"

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	spareOK := flag.Bool("spare-ok", false, "Treat spare devices as OK")
	timeout := flag.Duration("timeout", 0, "Timeout for each sysfs read (default 3s)")
	verbose := flag.Bool("v", false, "Verbose (debug) logging on stderr")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		die(err.Error())
	}
	if err := config.ApplyEnvOverrides(cfg); err != nil {
		die(err.Error())
	}

	switch flag.NArg() {
	case 0:
	case 1:
		cfg.Raid.Device = flag.Arg(0)
	default:
		flag.Usage()
		die("too many arguments")
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "spare-ok":
			cfg.Raid.SpareOK = *spareOK
		case "timeout":
			cfg.Raid.Timeout = int((*timeout + time.Second - 1) / time.Second)
		}
	})

	if err := log.SetLevel(cfg.Log.Level); err != nil {
		die(err.Error())
	}
	if *verbose {
		log.SetDebugMode()
	}

	target, err := cfg.Target()
	if err != nil {
		die(fmt.Sprintf("Device %q is not a valid MD device.", cfg.Raid.Device))
	}
	if err := cfg.Validate(); err != nil {
		die(err.Error())
	}

	checker := raid.NewChecker(cfg.Raid.SysfsRoot, cfg.Raid.DevRoot,
		raid.WithTarget(target),
		raid.WithTimeout(cfg.ReadTimeout()),
		raid.WithSpareOK(cfg.Raid.SpareOK),
	)

	if !target.All {
		if err := checker.Reader.ValidateDevice(target.Name); err != nil {
			die(err.Error())
		}
	}

	sev, msg, err := checker.Check(context.Background())
	if err != nil {
		log.Debug().Err(err).Msg("RAID check failed")
	}
	exit(sev, msg)
}

func exit(sev status.Severity, msg string) {
	fmt.Println(status.Line(pluginName, sev, msg))
	os.Exit(sev.ExitCode())
}

func die(msg string) {
	exit(status.Unknown, msg)
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [<MD device>]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Checks the state of one or all Linux software RAID devices.\n")
		fmt.Fprintf(os.Stderr, "The device is given as 'mdX', '/dev/mdX' or '/sys/block/mdX'; omit it or\n")
		fmt.Fprintf(os.Stderr, "pass 'all' to check every array found in sysfs.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
}
