// itmdump reads data from an ARM Cortex-M ITM trace stream and decodes
// it, forwarding payload bytes for one stimulus port to standard
// output. Input is a file or named pipe, a TCP SWO server, or standard
// input.
package main

import (
	"flag"
	"fmt"
	"os"

	"itmdump/common"
	"itmdump/internal/config"
	"itmdump/internal/dump"
	"itmdump/internal/source"
	"itmdump/internal/version"
)

func main() {
	var (
		file        string
		tcpAddr     string
		follow      bool
		stimulus    uint
		interval    = flag.Duration("interval", 0, "Pause between retries in follow mode (default 100ms)")
		configPath  = flag.String("config", "", "Path to a TOML config file with defaults")
		metricsAddr = flag.String("metrics", "", "Listen address for Prometheus metrics (disabled if empty)")
		list        = flag.Bool("list", false, "Print one line per decoded packet instead of forwarding payload bytes")
		verbose     = flag.Bool("v", false, "Enable debug logging (shows skipped unknown header bytes)")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.StringVar(&file, "file", "", "Path to file (or named pipe) to read from; standard input if unset")
	flag.StringVar(&file, "f", "", "Shorthand for -file")
	flag.StringVar(&tcpAddr, "tcp", "", "TCP address of an SWO/ITM server to read from (e.g. localhost:3344)")
	flag.BoolVar(&follow, "follow", false, "Keep the file open after reading through it and decode new data as it is written, like tail -f")
	flag.BoolVar(&follow, "F", false, "Shorthand for -follow")
	flag.UintVar(&stimulus, "stimulus", 0, "Stimulus port to extract ITM data for")
	flag.UintVar(&stimulus, "s", 0, "Shorthand for -stimulus")

	flag.Parse()

	if *showVersion {
		fmt.Printf("itmdump %s (%s)\n", version.VERSION, version.Commit)
		return
	}

	if stimulus > 255 {
		fmt.Fprintf(os.Stderr, "Error: stimulus port %d out of range 0-255\n", stimulus)
		os.Exit(1)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Flags given on the command line override config file values.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "stimulus", "s":
			cfg.Stimulus = uint8(stimulus)
		case "follow", "F":
			cfg.Follow = follow
		case "interval":
			cfg.RetryInterval = *interval
		case "metrics":
			cfg.MetricsAddr = *metricsAddr
		}
	})

	level, err := common.ParseSeverity(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		level = common.SeverityDebug
	}
	log := common.NewZerologLogger(os.Stderr, level)

	err = dump.Run(dump.Config{
		Source:        source.Options{Path: file, TCPAddr: tcpAddr},
		Stimulus:      cfg.Stimulus,
		Follow:        cfg.Follow,
		RetryInterval: cfg.RetryInterval,
		List:          *list,
		MetricsAddr:   cfg.MetricsAddr,
		Log:           log,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
