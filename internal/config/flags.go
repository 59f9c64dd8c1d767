package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile = flag.String("log-file", "", "Write logs to this file (rotated)")
	flagAddr    = flag.String("addr", "", "Websocket listen address")
	flagSeed    = flag.Int64("seed", 0, "Seed for generated meshes")
)

// flagsSet holds the names of flags given on the command line.
var flagsSet = map[string]bool{}

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
	flag.Visit(func(f *flag.Flag) {
		flagsSet[f.Name] = true
	})
}

// Args returns the arguments left after the global flags.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagAddr != "" {
		cfg.Server.Addr = *flagAddr
	}
	if flagsSet["seed"] {
		cfg.Generate.Seed = *flagSeed
	}
}
