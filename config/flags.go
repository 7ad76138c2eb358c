package config

import "flag"

var (
	flagConfig = flag.String("config", "", "Path to config file")
	flagDebug  = flag.Bool("debug", false, "Enable debug logging")
	flagBinary = flag.Bool("binary", false, "Write the compressed binary encoding")
	flagText   = flag.Bool("text", false, "Write the tokenized text encoding")
	flagSiege  = flag.Bool("siege", false, "Use the streamed-skeleton model layout")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path given via --config.
func ConfigPath() string {
	return *flagConfig
}

// FlagSet reports whether the named flag was given on the command line.
func FlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagBinary {
		cfg.Export.Binary = true
	}
	if *flagText {
		cfg.Export.Binary = false
	}
	if *flagSiege {
		cfg.Export.Siege = true
	}
}
