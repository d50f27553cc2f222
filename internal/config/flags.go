package config

import "flag"

// Flags holds the command-line overrides shared by geotool subcommands.
type Flags struct {
	ConfigPath string
	Debug      bool
	OutputDir  string
	Compress   bool
	Workers    int
}

// RegisterFlags defines the shared flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.OutputDir, "out", "", "Output directory")
	fs.BoolVar(&f.Compress, "compress", false, "Write zstd compressed .l2j.zst files")
	fs.IntVar(&f.Workers, "workers", 0, "Maps built in parallel")
	return f
}

// Apply applies flag overrides to the config. A nil receiver is a no-op.
func (f *Flags) Apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.OutputDir != "" {
		cfg.Export.OutputDir = f.OutputDir
	}
	if f.Compress {
		cfg.Export.Compress = true
	}
	if f.Workers > 0 {
		cfg.Export.Workers = f.Workers
	}
}
