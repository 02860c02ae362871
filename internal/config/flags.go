package config

import "github.com/spf13/pflag"

// Flags holds command-line overrides. Zero values leave the config alone.
type Flags struct {
	Config     string
	Debug      bool
	Server     string
	Listen     string
	Transport  string
	Topic      string
	LogFile    string
	MaxHistory int
}

// Register adds the flags to fs.
func (f *Flags) Register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.Config, "config", "c", "", "Path to config file")
	fs.BoolVarP(&f.Debug, "debug", "d", false, "Enable debug logging")
	fs.StringVar(&f.Server, "server", "", "Scene server base URL")
	fs.StringVar(&f.Listen, "listen", "", "Scene server listen address")
	fs.StringVar(&f.Transport, "transport", "", "Update transport (websocket, valkey)")
	fs.StringVar(&f.Topic, "topic", "", "Update topic")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.IntVar(&f.MaxHistory, "max-history", 0, "Maximum undo history entries")
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Server != "" {
		cfg.Network.Server = f.Server
	}
	if f.Listen != "" {
		cfg.Network.Listen = f.Listen
	}
	if f.Transport != "" {
		cfg.Network.Transport = f.Transport
	}
	if f.Topic != "" {
		cfg.Network.Topic = f.Topic
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.MaxHistory > 0 {
		cfg.History.MaxEntries = f.MaxHistory
	}
}
