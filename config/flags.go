package config

import "github.com/spf13/pflag"

var CliArgs *CliConfig

type CliConfig struct {
	ConfigFile string
	BackendURL string
	Debug      bool
	Headless   bool
	Version    bool
}

const DefaultBackendURL = "https://backend.beammp.com"

func ParseArgs() {
	if CliArgs != nil {
		panic("already defined")
	}
	CliArgs = &CliConfig{}
	pflag.StringVar(&CliArgs.ConfigFile, "config", DefaultFileName, "Path to the config file")
	pflag.StringVar(&CliArgs.BackendURL, "backend", DefaultBackendURL, "Server list backend base URL")
	pflag.BoolVarP(&CliArgs.Debug, "debug", "d", false, "Enable debug mode")
	pflag.BoolVar(&CliArgs.Headless, "headless", false, "Run without the console UI")
	pflag.BoolVarP(&CliArgs.Version, "version", "v", false, "Print version and exit")
	pflag.Parse()
}
