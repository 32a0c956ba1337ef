package config

import (
	"flag"
	"io"
)

// Flags command line options.
type Flags struct {
	ConfigPath string
	Setup      bool
	EnvFile    string
	History    bool
}

// ParseFlags parses args (without the program name).
func ParseFlags(args []string, output io.Writer) (Flags, error) {
	var f Flags

	fs := flag.NewFlagSet("krakendca", flag.ContinueOnError)
	if output != nil {
		fs.SetOutput(output)
	}
	fs.StringVar(&f.ConfigPath, "config", DefaultPath, "path to yaml config")
	fs.BoolVar(&f.Setup, "setup", false, "run the configuration wizard and write the config file")
	fs.BoolVar(&f.History, "history", false, "print the recorded run history as JSON lines and exit")
	fs.StringVar(&f.EnvFile, "env", ".env", "dotenv file with KRAKEN_API_KEY, KRAKEN_API_SECRET, KRAKEN_API_BASE, DISCORD_WEBHOOK_URL")

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}
	return f, nil
}
