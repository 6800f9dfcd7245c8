package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// Metrics backends selectable with -metrics-backend.
const (
	MetricsNone     = "none"
	MetricsPrompush = "prompush"
	MetricsDatadog  = "datadog"
)

// Settings are the process-level knobs read from flags with environment
// fallbacks. They pick the pipeline file and the metrics backend.
type Settings struct {
	ConfigPath     string // pipeline JSON; empty runs Default()
	EnvFile        string // optional .env file loaded before flags
	Verbose        bool
	ValidateOnly   bool
	MetricsBackend string
	PushgatewayURL string
	DatadogAddr    string
}

// LoadFromArgs defines flags on fs, seeds each default from getenv and parses
// args. Explicit flags override environment values.
func LoadFromArgs(fs *flag.FlagSet, getenv func(string) string, args []string) (*Settings, error) {
	s := &Settings{}

	envOrDefault := func(k, d string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return d
	}
	boolEnvOrDefault := func(k string, d bool) bool {
		switch strings.ToLower(getenv(k)) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
		return d
	}

	fs.StringVar(&s.ConfigPath, "config", getenv("TITANIC_CONFIG"), "Path to pipeline JSON (optional)")
	fs.StringVar(&s.EnvFile, "env-file", envOrDefault("TITANIC_ENV_FILE", ".env"), "Optional .env file")
	fs.BoolVar(&s.Verbose, "v", boolEnvOrDefault("TITANIC_VERBOSE", false), "Verbose logging")
	fs.BoolVar(&s.ValidateOnly, "validate", false, "Validate the pipeline and exit")
	fs.StringVar(&s.MetricsBackend, "metrics-backend", envOrDefault("METRICS_BACKEND", MetricsNone), "Metrics backend: none|prompush|datadog")
	fs.StringVar(&s.PushgatewayURL, "pushgateway-url", getenv("PUSHGATEWAY_URL"), "Prometheus Pushgateway URL")
	fs.StringVar(&s.DatadogAddr, "datadog-addr", envOrDefault("DD_AGENT_ADDR", "127.0.0.1:8125"), "DogStatsD address")

	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch s.MetricsBackend {
	case MetricsNone, MetricsPrompush, MetricsDatadog:
	default:
		return nil, fmt.Errorf("unknown metrics backend %q", s.MetricsBackend)
	}
	if s.MetricsBackend == MetricsPrompush && s.PushgatewayURL == "" {
		return nil, fmt.Errorf("-pushgateway-url (or PUSHGATEWAY_URL) is required for metrics-backend=%s", MetricsPrompush)
	}
	return s, nil
}

// Load is the production entry point: flag.CommandLine, os.Getenv, os.Args.
func Load() (*Settings, error) {
	return LoadFromArgs(flag.CommandLine, os.Getenv, os.Args[1:])
}
