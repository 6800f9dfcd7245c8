package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"titanic/internal/config"
	"titanic/internal/metrics"
	"titanic/internal/metrics/datadog"
	"titanic/internal/metrics/prompush"

	// Every SQL sink registers itself with the storage factory; storage.kind
	// in the pipeline file picks one at run time.
	_ "titanic/internal/storage/all"
)

// main loads settings and the pipeline, installs the metrics backend and runs
// the pipeline once.
func main() {
	// The .env file may itself feed flag defaults, so it is loaded first and
	// settings are re-read if -env-file names a different file.
	envFile := os.Getenv("TITANIC_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	loadEnvFile(envFile)

	s, err := config.Load()
	if err != nil {
		fatalf("flags: %v", err)
	}
	if s.EnvFile != envFile {
		loadEnvFile(s.EnvFile)
		flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
		if s, err = config.LoadFromArgs(flags, os.Getenv, os.Args[1:]); err != nil {
			fatalf("flags: %v", err)
		}
	}

	p, err := config.LoadFile(s.ConfigPath)
	if err != nil {
		fatalf("load config: %v", err)
	}

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Printf("Configuration is invalid: %v", describeConfig(s.ConfigPath))
		os.Exit(1)
	}
	if s.ValidateOnly {
		log.Printf("Configuration is valid: %v", describeConfig(s.ConfigPath))
		os.Exit(0)
	}

	flush := setupMetrics(s, p.Job)

	ctx := context.Background()
	start := time.Now()

	if s.Verbose {
		log.Printf("pipeline: job=%s info=%s trip=%s output=%q storage=%q publish=%q",
			p.Job, p.Sources.Info.File.Path, p.Sources.Trip.File.Path, p.Output.Dir, p.Storage.Kind, p.Publish.Kind)
	}

	err = run(ctx, p, os.Stdout)
	flush()
	if err != nil {
		fatalf("%v", err)
	}

	if s.Verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func loadEnvFile(path string) {
	if path == "" {
		return
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fatalf("env file %s: %v", path, err)
	}
}

// setupMetrics installs the selected backend and returns its flush function.
func setupMetrics(s *config.Settings, job string) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch s.MetricsBackend {
	case config.MetricsPrompush:
		b, err = prompush.NewBackend(job, s.PushgatewayURL)
		if err == nil {
			log.Printf("metrics: url=%v, backend=%v, job_name=%v", s.PushgatewayURL, s.MetricsBackend, job)
		}
	case config.MetricsDatadog:
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       s.DatadogAddr,
			Namespace:  "titanic.",
			GlobalTags: []string{"job:" + job},
		})
		if err == nil {
			log.Printf("metrics: addr=%v, backend=%v, job_name=%v", s.DatadogAddr, s.MetricsBackend, job)
		}
	default:
		// metrics disabled; nop backend remains
		if s.Verbose {
			log.Printf("metrics: disabled (backend=%q)", s.MetricsBackend)
		}
		return func() {}
	}
	if err != nil {
		log.Printf("metrics: failed to init %s backend: %v; using nop", s.MetricsBackend, err)
		return func() {}
	}

	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
}

func describeConfig(path string) string {
	if path == "" {
		return "(built-in defaults)"
	}
	return path
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
