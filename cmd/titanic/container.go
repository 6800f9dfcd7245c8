// Package main wires the titanic pipeline end-to-end: load and join the two
// sources, clean, report, write the six projections, then feed the optional
// SQL and S3 sinks. Stages run strictly in sequence and each returns a new
// collection.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"titanic/internal/config"
	"titanic/internal/datasource"
	"titanic/internal/datasource/file"
	"titanic/internal/ingest"
	"titanic/internal/metrics"
	csvparser "titanic/internal/parser/csv"
	"titanic/internal/projection"
	s3pub "titanic/internal/publish/s3"
	"titanic/internal/report"
	"titanic/internal/schema"
	"titanic/internal/storage"
	"titanic/internal/transformer"
)

type Repository = storage.Repository

// publisher uploads written projection files.
type publisher interface {
	Publish(ctx context.Context, job string, files []projection.Written) ([]s3pub.Object, error)
}

// Function variables used to introduce test seams.
// In production these point to real implementations; tests can override them.
var (
	newRepositoryFn = func(ctx context.Context, cfg storage.Config) (Repository, error) {
		return storage.New(ctx, cfg)
	}

	newPublisherFn = func(ctx context.Context, cfg s3pub.Config) (publisher, error) {
		return s3pub.New(ctx, cfg)
	}

	getenvFn = os.Getenv
)

// run executes the whole pipeline for p, writing the human-readable report
// to stdout. Any error is fatal to the run; files already written stay.
func run(ctx context.Context, p config.Pipeline, stdout io.Writer) error {
	job := p.Job
	if job == "" {
		job = config.DefaultJob
	}

	infoSrc, err := openSource(p.Sources.Info)
	if err != nil {
		return fmt.Errorf("sources.info: %w", err)
	}
	tripSrc, err := openSource(p.Sources.Trip)
	if err != nil {
		return fmt.Errorf("sources.trip: %w", err)
	}
	parser, err := buildParser(p.Parser)
	if err != nil {
		return err
	}

	// 1) Load and join.
	var joined []schema.Joined
	err = metrics.Timed(job, "load", func() error {
		var (
			st   ingest.Stats
			lerr error
		)
		joined, st, lerr = ingest.Load(ctx, infoSrc, tripSrc, parser)
		metrics.RecordRows(job, metrics.KindJoined, int64(st.Joined))
		return lerr
	})
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}

	// 2) Clean.
	var res transformer.Result
	err = metrics.Timed(job, "clean", func() error {
		var cerr error
		res, cerr = transformer.Clean(joined)
		return cerr
	})
	if err != nil {
		return fmt.Errorf("clean: %w", err)
	}
	recordCleanStats(job, res)
	ps := res.Passengers

	// 3) Report.
	if err := report.Write(stdout, report.Summarize(ps)); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	// 4) Projections.
	var (
		tables  []projection.Table
		written []projection.Written
	)
	fmt.Fprintln(stdout)
	err = metrics.Timed(job, "project", func() error {
		var perr error
		tables, written, perr = projection.WriteAll(p.Output.Dir, ps, func(w projection.Written) {
			fmt.Fprintf(stdout, "%s: %d rows\n", w.Name, w.Rows)
			metrics.RecordOutput(job, w.Name, w.Rows)
		})
		return perr
	})
	if err != nil {
		return fmt.Errorf("project: %w", err)
	}

	// 5) Optional sinks.
	if p.Storage.Kind != "" {
		if err := metrics.Timed(job, "storage", func() error { return sinkStorage(ctx, job, p.Storage, tables) }); err != nil {
			return err
		}
	}
	if p.Publish.Kind != "" {
		if err := metrics.Timed(job, "publish", func() error { return publishFiles(ctx, job, p.Publish, written) }); err != nil {
			return err
		}
	}

	fmt.Fprintln(stdout, "\nPipeline completed successfully. Files written:")
	for _, w := range written {
		fmt.Fprintf(stdout, "  - %s\n", w.Path)
	}
	return nil
}

// recordCleanStats emits the cleaning counters.
func recordCleanStats(job string, res transformer.Result) {
	st := res.Stats
	metrics.RecordRows(job, metrics.KindDroppedNoID, int64(st.DroppedNoID))
	metrics.RecordRows(job, metrics.KindImputedAge, int64(st.ImputedAge))
	metrics.RecordRows(job, metrics.KindDefaulted,
		int64(st.DefaultedPort+st.DefaultedSurvived+st.DefaultedClass+st.DefaultedCabin))
	metrics.RecordRows(job, metrics.KindCleaned, int64(len(res.Passengers)))
}

// openSource maps a configured source to a datasource.
func openSource(s config.Source) (datasource.Source, error) {
	switch s.Kind {
	case "file":
		return file.NewLocal(s.File.Path), nil
	default:
		return nil, fmt.Errorf("unsupported source.kind=%s", s.Kind)
	}
}

// buildParser maps parser configuration into a concrete parser implementation.
func buildParser(p config.Parser) (*csvparser.Parser, error) {
	switch p.Kind {
	case "csv":
		return csvparser.NewParser(csvparser.Options{
			Comma:       p.Options.Rune("comma", ','),
			TrimSpace:   p.Options.Bool("trim_space", false),
			HeaderMap:   p.Options.StringMap("header_map"),
			NAValues:    p.Options.StringSlice("na_values"),
			NoDefaultNA: !p.Options.Bool("keep_default_na", true),
		}), nil
	default:
		return nil, fmt.Errorf("unsupported parser.kind=%s", p.Kind)
	}
}

// sinkStorage opens the configured repository and loads every projection
// table through one connection.
func sinkStorage(ctx context.Context, job string, s config.Storage, tables []projection.Table) error {
	log.Printf("storage: connecting kind=%s", s.Kind)
	repo, err := newRepositoryFn(ctx, storage.Config{Kind: s.Kind, DSN: s.DB.DSN})
	if err != nil {
		return fmt.Errorf("init repo: %w", err)
	}
	defer repo.Close()

	loaded, err := storage.Sink(ctx, s.Kind, repo, tables, storage.SinkOptions{
		Job:         job,
		TablePrefix: s.DB.TablePrefix,
		AutoCreate:  s.DB.AutoCreateTable,
		Replace:     s.DB.Replace,
		BatchSize:   s.DB.BatchSizeOrDefault(),
	})
	if err != nil {
		return err
	}
	var rows, batches int64
	for _, l := range loaded {
		rows += l.Rows
		batches += l.Batches
	}
	log.Printf("storage: summary tables=%d rows=%d batches=%d", len(loaded), rows, batches)
	return nil
}

// publishFiles uploads the written files. Credentials for the bucket may be
// given as TITANIC_S3_ACCESS_KEY_ID / TITANIC_S3_SECRET_ACCESS_KEY; otherwise
// the default AWS chain applies.
func publishFiles(ctx context.Context, job string, p config.Publish, files []projection.Written) error {
	switch p.Kind {
	case "s3":
	default:
		return fmt.Errorf("unsupported publish.kind=%s", p.Kind)
	}
	pub, err := newPublisherFn(ctx, s3pub.Config{
		Bucket:          p.S3.Bucket,
		Prefix:          p.S3.Prefix,
		Region:          p.S3.Region,
		Endpoint:        p.S3.Endpoint,
		PathStyle:       p.S3.PathStyle,
		AccessKeyID:     getenvFn("TITANIC_S3_ACCESS_KEY_ID"),
		SecretAccessKey: getenvFn("TITANIC_S3_SECRET_ACCESS_KEY"),
	})
	if err != nil {
		return fmt.Errorf("init publisher: %w", err)
	}
	objs, err := pub.Publish(ctx, job, files)
	if err != nil {
		return err
	}
	log.Printf("publish: summary objects=%d", len(objs))
	return nil
}
