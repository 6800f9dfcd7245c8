// Package config defines the JSON-serializable pipeline model for the titanic
// job and the flag/env settings that select it.
//
// A pipeline file is optional. Default() reproduces the fixed job: both
// source files read from the working directory, projections written next to
// them, no database sink and no upload.
//
// Example:
//
//	{
//	  "job": "titanic",
//	  "sources": {
//	    "info": { "kind": "file", "file": { "path": "titanic_passager_info_10000.csv" } },
//	    "trip": { "kind": "file", "file": { "path": "titanic_passager_trip_10000.csv" } }
//	  },
//	  "parser":  { "kind": "csv", "options": { "comma": ",", "trim_space": false } },
//	  "output":  { "dir": "out" },
//	  "storage": { "kind": "sqlite", "db": { "dsn": "file:titanic.db", "auto_create_table": true } },
//	  "publish": { "kind": "s3", "s3": { "bucket": "titanic-exports", "prefix": "daily/" } }
//	}
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Default input file names.
const (
	DefaultInfoPath = "titanic_passager_info_10000.csv"
	DefaultTripPath = "titanic_passager_trip_10000.csv"
	DefaultJob      = "titanic"
	DefaultBatch    = 1000
)

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job labels metrics and log lines.
	Job string `json:"job"`

	Sources Sources `json:"sources"`
	Parser  Parser  `json:"parser"`
	Output  Output  `json:"output"`

	// Storage is disabled when Kind is empty.
	Storage Storage `json:"storage"`
	// Publish is disabled when Kind is empty.
	Publish Publish `json:"publish"`
}

// Sources names the two input tables.
type Sources struct {
	Info Source `json:"info"`
	Trip Source `json:"trip"`
}

// Source identifies one data source. Current kind: "file".
type Source struct {
	Kind string     `json:"kind"`
	File SourceFile `json:"file"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	// Path is resolved against the working directory when relative.
	Path string `json:"path"`
}

// Parser selects how raw bytes become a table. Current kind: "csv".
type Parser struct {
	Kind string `json:"kind"`

	// Options for csv: comma (string), trim_space (bool), header_map (object),
	// na_values (array of strings), keep_default_na (bool).
	Options Options `json:"options"`
}

// Output locates the projection files.
type Output struct {
	// Dir is created if missing. Empty means the working directory.
	Dir string `json:"dir"`
}

// Storage selects the SQL sink that receives every projection.
type Storage struct {
	// Kind is one of sqlite, postgres, mssql, mysql.
	Kind string   `json:"kind"`
	DB   DBConfig `json:"db"`
}

// DBConfig configures the SQL sink.
type DBConfig struct {
	// DSN is the driver-specific connection string.
	DSN string `json:"dsn"`

	// TablePrefix is prepended to each projection name to form its table
	// name. For postgres and mssql it may carry a schema ("analytics.").
	TablePrefix string `json:"table_prefix"`

	// AutoCreateTable issues CREATE TABLE IF NOT EXISTS before loading.
	AutoCreateTable bool `json:"auto_create_table"`

	// Replace deletes existing rows before loading so reruns converge.
	Replace bool `json:"replace"`

	// BatchSize is the number of rows per bulk copy. Zero means DefaultBatch.
	BatchSize int `json:"batch_size"`
}

// Publish selects where written files are uploaded. Current kind: "s3".
type Publish struct {
	Kind string   `json:"kind"`
	S3   S3Config `json:"s3"`
}

// S3Config configures the S3 upload.
type S3Config struct {
	Bucket string `json:"bucket"`
	Prefix string `json:"prefix"`
	Region string `json:"region"`
	// Endpoint overrides the service endpoint (MinIO, localstack).
	Endpoint  string `json:"endpoint"`
	PathStyle bool   `json:"path_style"`
}

// Default returns the pipeline that runs when no file is given.
func Default() Pipeline {
	return Pipeline{
		Job: DefaultJob,
		Sources: Sources{
			Info: Source{Kind: "file", File: SourceFile{Path: DefaultInfoPath}},
			Trip: Source{Kind: "file", File: SourceFile{Path: DefaultTripPath}},
		},
		Parser: Parser{Kind: "csv", Options: Options{}},
	}
}

// BatchSizeOrDefault returns the configured batch size or DefaultBatch.
func (d DBConfig) BatchSizeOrDefault() int {
	if d.BatchSize > 0 {
		return d.BatchSize
	}
	return DefaultBatch
}

// Decode reads a pipeline from JSON, starting from Default so omitted
// sections keep their defaults. Unknown keys are rejected.
func Decode(b []byte) (Pipeline, error) {
	p := Default()
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode pipeline: %w", err)
	}
	if p.Parser.Options == nil {
		p.Parser.Options = Options{}
	}
	return p, nil
}

// LoadFile reads and decodes the pipeline at path. An empty path yields
// Default().
func LoadFile(path string) (Pipeline, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("read pipeline %s: %w", path, err)
	}
	p, err := Decode(b)
	if err != nil {
		return Pipeline{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
