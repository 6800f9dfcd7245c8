package config

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a single lint finding. Path is a dotted path into the pipeline
// (e.g. "storage.db.dsn").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline lints p without mutating it.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels metrics and log lines",
		})
	}
	issues = append(issues, validateSource("sources.info", p.Sources.Info)...)
	issues = append(issues, validateSource("sources.trip", p.Sources.Trip)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validatePublish(p.Publish)...)

	return issues
}

func validateSource(path string, s Source) []Issue {
	var issues []Issue

	switch strings.TrimSpace(s.Kind) {
	case "":
		return append(issues, Issue{SeverityError, path + ".kind", "source kind must not be empty"})
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{SeverityError, path + ".file.path", "file source requires a non-empty path"})
		}
	default:
		issues = append(issues, Issue{SeverityError, path + ".kind", fmt.Sprintf("unsupported source kind %q", s.Kind)})
	}
	return issues
}

func validateParser(p Parser) []Issue {
	var issues []Issue

	switch strings.TrimSpace(p.Kind) {
	case "":
		return append(issues, Issue{SeverityError, "parser.kind", "parser.kind must not be empty"})
	case "csv":
	default:
		return append(issues, Issue{SeverityError, "parser.kind", fmt.Sprintf("unsupported parser kind %q", p.Kind)})
	}

	if raw, ok := p.Options["comma"]; ok {
		s, isStr := raw.(string)
		switch {
		case !isStr:
			issues = append(issues, Issue{SeverityError, "parser.options.comma", "comma must be a string"})
		case utf8.RuneCountInString(s) != 1:
			issues = append(issues, Issue{SeverityError, "parser.options.comma", fmt.Sprintf("comma must be a single character, got %q", s)})
		case s == `"` || s == "\r" || s == "\n":
			issues = append(issues, Issue{SeverityError, "parser.options.comma", fmt.Sprintf("invalid delimiter %q", s)})
		}
	}
	if raw := p.Options.Any("header_map"); raw != nil {
		if _, ok := raw.(map[string]any); !ok {
			issues = append(issues, Issue{SeverityError, "parser.options.header_map", "header_map must be an object"})
		}
	}
	if raw := p.Options.Any("na_values"); raw != nil {
		l, ok := raw.([]any)
		if !ok {
			issues = append(issues, Issue{SeverityError, "parser.options.na_values", "na_values must be an array of strings"})
		}
		for i, v := range l {
			if _, ok := v.(string); !ok {
				issues = append(issues, Issue{SeverityError, fmt.Sprintf("parser.options.na_values[%d]", i), "na_values entries must be strings"})
			}
		}
	}
	if raw := p.Options.Any("keep_default_na"); raw != nil {
		if _, ok := raw.(bool); !ok {
			issues = append(issues, Issue{SeverityError, "parser.options.keep_default_na", "keep_default_na must be a boolean"})
		}
	}
	return issues
}

// StorageKinds lists the SQL sinks the binary can load into.
var StorageKinds = []string{"sqlite", "postgres", "mssql", "mysql"}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		return nil
	}
	known := false
	for _, k := range StorageKinds {
		if s.Kind == k {
			known = true
		}
	}
	if !known {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; want one of %s", s.Kind, strings.Join(StorageKinds, ", ")),
		})
	}
	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{SeverityError, "storage.db.dsn", "storage requires a DSN"})
	}
	if s.DB.BatchSize < 0 {
		issues = append(issues, Issue{SeverityError, "storage.db.batch_size", "batch_size must be >= 0"})
	}
	if !s.DB.AutoCreateTable {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.db.auto_create_table",
			Message:  "auto_create_table is off; projection tables must already exist",
		})
	}
	for _, r := range s.DB.TablePrefix {
		if !(r == '_' || r == '.' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "storage.db.table_prefix",
				Message:  fmt.Sprintf("table_prefix %q may only contain letters, digits, '_' and '.'", s.DB.TablePrefix),
			})
			break
		}
	}
	return issues
}

func validatePublish(p Publish) []Issue {
	var issues []Issue

	switch strings.TrimSpace(p.Kind) {
	case "":
		return nil
	case "s3":
	default:
		return append(issues, Issue{SeverityError, "publish.kind", fmt.Sprintf("unsupported publish kind %q", p.Kind)})
	}
	if strings.TrimSpace(p.S3.Bucket) == "" {
		issues = append(issues, Issue{SeverityError, "publish.s3.bucket", "s3 publish requires a bucket"})
	}
	if p.S3.Region == "" && p.S3.Endpoint == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "publish.s3.region",
			Message:  "no region or endpoint; the AWS default chain must supply one",
		})
	}
	return issues
}
