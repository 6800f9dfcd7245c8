// Command csvprobe profiles a passenger source file before a pipeline run:
// column types, null counts, ranges and the required columns it lacks.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"unicode/utf8"

	"titanic/internal/datasource/file"
	"titanic/internal/ingest"
	"titanic/internal/parser/csv"
	"titanic/internal/probe"
)

var (
	flagFile      = flag.String("file", "", "CSV file to profile")
	flagKind      = flag.String("kind", "", "Source kind to check required columns for: info|trip (empty skips the check)")
	flagDelimiter = flag.String("delimiter", ",", "CSV field delimiter (single character)")
	flagExamples  = flag.Int("examples", 3, "Distinct example values to show per column")
	flagJSON      = flag.Bool("json", false, "Output the profile as JSON")
)

func main() {
	flag.Parse()

	if *flagFile == "" {
		fatalf("-file is required")
	}

	var expected []string
	switch *flagKind {
	case "":
	case "info":
		expected = ingest.InfoColumns
	case "trip":
		expected = ingest.TripColumns
	default:
		fatalf("unknown -kind %q (want info or trip)", *flagKind)
	}

	delim := ','
	if *flagDelimiter != "" {
		if r, _ := utf8.DecodeRuneInString(*flagDelimiter); r != utf8.RuneError {
			delim = r
		}
	}

	rep, err := probe.Probe(context.Background(),
		file.NewLocal(*flagFile),
		csv.NewParser(csv.Options{Comma: delim}),
		probe.Options{Expected: expected, Examples: *flagExamples},
	)
	if err != nil {
		fatalf("probe: %v", err)
	}

	if *flagJSON {
		err = probe.WriteJSON(os.Stdout, rep)
	} else {
		err = probe.WriteText(os.Stdout, rep)
	}
	if err != nil {
		fatalf("write: %v", err)
	}
	if len(rep.Missing) > 0 {
		os.Exit(2)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "csvprobe: "+format+"\n", args...)
	os.Exit(1)
}
