// Package report summarises the cleaned passenger table for humans.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"titanic/internal/schema"
)

// Bucket is one line of a frequency distribution.
type Bucket struct {
	Key   string
	Count int
}

// Distribution is an ordered frequency table over one column.
type Distribution struct {
	Column  string
	Buckets []Bucket
}

// Summary is everything Write prints.
type Summary struct {
	Total     int
	ByClass   Distribution
	ByPort    Distribution
	BySurvive Distribution
}

// Summarize counts rows and builds the three distributions. Class buckets are
// ordered by class ascending; port and survived buckets by count descending,
// ties broken by key ascending.
func Summarize(ps []schema.Passenger) Summary {
	class := map[int]int{}
	port := map[string]int{}
	surv := map[int]int{}
	for _, p := range ps {
		class[p.Pclass]++
		port[p.Embarked]++
		surv[p.Survived]++
	}

	return Summary{
		Total:     len(ps),
		ByClass:   Distribution{Column: schema.ColPclass, Buckets: byIntKey(class)},
		ByPort:    Distribution{Column: schema.ColEmbarked, Buckets: byCount(port)},
		BySurvive: Distribution{Column: schema.ColSurvived, Buckets: byCount(intKeys(surv))},
	}
}

func byIntKey(m map[int]int) []Bucket {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]Bucket, len(keys))
	for i, k := range keys {
		out[i] = Bucket{Key: strconv.Itoa(k), Count: m[k]}
	}
	return out
}

func intKeys(m map[int]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[strconv.Itoa(k)] = v
	}
	return out
}

func byCount(m map[string]int) []Bucket {
	out := make([]Bucket, 0, len(m))
	for k, v := range m {
		out = append(out, Bucket{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Write renders s as plain text tables.
func Write(w io.Writer, s Summary) error {
	if _, err := fmt.Fprintf(w, "Total records after cleaning: %d\n", s.Total); err != nil {
		return err
	}
	for _, d := range []struct {
		title string
		dist  Distribution
	}{
		{"Passenger class distribution", s.ByClass},
		{"Embarkation port distribution", s.ByPort},
		{"Survival distribution", s.BySurvive},
	} {
		if _, err := fmt.Fprintf(w, "\n%s:\n", d.title); err != nil {
			return err
		}
		if err := writeDistribution(w, d.dist); err != nil {
			return err
		}
	}
	return nil
}

func writeDistribution(w io.Writer, d Distribution) error {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{d.Column, "count"})
	for _, b := range d.Buckets {
		t.AppendRow(table.Row{b.Key, b.Count})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
