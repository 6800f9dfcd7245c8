// Package projection defines the six output views of the cleaned passenger
// table and writes them as CSV files.
package projection

import (
	"fmt"

	"titanic/internal/schema"
)

// Type is the logical type of a projected column. Storage backends map it to
// a dialect type.
type Type string

const (
	Integer Type = "integer"
	Real    Type = "real"
	Text    Type = "text"
)

// Column is one projected column.
type Column struct {
	Name string
	Type Type
}

// Def describes a projection. PartitionKeys and ClusteringKeys document the
// lookup key of the view; they never reorder rows.
type Def struct {
	Name           string
	Columns        []Column
	PartitionKeys  []string
	ClusteringKeys []string
}

// ColumnNames returns the column names in output order.
func (d Def) ColumnNames() []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Name
	}
	return out
}

// Key returns partition keys followed by clustering keys.
func (d Def) Key() []string {
	out := make([]string, 0, len(d.PartitionKeys)+len(d.ClusteringKeys))
	out = append(out, d.PartitionKeys...)
	return append(out, d.ClusteringKeys...)
}

// FileName is the CSV file the projection is written to.
func (d Def) FileName() string { return d.Name + ".csv" }

var (
	colID       = Column{schema.ColPassengerID, Integer}
	colName     = Column{schema.ColName, Text}
	colSex      = Column{schema.ColSex, Text}
	colAge      = Column{schema.ColAge, Real}
	colClass    = Column{schema.ColPclass, Integer}
	colSurvived = Column{schema.ColSurvived, Integer}
	colPort     = Column{schema.ColEmbarked, Text}
	colAgeRange = Column{schema.ColAgeRange, Text}
)

// Catalog lists every projection in output order.
var Catalog = []Def{
	{
		Name:           "survivors_by_class",
		Columns:        []Column{colID, colClass, colSurvived, colName, colSex, colAge},
		PartitionKeys:  []string{schema.ColPclass, schema.ColSurvived},
		ClusteringKeys: []string{schema.ColPassengerID},
	},
	{
		Name:           "passengers_by_port_age",
		Columns:        []Column{colPort, colAge, colID, colName, colSex, colClass, colSurvived},
		PartitionKeys:  []string{schema.ColEmbarked},
		ClusteringKeys: []string{schema.ColAge, schema.ColPassengerID},
	},
	{
		Name:           "women_survivors_by_class",
		Columns:        []Column{colClass, colSex, colSurvived, colID, colName, colAge},
		PartitionKeys:  []string{schema.ColPclass, schema.ColSex, schema.ColSurvived},
		ClusteringKeys: []string{schema.ColPassengerID},
	},
	{
		Name:           "passengers_by_age_range",
		Columns:        []Column{colAgeRange, colAge, colID, colName, colSex, colClass, colSurvived},
		PartitionKeys:  []string{schema.ColAgeRange},
		ClusteringKeys: []string{schema.ColAge, schema.ColPassengerID},
	},
	{
		Name:           "port_survival_analysis",
		Columns:        []Column{colPort, colSurvived, colID, colName, colClass, colSex, colAge},
		PartitionKeys:  []string{schema.ColEmbarked, schema.ColSurvived},
		ClusteringKeys: []string{schema.ColPassengerID},
	},
	{
		Name:           "class_age_survival_analysis",
		Columns:        []Column{colAgeRange, colClass, colSurvived, colID, colName, colSex, colAge},
		PartitionKeys:  []string{schema.ColAgeRange, schema.ColPclass},
		ClusteringKeys: []string{schema.ColSurvived, schema.ColPassengerID},
	},
}

// Lookup returns the catalog entry called name.
func Lookup(name string) (Def, error) {
	for _, d := range Catalog {
		if d.Name == name {
			return d, nil
		}
	}
	return Def{}, fmt.Errorf("projection: unknown %q", name)
}
