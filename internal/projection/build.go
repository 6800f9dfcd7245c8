package projection

import (
	"fmt"

	"titanic/internal/schema"
)

// Table is a materialised projection. Cells hold int, float64 or string.
type Table struct {
	Def  Def
	Rows [][]any
}

var fields = map[string]func(p *schema.Passenger) any{
	schema.ColPassengerID: func(p *schema.Passenger) any { return p.PassengerID },
	schema.ColName:        func(p *schema.Passenger) any { return p.Name },
	schema.ColSex:         func(p *schema.Passenger) any { return p.Sex },
	schema.ColAge:         func(p *schema.Passenger) any { return p.Age },
	schema.ColPclass:      func(p *schema.Passenger) any { return p.Pclass },
	schema.ColSurvived:    func(p *schema.Passenger) any { return p.Survived },
	schema.ColEmbarked:    func(p *schema.Passenger) any { return p.Embarked },
	schema.ColAgeRange:    func(p *schema.Passenger) any { return p.AgeRange.String() },
}

// Build copies the columns of def out of ps, keeping row order.
func Build(def Def, ps []schema.Passenger) (Table, error) {
	get := make([]func(*schema.Passenger) any, len(def.Columns))
	for i, c := range def.Columns {
		f, ok := fields[c.Name]
		if !ok {
			return Table{}, fmt.Errorf("projection %s: no field for column %q", def.Name, c.Name)
		}
		get[i] = f
	}

	rows := make([][]any, len(ps))
	for r := range ps {
		row := make([]any, len(get))
		for i, f := range get {
			row[i] = f(&ps[r])
		}
		rows[r] = row
	}
	return Table{Def: def, Rows: rows}, nil
}
