package transformer

import (
	"errors"
	"fmt"
	"log"

	"titanic/internal/parser/ints"
	"titanic/internal/schema"
	"titanic/internal/transformer/builtin"
)

// ErrNoMedian is returned when an age must be imputed but no row carries a
// known age to take the median of.
var ErrNoMedian = errors.New("no known ages to compute median from")

// AgeDecimals and FareDecimals are the output precisions of the two float
// columns.
const (
	AgeDecimals  = 2
	FareDecimals = 2
)

// Stats counts what the cleaning stage did.
type Stats struct {
	Joined            int
	DroppedNoID       int
	ImputedAge        int
	DefaultedPort     int
	DefaultedSurvived int
	DefaultedClass    int
	DefaultedCabin    int
	Median            float64
	HasMedian         bool
}

// Result is the output of Clean.
type Result struct {
	Passengers []schema.Passenger
	Stats      Stats
}

// RowError ties a cleaning failure to the identifier and source lines it
// came from.
type RowError struct {
	PassengerID int64
	InfoLine    int
	TripLine    int
	Field       string
	Err         error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("passenger %d (info line %d, trip line %d): %s: %v",
		e.PassengerID, e.InfoLine, e.TripLine, e.Field, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// PostResolve is the chain applied once every field is resolved. The age
// bucket is taken from the imputed age before rounding.
var PostResolve = Chain{
	Func(DeriveAgeRange),
	Func(RoundMeasures),
}

// Clean runs, in order: identifier filter, median over the surviving ages,
// fills with type narrowing, age bucketing, and rounding.
func Clean(rows []schema.Joined) (Result, error) {
	st := Stats{Joined: len(rows)}

	kept := DropMissingID(rows)
	st.DroppedNoID = len(rows) - len(kept)

	ages := make([]*float64, len(kept))
	for i := range kept {
		ages[i] = kept[i].Info.Age
	}
	st.Median, st.HasMedian = builtin.Median(ages)

	out := make([]schema.Passenger, 0, len(kept))
	for _, j := range kept {
		p, err := resolve(j, &st)
		if err != nil {
			return Result{}, err
		}
		out = append(out, p)
	}

	out = PostResolve.Apply(out)

	log.Printf("clean: joined=%d dropped_no_id=%d imputed_age=%d median_age=%v kept=%d",
		st.Joined, st.DroppedNoID, st.ImputedAge, st.Median, len(out))

	return Result{Passengers: out, Stats: st}, nil
}

// DropMissingID returns the rows whose identifier is present on both sides.
func DropMissingID(rows []schema.Joined) []schema.Joined {
	out := make([]schema.Joined, 0, len(rows))
	for _, r := range rows {
		if r.Info.PassengerID == nil || r.Trip.PassengerID == nil {
			continue
		}
		out = append(out, r)
	}
	return out
}

// resolve fills every nullable column of one joined row and narrows the
// integer columns.
func resolve(j schema.Joined, st *Stats) (schema.Passenger, error) {
	id := *j.Info.PassengerID
	fail := func(field string, err error) (schema.Passenger, error) {
		return schema.Passenger{}, &RowError{
			PassengerID: id,
			InfoLine:    j.Info.Line,
			TripLine:    j.Trip.Line,
			Field:       field,
			Err:         err,
		}
	}

	var (
		p   schema.Passenger
		err error
	)
	age := builtin.Known(j.Info.Age)
	survived := builtin.Known(j.Trip.Survived)
	pclass := builtin.Known(j.Info.Pclass)

	p.Name = builtin.Or(j.Info.Name, "")
	p.Sex = builtin.Or(j.Info.Sex, "")

	if age == nil {
		if !st.HasMedian {
			return fail(schema.ColAge, ErrNoMedian)
		}
		st.ImputedAge++
	}
	p.Age = builtin.Or(age, st.Median)

	if j.Info.Embarked == nil || *j.Info.Embarked == "" {
		st.DefaultedPort++
	}
	p.Embarked = builtin.OrNonEmpty(j.Info.Embarked, schema.UnknownPort)

	if survived == nil {
		st.DefaultedSurvived++
	}
	if p.Survived, err = builtin.FillInt(survived, schema.UnknownSurvival); err != nil {
		return fail(schema.ColSurvived, err)
	}

	if pclass == nil {
		st.DefaultedClass++
	}
	if p.Pclass, err = builtin.FillInt(pclass, schema.UnknownClass); err != nil {
		return fail(schema.ColPclass, err)
	}

	if j.Info.Cabin == nil || *j.Info.Cabin == "" {
		st.DefaultedCabin++
	}
	p.Cabin = builtin.OrNonEmpty(j.Info.Cabin, schema.UnknownCabin)

	if p.PassengerID, err = ints.FromInt64(id); err != nil {
		return fail(schema.ColPassengerID, err)
	}
	if p.SibSp, err = builtin.RequireInt(builtin.Known(j.Trip.SibSp)); err != nil {
		return fail(schema.ColSibSp, err)
	}
	if p.Parch, err = builtin.RequireInt(builtin.Known(j.Trip.Parch)); err != nil {
		return fail(schema.ColParch, err)
	}

	if fare := builtin.Known(j.Trip.Fare); fare != nil {
		f := *fare
		p.Fare = &f
	}

	return p, nil
}

// DeriveAgeRange sets AgeRange from Age on a copy of each passenger.
func DeriveAgeRange(in []schema.Passenger) []schema.Passenger {
	out := make([]schema.Passenger, len(in))
	for i, p := range in {
		age := p.Age
		p.AgeRange = builtin.AgeRange(&age)
		out[i] = p
	}
	return out
}

// RoundMeasures rounds Age and Fare on a copy of each passenger.
func RoundMeasures(in []schema.Passenger) []schema.Passenger {
	out := make([]schema.Passenger, len(in))
	for i, p := range in {
		p.Age = builtin.Round(p.Age, AgeDecimals)
		p.Fare = builtin.RoundPtr(p.Fare, FareDecimals)
		out[i] = p
	}
	return out
}
