package transformer

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"titanic/internal/parser/ints"
	"titanic/internal/schema"
	"titanic/internal/transformer/builtin"
)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }
func str(s string) *string   { return &s }

func joined(id *int64, age *float64) schema.Joined {
	return schema.Joined{
		Info: schema.PassengerInfo{PassengerID: id, Name: str("n"), Sex: str("female"), Age: age, Pclass: f64(1), Cabin: str("C85"), Embarked: str("C")},
		Trip: schema.PassengerTrip{PassengerID: id, Fare: f64(10), SibSp: f64(0), Parch: f64(0), Survived: f64(1)},
	}
}

// TestClean_ImputesAllDefaults is the end-to-end scenario: a row with every
// nullable field missing picks up each sentinel and the dataset median.
func TestClean_ImputesAllDefaults(t *testing.T) {
	t.Parallel()

	rows := []schema.Joined{
		{
			Info: schema.PassengerInfo{PassengerID: i64(1), Name: str("Braund, Mr. Owen Harris"), Sex: str("male")},
			Trip: schema.PassengerTrip{PassengerID: i64(1), Fare: f64(7.25), SibSp: f64(0), Parch: f64(0)},
		},
		joined(i64(2), f64(20)),
		joined(i64(3), f64(28)),
		joined(i64(4), f64(40)),
	}

	res, err := Clean(rows)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if len(res.Passengers) != 4 {
		t.Fatalf("passengers = %d, want 4", len(res.Passengers))
	}

	fare := 7.25
	want := schema.Passenger{
		PassengerID: 1,
		Name:        "Braund, Mr. Owen Harris",
		Sex:         "male",
		Age:         28,
		Pclass:      schema.UnknownClass,
		Cabin:       schema.UnknownCabin,
		Embarked:    schema.UnknownPort,
		Fare:        &fare,
		Survived:    schema.UnknownSurvival,
		AgeRange:    schema.Age18To29,
	}
	if got := res.Passengers[0]; !reflect.DeepEqual(got, want) {
		t.Fatalf("passenger[0] = %+v, want %+v", got, want)
	}

	st := res.Stats
	if st.ImputedAge != 1 || st.DefaultedPort != 1 || st.DefaultedSurvived != 1 ||
		st.DefaultedClass != 1 || st.DefaultedCabin != 1 || st.Median != 28 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestClean_DropsMissingIDBeforeMedian(t *testing.T) {
	t.Parallel()

	rows := []schema.Joined{
		joined(nil, f64(90)), // would shift the median if counted
		joined(i64(1), f64(10)),
		joined(i64(2), f64(20)),
		joined(i64(3), nil),
	}
	res, err := Clean(rows)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if res.Stats.DroppedNoID != 1 {
		t.Fatalf("DroppedNoID = %d, want 1", res.Stats.DroppedNoID)
	}
	if got := res.Passengers[2].Age; got != 15 {
		t.Fatalf("imputed age = %v, want 15", got)
	}
	for i, p := range res.Passengers {
		if p.PassengerID != i+1 {
			t.Fatalf("order changed: passenger[%d].id = %d", i, p.PassengerID)
		}
	}
}

// TestClean_MedianIsRoundedAfterFill checks that the fill value itself is
// rounded, not the raw median.
func TestClean_MedianIsRoundedAfterFill(t *testing.T) {
	t.Parallel()

	rows := []schema.Joined{
		joined(i64(1), f64(20.333)),
		joined(i64(2), f64(20.336)),
		joined(i64(3), nil),
	}
	res, err := Clean(rows)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if got, want := res.Passengers[2].Age, builtin.Round((20.333+20.336)/2, 2); got != want {
		t.Fatalf("imputed age = %v, want %v", got, want)
	}
	if got := res.Passengers[0].Age; got != 20.33 {
		t.Fatalf("age[0] = %v, want 20.33", got)
	}
}

// TestClean_AgeRangeFromUnroundedAge pins the bucket to the age before
// rounding: 17.996 rounds to 18 but still belongs to 0-17.
func TestClean_AgeRangeFromUnroundedAge(t *testing.T) {
	t.Parallel()

	res, err := Clean([]schema.Joined{joined(i64(1), f64(17.996))})
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	p := res.Passengers[0]
	if p.Age != 18 || p.AgeRange != schema.Age0To17 {
		t.Fatalf("age=%v range=%q, want 18 and 0-17", p.Age, p.AgeRange)
	}
}

func TestClean_NoMedian(t *testing.T) {
	t.Parallel()

	_, err := Clean([]schema.Joined{joined(i64(1), nil)})
	if !errors.Is(err, ErrNoMedian) {
		t.Fatalf("err = %v, want ErrNoMedian", err)
	}
	var re *RowError
	if !errors.As(err, &re) || re.Field != schema.ColAge {
		t.Fatalf("err = %v, want *RowError for Age", err)
	}
}

func TestClean_EmptyInput(t *testing.T) {
	t.Parallel()

	res, err := Clean(nil)
	if err != nil {
		t.Fatalf("Clean(nil): %v", err)
	}
	if len(res.Passengers) != 0 || res.Stats.HasMedian {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestClean_NarrowingFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(*schema.Joined)
		wantField string
		wantErr   error
	}{
		{
			name:      "fractional class",
			mutate:    func(j *schema.Joined) { j.Info.Pclass = f64(1.5) },
			wantField: schema.ColPclass,
			wantErr:   ints.ErrNotIntegral,
		},
		{
			name:      "fractional survived",
			mutate:    func(j *schema.Joined) { j.Trip.Survived = f64(0.5) },
			wantField: schema.ColSurvived,
			wantErr:   ints.ErrNotIntegral,
		},
		{
			name:      "missing sibsp",
			mutate:    func(j *schema.Joined) { j.Trip.SibSp = nil },
			wantField: schema.ColSibSp,
			wantErr:   builtin.ErrMissingValue,
		},
		{
			name:      "nan sibsp",
			mutate:    func(j *schema.Joined) { j.Trip.SibSp = f64(math.NaN()) },
			wantField: schema.ColSibSp,
			wantErr:   builtin.ErrMissingValue,
		},
		{
			name:      "missing parch",
			mutate:    func(j *schema.Joined) { j.Trip.Parch = nil },
			wantField: schema.ColParch,
			wantErr:   builtin.ErrMissingValue,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			j := joined(i64(7), f64(30))
			tt.mutate(&j)
			_, err := Clean([]schema.Joined{j})
			var re *RowError
			if !errors.As(err, &re) {
				t.Fatalf("err = %v, want *RowError", err)
			}
			if re.Field != tt.wantField || re.PassengerID != 7 {
				t.Fatalf("RowError = %+v, want field %s id 7", re, tt.wantField)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// NaN cells count as missing, so they take the same fills as nil cells.
func TestClean_NaNIsMissing(t *testing.T) {
	t.Parallel()

	nan := math.NaN()
	row := joined(i64(1), f64(nan))
	row.Info.Pclass = f64(nan)
	row.Trip.Survived = f64(nan)
	row.Trip.Fare = f64(nan)
	rows := []schema.Joined{row, joined(i64(2), f64(20)), joined(i64(3), f64(40))}

	res, err := Clean(rows)
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	got := res.Passengers[0]
	if got.Age != 30 || got.AgeRange != schema.Age30To44 {
		t.Errorf("age = %v range = %v, want 30 / 30-44", got.Age, got.AgeRange)
	}
	if got.Pclass != schema.UnknownClass || got.Survived != schema.UnknownSurvival {
		t.Errorf("class = %d survived = %d, want sentinels", got.Pclass, got.Survived)
	}
	if got.Fare != nil {
		t.Errorf("fare = %v, want nil", *got.Fare)
	}
	st := res.Stats
	if st.Median != 30 || st.ImputedAge != 1 || st.DefaultedClass != 1 || st.DefaultedSurvived != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestClean_NaNAgeWithoutMedian(t *testing.T) {
	t.Parallel()

	_, err := Clean([]schema.Joined{joined(i64(1), f64(math.NaN()))})
	if !errors.Is(err, ErrNoMedian) {
		t.Fatalf("err = %v, want ErrNoMedian", err)
	}
}

func TestClean_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	rows := []schema.Joined{joined(i64(1), f64(33.333)), joined(i64(2), nil)}
	before := *rows[0].Info.Age
	if _, err := Clean(rows); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if *rows[0].Info.Age != before || rows[1].Info.Age != nil {
		t.Fatalf("input rows were modified")
	}
}

func TestChain_AppliesInOrder(t *testing.T) {
	t.Parallel()

	var seen []string
	mk := func(name string) Transformer {
		return Func(func(in []schema.Passenger) []schema.Passenger {
			seen = append(seen, name)
			return in
		})
	}
	Chain{mk("a"), mk("b")}.Apply(nil)
	if !reflect.DeepEqual(seen, []string{"a", "b"}) {
		t.Fatalf("order = %v", seen)
	}
}
