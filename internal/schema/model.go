// Package schema holds the typed records that flow between pipeline stages.
//
// Source records keep every nullable cell as a pointer; the cleaned Passenger
// record is total except for Fare, which no projection reads.
package schema

// Canonical column names as they appear in the source files and in every
// projection header.
const (
	ColPassengerID = "PassengerId"
	ColName        = "Name"
	ColSex         = "Sex"
	ColAge         = "Age"
	ColPclass      = "Pclass"
	ColCabin       = "Cabin"
	ColEmbarked    = "Embarked"
	ColFare        = "Fare"
	ColSibSp       = "SibSp"
	ColParch       = "Parch"
	ColSurvived    = "Survived"
	ColAgeRange    = "AgeRange"
)

// Sentinel defaults substituted for missing values during cleaning.
const (
	UnknownPort     = "U"
	UnknownCabin    = "Unknown"
	UnknownSurvival = -1
	UnknownClass    = 0
)

// PassengerInfo is one row of the passenger info source.
type PassengerInfo struct {
	PassengerID *int64
	Name        *string
	Sex         *string
	Age         *float64
	Pclass      *float64
	Cabin       *string
	Embarked    *string

	Line int // 1-based source line, header is line 1
}

// PassengerTrip is one row of the passenger trip source.
type PassengerTrip struct {
	PassengerID *int64
	Fare        *float64
	SibSp       *float64
	Parch       *float64
	Survived    *float64

	Line int
}

// Joined pairs an info row with a trip row sharing the same identifier.
type Joined struct {
	Info PassengerInfo
	Trip PassengerTrip
}

// Passenger is a cleaned, joined record.
type Passenger struct {
	PassengerID int
	Name        string
	Sex         string
	Age         float64
	Pclass      int
	Cabin       string
	Embarked    string
	Fare        *float64
	SibSp       int
	Parch       int
	Survived    int
	AgeRange    AgeRange
}
