package schema

// AgeRange is the categorical age bucket derived from a passenger's age.
type AgeRange string

const (
	AgeUnknown AgeRange = "Unknown"
	Age0To17   AgeRange = "0-17"
	Age18To29  AgeRange = "18-29"
	Age30To44  AgeRange = "30-44"
	Age45To59  AgeRange = "45-59"
	Age60Plus  AgeRange = "60+"
)

// AgeRanges lists every bucket in ascending order, Unknown first.
var AgeRanges = []AgeRange{AgeUnknown, Age0To17, Age18To29, Age30To44, Age45To59, Age60Plus}

func (a AgeRange) String() string { return string(a) }
