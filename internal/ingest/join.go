package ingest

import "titanic/internal/schema"

// joinKey groups rows without an identifier. Such rows match each other the
// way a dataframe merge pairs missing keys; the cleaner drops them afterwards.
type joinKey struct {
	null bool
	id   int64
}

func keyOf(id *int64) joinKey {
	if id == nil {
		return joinKey{null: true}
	}
	return joinKey{id: *id}
}

// Join inner-joins infos and trips on PassengerId. Output follows info order;
// an info row with several matching trips yields one row per trip, in trip
// order. Identifiers present on only one side are dropped.
func Join(infos []schema.PassengerInfo, trips []schema.PassengerTrip) []schema.Joined {
	byID := make(map[joinKey][]int, len(trips))
	for i, t := range trips {
		k := keyOf(t.PassengerID)
		byID[k] = append(byID[k], i)
	}
	out := make([]schema.Joined, 0, len(infos))
	for _, info := range infos {
		for _, ti := range byID[keyOf(info.PassengerID)] {
			out = append(out, schema.Joined{Info: info, Trip: trips[ti]})
		}
	}
	return out
}
