package ingest

import (
	"context"
	"fmt"
	"log"

	"titanic/internal/datasource"
	"titanic/internal/parser/csv"
	"titanic/internal/schema"
)

// Stats describes what Load read.
type Stats struct {
	InfoRows int
	TripRows int
	Joined   int
}

// Load reads both sources, decodes them and joins the result. Any failure
// aborts before a single joined row is returned.
func Load(ctx context.Context, infoSrc, tripSrc datasource.Source, p *csv.Parser) ([]schema.Joined, Stats, error) {
	var st Stats

	infoTbl, err := readTable(ctx, infoSrc, p)
	if err != nil {
		return nil, st, err
	}
	infos, err := DecodeInfo(infoTbl)
	if err != nil {
		return nil, st, fmt.Errorf("%s: %w", infoSrc.Name(), err)
	}

	tripTbl, err := readTable(ctx, tripSrc, p)
	if err != nil {
		return nil, st, err
	}
	trips, err := DecodeTrip(tripTbl)
	if err != nil {
		return nil, st, fmt.Errorf("%s: %w", tripSrc.Name(), err)
	}

	joined := Join(infos, trips)
	st = Stats{InfoRows: len(infos), TripRows: len(trips), Joined: len(joined)}
	log.Printf("ingest: info=%d trip=%d joined=%d", st.InfoRows, st.TripRows, st.Joined)
	return joined, st, nil
}

func readTable(ctx context.Context, src datasource.Source, p *csv.Parser) (*csv.Table, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	t, err := p.ReadTable(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.Name(), err)
	}
	return t, nil
}
