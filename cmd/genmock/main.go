// Command genmock generates a deterministic parquet dataset fixture for
// local development and manual testing. It uses the actual domain record
// schema so the output matches what the bot reads in production.
//
// Usage:
//
//	go run ./cmd/genmock -out data/stations.parquet
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/synopticdata/station-bot/internal/domain"
)

var baseDate = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

type stationDef struct {
	region string
	id     string
	name   string
	days   int
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the parquet fixture")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	defs := []stationDef{
		{region: "Tehran", id: "40754", name: "Mehrabad", days: 730},
		{region: "Tehran", id: "40755", name: "Geophysics", days: 365},
		{region: "Fars", id: "40848", name: "Shiraz", days: 500},
		{region: "Khorasan Razavi", id: "40745", name: "Mashhad", days: 400},
		{region: "East Azerbaijan", id: "40706", name: "Tabriz", days: 250},
	}

	// Fixed seed for reproducible fixtures.
	rng := rand.New(rand.NewSource(42))

	var records []domain.Record
	for _, def := range defs {
		for day := 0; day < def.days; day++ {
			date := baseDate.AddDate(0, 0, day)
			tmin := -5 + rng.Float64()*20
			records = append(records, domain.Record{
				StationID:   def.id,
				StationName: def.name,
				RegionName:  def.region,
				Date:        date.Format("2006-01-02"),
				TMin:        tmin,
				TMax:        tmin + 5 + rng.Float64()*10,
				Rain:        rng.Float64() * 12,
				Humidity:    20 + rng.Float64()*70,
				WindSpeed:   rng.Float64() * 15,
			})
		}
	}

	if err := parquet.WriteFile(*out, records); err != nil {
		return fmt.Errorf("write parquet fixture: %w", err)
	}

	fmt.Printf("wrote %d records for %d stations to %s\n", len(records), len(defs), *out)
	return nil
}
