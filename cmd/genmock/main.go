// Command genmock writes a small synthetic dataset for every pipeline stage:
// building sensor exports with known time constants, daily temperature grids,
// a region layer and the gas, ECUK and capacity tables.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock
//
// The outputs feed the other commands directly:
//
//	go run ./cmd/eoh -data-dir data/mock/eoh -out data/mock/out/eoh.csv
//	go run ./cmd/hdd -tasmax data/mock/tasmax.csv -tasmin data/mock/tasmin.csv \
//	  -layers data/mock/LSOA.geojson=LSOA11CD -out-dir data/mock/out/hdd
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/heat-flex-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/heat-flex-etl/internal/domain"
	"github.com/couchcryptid/heat-flex-etl/internal/grid"
	"github.com/couchcryptid/heat-flex-etl/internal/region"
	"github.com/couchcryptid/heat-flex-etl/internal/regional"
)

const (
	crs      = "EPSG:27700"
	cellSize = 1000.0
	gridSide = 3
)

var (
	buildingStart = time.Date(2021, time.January, 4, 0, 0, 0, 0, time.UTC)
	gridStart     = time.Date(2017, time.June, 1, 0, 0, 0, 0, time.UTC)
	gridEnd       = time.Date(2022, time.June, 15, 0, 0, 0, 0, time.UTC)
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output directory")
	buildings := flag.Int("buildings", 5, "number of heat-pump buildings")
	days := flag.Int("days", 14, "days of sensor data per building")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	if *out == "" || *buildings <= 0 || *days <= 0 {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	rng := rand.New(rand.NewPCG(*seed, *seed))

	taus, err := writeBuildings(filepath.Join(*out, "eoh"), *buildings, *days, rng)
	if err != nil {
		return fmt.Errorf("writing buildings: %w", err)
	}
	log.Printf("wrote %d building exports (+1 without heat pump)", len(taus))

	if err := writeGrids(*out); err != nil {
		return fmt.Errorf("writing grids: %w", err)
	}
	log.Printf("wrote tasmax/tasmin grids: %dx%d cells, %s to %s",
		gridSide, gridSide, gridStart.Format(time.DateOnly), gridEnd.Format(time.DateOnly))

	codes, err := writeRegions(filepath.Join(*out, "LSOA.geojson"))
	if err != nil {
		return fmt.Errorf("writing regions: %w", err)
	}
	log.Printf("wrote %d regions", len(codes))

	if err := writeTables(*out, codes, rng); err != nil {
		return fmt.Errorf("writing tables: %w", err)
	}
	log.Printf("wrote gas demand, ECUK shares and capacity tables")

	fmt.Println("\n=== Known building time constants ===")
	for id, tau := range taus {
		fmt.Printf("  %s: %.1f h\n", buildingID(id), tau)
	}
	return nil
}

func buildingID(i int) string { return fmt.Sprintf("EOH%04d", i+1) }

// writeBuildings writes one export per building. Heating runs 06:00 to 22:00;
// overnight the heat pump is idle and the house cools towards the outdoor
// temperature with the building's time constant.
func writeBuildings(dir string, n, days int, rng *rand.Rand) ([]float64, error) {
	taus := make([]float64, n)
	for i := range n {
		taus[i] = 15 + 10*float64(i)
		b := domain.Building{
			ID:      buildingID(i),
			Signals: domain.Signals{HeatPump: true, FlowTemp: true},
		}
		var output float64
		nightStart, nightOutdoor := 20.0, 5.0
		for d := range days {
			day := buildingStart.AddDate(0, 0, d)
			outdoor := 3 + 4*rng.Float64()
			for m := range 24 * 60 {
				t := day.Add(time.Duration(m) * time.Minute)
				heating := m >= 6*60 && m < 22*60
				r := domain.Reading{
					Time:      t,
					Boiler:    math.NaN(),
					Backup:    math.NaN(),
					Immersion: math.NaN(),
				}
				wobble := 0.2 * math.Sin(float64(m)/90)
				if heating {
					output += 0.02
					r.Internal = round2(20 + 0.1*rng.NormFloat64())
					r.External = round2(outdoor + wobble)
					r.FlowTemp = 38
				} else {
					elapsed := (m - 22*60 + 24*60) % (24 * 60)
					if elapsed == 0 {
						nightStart, nightOutdoor = 20, outdoor
					}
					decay := math.Exp(-float64(elapsed) / 60 / taus[i])
					r.Internal = round2(nightOutdoor + (nightStart-nightOutdoor)*decay)
					r.External = round2(nightOutdoor + wobble)
					r.FlowTemp = 25
				}
				r.HeatPumpOutput = round2(output)
				b.Readings = append(b.Readings, r)
			}
		}
		if _, err := csvfile.WriteBuilding(dir, b); err != nil {
			return nil, err
		}
	}

	// A building whose export lacks a heat pump column.
	b := domain.Building{ID: buildingID(n)}
	for m := range 60 {
		b.Readings = append(b.Readings, domain.Reading{
			Time:     buildingStart.Add(time.Duration(m) * time.Minute),
			Internal: 19,
			External: 5,
		})
	}
	_, err := csvfile.WriteBuilding(dir, b)
	return taus, err
}

// writeGrids writes daily maximum and minimum temperatures on a small grid,
// coldest in late January and slightly colder further north.
func writeGrids(dir string) error {
	axis := make([]float64, gridSide)
	for i := range axis {
		axis[i] = cellSize/2 + cellSize*float64(i)
	}
	tasmax := &grid.Series{CRS: crs, X: axis, Y: axis}
	tasmin := &grid.Series{CRS: crs, X: axis, Y: axis}
	for t := gridStart; !t.After(gridEnd); t = t.AddDate(0, 0, 1) {
		season := -7 * math.Cos(2*math.Pi*float64(t.YearDay()-20)/365.25)
		hi := make([]float64, gridSide*gridSide)
		lo := make([]float64, gridSide*gridSide)
		for row := range gridSide {
			for col := range gridSide {
				mean := 10 + season - 0.5*float64(row)
				hi[row*gridSide+col] = round2(mean + 4)
				lo[row*gridSide+col] = round2(mean - 4)
			}
		}
		tasmax.Times = append(tasmax.Times, t)
		tasmax.Slices = append(tasmax.Slices, hi)
		tasmin.Times = append(tasmin.Times, t)
		tasmin.Slices = append(tasmin.Slices, lo)
	}
	if err := csvfile.WriteSeries(filepath.Join(dir, "tasmax.csv"), tasmax); err != nil {
		return err
	}
	return csvfile.WriteSeries(filepath.Join(dir, "tasmin.csv"), tasmin)
}

// writeRegions lays one square region over each grid cell plus one offshore
// region east of the grid whose values come from its neighbour.
func writeRegions(path string) ([]string, error) {
	fc := geojson.NewFeatureCollection()
	var codes []string
	add := func(x0, y0 float64) {
		code := fmt.Sprintf("E0100%04d", len(codes)+1)
		f := geojson.NewFeature(orb.Polygon{orb.Ring{
			{x0, y0}, {x0 + cellSize, y0}, {x0 + cellSize, y0 + cellSize}, {x0, y0 + cellSize}, {x0, y0},
		}})
		f.Properties["LSOA11CD"] = code
		fc.Append(f)
		codes = append(codes, code)
	}
	for row := range gridSide {
		for col := range gridSide {
			add(cellSize*float64(col), cellSize*float64(row))
		}
	}
	add(cellSize*gridSide, 0)

	l, err := region.NewLayer(fc, "LSOA11CD", crs)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err := region.Write(f, l); err != nil {
		f.Close()
		return nil, err
	}
	return codes, f.Close()
}

func writeTables(dir string, codes []string, rng *rand.Rand) error {
	consumption := map[int]map[string]float64{}
	var shares []csvfile.ShareRow
	capacity := map[string]float64{}
	for _, code := range codes {
		capacity[code] = round2(3 + 2*rng.Float64())
	}
	for _, gy := range regional.GasYears() {
		consumption[gy.Year] = map[string]float64{}
		for _, code := range codes {
			consumption[gy.Year][code] = math.Round(11000 + 3000*rng.Float64())
		}
		shares = append(shares, csvfile.NewShareRow(gy.Year, 240+10*rng.Float64(), 310))
	}

	if err := csvfile.WriteGasDemand(filepath.Join(dir, "gas_demand.csv"), consumption); err != nil {
		return err
	}
	if err := csvfile.WriteSpaceHeatingShares(filepath.Join(dir, "ecuk_shares.csv"), shares); err != nil {
		return err
	}
	return csvfile.WriteCapacities(filepath.Join(dir, "thermal_capacity.csv"), capacity)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
