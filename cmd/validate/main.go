// Command validate checks an EoH estimates table for integrity and compares
// its time constants with a regional time constant layer.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -estimates data/out/eoh_time_constants.csv \
//	  -layer data/out/heatloss/LSOA.geojson=LSOA11CD \
//	  -min-duration 60
//
// -results-db reads the latest run from a sqlite results database instead of
// the CSV.
package main

import (
	"cmp"
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/heat-flex-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/heat-flex-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/heat-flex-etl/internal/domain"
	"github.com/couchcryptid/heat-flex-etl/internal/grid"
	"github.com/couchcryptid/heat-flex-etl/internal/regional"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	estimatesPath := flag.String("estimates", "", "EoH estimates CSV")
	resultsDB := flag.String("results-db", "", "sqlite results database (latest run is used)")
	layerFlag := flag.String("layer", "", "path=index_key layer carrying thermal time constants")
	crs := flag.String("crs", "EPSG:27700", "CRS of the layer")
	minDuration := flag.Int("min-duration", 60, "minimum interval duration (minutes) to compare")
	maxRatio := flag.Float64("max-ratio", 4, "largest tolerated ratio between EoH and regional medians")
	flag.Parse()

	if (*estimatesPath == "") == (*resultsDB == "") || *layerFlag == "" {
		fmt.Fprintln(os.Stderr, "exactly one of -estimates or -results-db is required, and -layer")
		flag.Usage()
		os.Exit(2)
	}

	os.Exit(run(*estimatesPath, *resultsDB, *layerFlag, *crs, *minDuration, *maxRatio))
}

func run(estimatesPath, resultsDB, layerFlag, crs string, minDuration int, maxRatio float64) int {
	fmt.Println("=== Time Constant Validation ===")
	fmt.Println()

	estimates, err := loadEstimates(estimatesPath, resultsDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load estimates: %v\n", err)
		return 1
	}

	files, err := regional.ParseLayerFiles(layerFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	layers, err := regional.LoadLayers(files[:1], crs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load layer: %v\n", err)
		return 1
	}
	regionalTaus := layers[0].Column(regional.ColTimeConstant)

	eohTaus := selectTaus(estimates, minDuration)
	phases := []*phase{
		validateTableShape(estimates),
		validateEstimates(estimates),
		validateRegional(regionalTaus),
		validateAgreement(eohTaus, finite(regionalTaus), minDuration, maxRatio),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d estimates, %d regions\n", len(estimates), len(regionalTaus))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func loadEstimates(csvPath, dbPath string) ([]domain.Estimate, error) {
	if dbPath != "" {
		store, err := sqlite.Open(dbPath)
		if err != nil {
			return nil, err
		}
		defer store.Close()

		ctx := context.Background()
		latest, err := store.LatestRun(ctx)
		if err != nil {
			return nil, err
		}
		fmt.Printf("Using run %s (%s, %d buildings)\n", latest.ID, latest.CreatedAt.Format("2006-01-02 15:04:05"), latest.Buildings)
		return store.Estimates(ctx, latest.ID)
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return csvfile.ReadEstimates(f)
}

func selectTaus(estimates []domain.Estimate, minDuration int) []float64 {
	var taus []float64
	for _, e := range estimates {
		if e.MinDurationMinutes == minDuration && e.Valid() {
			taus = append(taus, e.MeanTauHours)
		}
	}
	return taus
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// ── Phase 1: Table Shape ──
// Every building carries the same set of thresholds exactly once.

func validateTableShape(estimates []domain.Estimate) *phase {
	p := &phase{name: "Phase 1: Table Shape (buildings x durations)"}
	if len(estimates) == 0 {
		p.errorf("estimates table is empty")
		return p
	}

	byBuilding := map[string][]int{}
	for _, e := range estimates {
		byBuilding[e.BuildingID] = append(byBuilding[e.BuildingID], e.MinDurationMinutes)
	}

	var want []int
	for _, id := range sortedKeys(byBuilding) {
		durations := slices.Sorted(slices.Values(byBuilding[id]))
		if len(slices.Compact(slices.Clone(durations))) != len(durations) {
			p.errorf("building %s: duplicate durations %v", id, durations)
			continue
		}
		if want == nil {
			want = durations
			continue
		}
		if !slices.Equal(want, durations) {
			p.errorf("building %s: durations %v, expected %v", id, durations, want)
		}
	}
	return p
}

// ── Phase 2: Estimate Integrity ──

func validateEstimates(estimates []domain.Estimate) *phase {
	p := &phase{name: "Phase 2: Estimate Integrity (positivity)"}
	for _, e := range estimates {
		key := fmt.Sprintf("%s/%d", e.BuildingID, e.MinDurationMinutes)
		if e.FitFailures > e.Intervals {
			p.errorf("%s: %d fit failures for %d intervals", key, e.FitFailures, e.Intervals)
		}
		if !e.Valid() {
			if e.Intervals > e.FitFailures {
				p.errorf("%s: no time constant despite %d fitted intervals", key, e.Intervals-e.FitFailures)
			}
			continue
		}
		if e.MeanTauHours <= 0 {
			p.errorf("%s: non-positive time constant %g h", key, e.MeanTauHours)
		}
		if e.StdTauHours < 0 {
			p.errorf("%s: negative standard deviation %g h", key, e.StdTauHours)
		}
		if e.ComputedAt.IsZero() {
			p.errorf("%s: computed_at is zero", key)
		}
	}
	return p
}

// ── Phase 3: Regional Coverage ──

func validateRegional(taus []float64) *phase {
	p := &phase{name: "Phase 3: Regional Coverage (time constants)"}
	if len(taus) == 0 {
		p.errorf("layer has no regions")
		return p
	}
	missing := len(taus) - len(finite(taus))
	if missing > 0 {
		fmt.Printf("  Note: %d of %d regions have no time constant\n", missing, len(taus))
	}
	if missing == len(taus) {
		p.errorf("no region carries %q", regional.ColTimeConstant)
	}
	for i, v := range taus {
		if v <= 0 {
			p.errorf("region %d: non-positive time constant %g h", i, v)
		}
	}
	return p
}

// ── Phase 4: Agreement ──
// The building and regional distributions should describe the same stock.

type summary struct {
	count                    int
	mean, q1, median, q3, sd float64
}

func summarize(values []float64) summary {
	s := summary{count: len(values)}
	if len(values) == 0 {
		return s
	}
	sorted := slices.Clone(values)
	s.mean, s.sd = stat.MeanStdDev(sorted, nil)
	s.q1 = grid.Quantile(0.25, sorted)
	s.median = grid.Quantile(0.5, sorted)
	s.q3 = grid.Quantile(0.75, sorted)
	return s
}

func validateAgreement(eoh, reg []float64, minDuration int, maxRatio float64) *phase {
	p := &phase{name: fmt.Sprintf("Phase 4: Agreement (%d min vs regional)", minDuration)}

	e, r := summarize(eoh), summarize(reg)
	fmt.Printf("  %-10s %6s %8s %8s %8s %8s %8s\n", "", "count", "mean", "q1", "median", "q3", "sd")
	for _, row := range []struct {
		name string
		s    summary
	}{{"EoH", e}, {"regional", r}} {
		fmt.Printf("  %-10s %6d %8.2f %8.2f %8.2f %8.2f %8.2f\n",
			row.name, row.s.count, row.s.mean, row.s.q1, row.s.median, row.s.q3, row.s.sd)
	}

	if e.count == 0 {
		p.errorf("no building time constants at %d minutes", minDuration)
	}
	if r.count == 0 {
		p.errorf("no regional time constants")
	}
	if e.count == 0 || r.count == 0 {
		return p
	}
	ratio := e.median / r.median
	if ratio > maxRatio || ratio < 1/maxRatio {
		p.errorf("median ratio %.2f outside [%.2f, %.2f]", ratio, 1/maxRatio, maxRatio)
	}
	return p
}

// ── Helpers ──

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, cmp.Compare[string])
	return keys
}
