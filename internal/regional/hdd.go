package regional

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/heat-flex-etl/internal/grid"
	"github.com/couchcryptid/heat-flex-etl/internal/region"
)

// GasYear is the weather window matching one year of published gas
// consumption. Both ends are inclusive.
type GasYear struct {
	Year int
	From time.Time
	To   time.Time
}

// GasYears returns the 2017 to 2021 gas years. The 2017 statistics cover
// mid-June 2017 to mid-June 2018; later years run mid-May to mid-May.
func GasYears() []GasYear {
	years := make([]GasYear, 0, 5)
	for y := 2017; y <= 2021; y++ {
		day, month := 15, time.May
		if y == 2017 {
			month = time.June
		}
		years = append(years, GasYear{
			Year: y,
			From: time.Date(y, month, day, 0, 0, 0, 0, time.UTC),
			To:   time.Date(y+1, month, day, 0, 0, 0, 0, time.UTC),
		})
	}
	return years
}

// HDDColumn names the heating degree day column for a gas year.
func HDDColumn(year int) string { return fmt.Sprintf("%d gas HDDs", year) }

// HDDs assigns each gas year's heating degree days, summed from daily mean
// temperatures below threshold, to every layer.
func (s *Stage) HDDs(ctx context.Context, daily *grid.Series, years []GasYear, threshold float64, layers ...*region.Layer) error {
	defer s.observe("hdd", time.Now())

	for _, gy := range years {
		window := daily.Window(gy.From, gy.To)
		if window.Len() == 0 {
			return fmt.Errorf("gas year %d: no temperature data between %s and %s",
				gy.Year, gy.From.Format(time.DateOnly), gy.To.Format(time.DateOnly))
		}
		s.logger.Info("computing HDDs", "year", gy.Year, "days", window.Len(), "threshold", threshold)
		if err := s.Assign(ctx, window.HDD(threshold), HDDColumn(gy.Year), layers...); err != nil {
			return err
		}
	}
	return nil
}
