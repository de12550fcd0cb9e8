package demo

import (
	"context"
	"math/rand"
	"net/http"
	"time"

	carbonfootprint "github.com/superdango/carbon-footprint"
	"github.com/superdango/carbon-footprint/internal/cache"
)

// Household implements the carbonfootprint inputs source interface.
// It is used to generate a fictive household for demonstration purpose
type Household struct {
	now     func() time.Time
	samples *cache.Memory[carbonfootprint.Inputs]
	// refresh is how long a sampled consumption is served before a new one
	refresh time.Duration
}

// NewHousehold returns a new demo household whose samples live until ctx is
// done.
func NewHousehold(ctx context.Context) *Household {
	refresh := time.Minute
	return &Household{
		now:     time.Now,
		samples: cache.NewMemory[carbonfootprint.Inputs](ctx, refresh),
		refresh: refresh,
	}
}

// Inputs returns the household consumption of the current month. The same
// sample is returned for every request until it expires.
func (household *Household) Inputs(r *http.Request) (carbonfootprint.Inputs, error) {
	now := household.now()
	return household.samples.GetOrSet(r.Context(), now.Truncate(household.refresh).Format(time.RFC3339),
		func(ctx context.Context) (carbonfootprint.Inputs, error) {
			return household.At(now, rand.Intn(10)), nil
		})
}

// At returns the household inputs for the month of t. noise is a percentage
// added to the electricity consumption.
func (household *Household) At(t time.Time, noise int) carbonfootprint.Inputs {
	return carbonfootprint.Inputs{
		ElectricityMonthly:  float64(seasonalConsumption(t.Month(), noise)),
		PetrolWeekly:        25,
		ShortFlightDistance: 1_600,
		LongFlightDistance:  11_000,
	}
}

// seasonalConsumption generate a monthly electricity consumption in kWh with
// heating and cooling variations
func seasonalConsumption(month time.Month, noise int) int {
	monthlyConsumption := map[time.Month]int{
		time.January:   420,
		time.February:  390,
		time.March:     340,
		time.April:     290,
		time.May:       250,
		time.June:      260,
		time.July:      300,
		time.August:    310,
		time.September: 260,
		time.October:   300,
		time.November:  360,
		time.December:  430,
	}

	return monthlyConsumption[month] + noise*monthlyConsumption[month]/100
}
