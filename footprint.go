// Package carbonfootprint estimates the yearly carbon footprint of a household
// from a handful of lifestyle quantities and fixed emission factors.
package carbonfootprint

// Emission factors in kgCO2eq per unit of activity.
const (
	ElectricityFactor = 0.50 // per kWh
	PetrolFactor      = 2.31 // per liter
	ShortFlightFactor = 0.15 // per km
	LongFlightFactor  = 0.11 // per km
)

// Category identifies one source of emissions.
type Category string

const (
	Electricity Category = "electricity"
	Petrol      Category = "petrol"
	ShortFlight Category = "short_flight"
	LongFlight  Category = "long_flight"
)

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{Electricity, Petrol, ShortFlight, LongFlight}
}

// Label is the human readable name of the category.
func (c Category) Label() string {
	switch c {
	case Electricity:
		return "Electricity"
	case Petrol:
		return "Petrol (vehicle fuel)"
	case ShortFlight:
		return "Short flights"
	case LongFlight:
		return "Long flights"
	}
	return string(c)
}

// Inputs are the activity quantities a footprint is computed from.
type Inputs struct {
	// ElectricityMonthly in kWh per month
	ElectricityMonthly float64 `json:"electricity_monthly" mapstructure:"electricityMonthly"`
	// PetrolWeekly in liters per week
	PetrolWeekly float64 `json:"petrol_weekly" mapstructure:"petrolWeekly"`
	// ShortFlightDistance in km per year
	ShortFlightDistance float64 `json:"short_flight_distance" mapstructure:"shortFlightDistance"`
	// LongFlightDistance in km per year
	LongFlightDistance float64 `json:"long_flight_distance" mapstructure:"longFlightDistance"`
}

// Sanitized returns a copy of the inputs where every unusable quantity is zero.
func (in Inputs) Sanitized() Inputs {
	return Inputs{
		ElectricityMonthly:  Sanitize(in.ElectricityMonthly),
		PetrolWeekly:        Sanitize(in.PetrolWeekly),
		ShortFlightDistance: Sanitize(in.ShortFlightDistance),
		LongFlightDistance:  Sanitize(in.LongFlightDistance),
	}
}

// ParseInputs builds inputs from raw text values, as typed in a form.
func ParseInputs(electricityMonthly, petrolWeekly, shortFlightDistance, longFlightDistance string) Inputs {
	return Inputs{
		ElectricityMonthly:  ParseQuantity(electricityMonthly),
		PetrolWeekly:        ParseQuantity(petrolWeekly),
		ShortFlightDistance: ParseQuantity(shortFlightDistance),
		LongFlightDistance:  ParseQuantity(longFlightDistance),
	}
}

// Footprint holds yearly emissions per category.
type Footprint struct {
	Electricity Emissions
	Petrol      Emissions
	ShortFlight Emissions
	LongFlight  Emissions
}

// Compute returns the yearly footprint of the inputs. It never fails: unusable
// quantities contribute nothing.
func Compute(in Inputs) Footprint {
	in = in.Sanitized()

	electricityYearly := Monthly.Annualize(in.ElectricityMonthly)
	petrolYearly := Weekly.Annualize(in.PetrolWeekly)

	return Footprint{
		Electricity: Emissions(electricityYearly * ElectricityFactor),
		Petrol:      Emissions(petrolYearly * PetrolFactor),
		ShortFlight: Emissions(in.ShortFlightDistance * ShortFlightFactor),
		LongFlight:  Emissions(in.LongFlightDistance * LongFlightFactor),
	}
}

// Total is the sum of every category.
func (f Footprint) Total() Emissions {
	return f.Electricity + f.Petrol + f.ShortFlight + f.LongFlight
}

func (f Footprint) TotalKg() float64 {
	return f.Total().KgCO2eq()
}

func (f Footprint) TotalTonnes() float64 {
	return f.Total().TCO2eq()
}

// Category returns the emissions of a single category, zero if unknown.
func (f Footprint) Category(c Category) Emissions {
	switch c {
	case Electricity:
		return f.Electricity
	case Petrol:
		return f.Petrol
	case ShortFlight:
		return f.ShortFlight
	case LongFlight:
		return f.LongFlight
	}
	return 0
}
