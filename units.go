package carbonfootprint

// Emissions in kgCO2eq
type Emissions float64

func (e Emissions) KgCO2eq() float64 {
	return float64(e)
}

func (e Emissions) TCO2eq() float64 {
	return e.KgCO2eq() / 1000
}

// Period is the time span an activity quantity is expressed over.
type Period int

const (
	Yearly Period = iota
	Monthly
	Weekly
)

// PerYear returns how many times the period fits in a year.
func (p Period) PerYear() float64 {
	switch p {
	case Monthly:
		return 12
	case Weekly:
		return 52
	}
	return 1
}

func (p Period) String() string {
	switch p {
	case Monthly:
		return "month"
	case Weekly:
		return "week"
	}
	return "year"
}

// Annualize converts a quantity expressed over the period into a yearly quantity.
func (p Period) Annualize(quantity float64) float64 {
	return quantity * p.PerYear()
}
