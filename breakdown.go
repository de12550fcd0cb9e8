package carbonfootprint

import "math"

// Share is the part of a footprint coming from one category.
type Share struct {
	Category  Category
	Label     string
	Emissions Emissions
	// Percent of the footprint total, between 0 and 100
	Percent float64
}

// Breakdown splits the footprint per category in display order. A zero
// footprint has every share at 0%. When the total overflows to +Inf, infinite
// categories split 100% between them.
func (f Footprint) Breakdown() []Share {
	categories := Categories()

	shares := make([]Share, 0, len(categories))
	for i, percent := range sharePercents(f, categories) {
		shares = append(shares, Share{
			Category:  categories[i],
			Label:     categories[i].Label(),
			Emissions: f.Category(categories[i]),
			Percent:   percent,
		})
	}

	return shares
}

func sharePercents(f Footprint, categories []Category) []float64 {
	result := make([]float64, len(categories))

	total := f.TotalKg()
	if total <= 0 {
		return result
	}

	if !math.IsInf(total, 1) {
		for i, category := range categories {
			result[i] = f.Category(category).KgCO2eq() / total * 100
		}
		return result
	}

	infinite := 0
	largest := 0.0
	for _, category := range categories {
		kg := f.Category(category).KgCO2eq()
		if math.IsInf(kg, 1) {
			infinite++
		}
		largest = max(largest, kg)
	}

	if infinite > 0 {
		for i, category := range categories {
			if math.IsInf(f.Category(category).KgCO2eq(), 1) {
				result[i] = 100 / float64(infinite)
			}
		}
		return result
	}

	// every category is finite but their sum overflows
	scaledTotal := 0.0
	for _, category := range categories {
		scaledTotal += f.Category(category).KgCO2eq() / largest
	}
	for i, category := range categories {
		result[i] = f.Category(category).KgCO2eq() / largest / scaledTotal * 100
	}
	return result
}
