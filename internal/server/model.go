package server

import (
	"fmt"
	"math"
	"strconv"

	json "github.com/goccy/go-json"

	carbonfootprint "github.com/superdango/carbon-footprint"
)

type FootprintResponse struct {
	CalculationMetadata CalculationMetadata    `json:"calculation_metadata"`
	Inputs              carbonfootprint.Inputs `json:"inputs"`
	Footprint           FootprintResult        `json:"footprint"`
}

type CalculationMetadata struct {
	CalculationID          string `json:"calculation_id"`
	CalculationStartedAt   string `json:"calculation_started_at"`
	CalculationCompletedAt string `json:"calculation_completed_at"`
	CalculationDurationMs  int64  `json:"calculation_duration_ms"`
}

type FootprintResult struct {
	ElectricityKg Quantity      `json:"electricity_kg"`
	PetrolKg      Quantity      `json:"petrol_kg"`
	ShortFlightKg Quantity      `json:"short_flight_kg"`
	LongFlightKg  Quantity      `json:"long_flight_kg"`
	TotalKg       Quantity      `json:"total_kg"`
	TotalTonnes   Quantity      `json:"total_tonnes"`
	Breakdown     []ShareResult `json:"breakdown"`
}

type ShareResult struct {
	Category string   `json:"category"`
	Label    string   `json:"label"`
	Kg       Quantity `json:"kg"`
	Percent  float64  `json:"percent"`
}

// Quantity is a JSON number. Values too large to be finite are encoded as the
// strings "+Inf" and "-Inf", as in the OpenMetrics exposition.
type Quantity float64

func (q Quantity) MarshalJSON() ([]byte, error) {
	v := float64(q)
	switch {
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	}
	return strconv.AppendFloat(nil, v, 'f', -1, 64), nil
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch value := raw.(type) {
	case float64:
		*q = Quantity(value)
	case string:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid quantity %q: %w", value, err)
		}
		*q = Quantity(v)
	default:
		return fmt.Errorf("invalid quantity %s", data)
	}
	return nil
}

type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// NewFootprintResult flattens a footprint for serialization.
func NewFootprintResult(footprint carbonfootprint.Footprint) FootprintResult {
	shares := footprint.Breakdown()
	breakdown := make([]ShareResult, len(shares))
	for i, share := range shares {
		breakdown[i] = ShareResult{
			Category: string(share.Category),
			Label:    share.Label,
			Kg:       Quantity(share.Emissions.KgCO2eq()),
			Percent:  share.Percent,
		}
	}

	return FootprintResult{
		ElectricityKg: Quantity(footprint.Electricity.KgCO2eq()),
		PetrolKg:      Quantity(footprint.Petrol.KgCO2eq()),
		ShortFlightKg: Quantity(footprint.ShortFlight.KgCO2eq()),
		LongFlightKg:  Quantity(footprint.LongFlight.KgCO2eq()),
		TotalKg:       Quantity(footprint.TotalKg()),
		TotalTonnes:   Quantity(footprint.TotalTonnes()),
		Breakdown:     breakdown,
	}
}
