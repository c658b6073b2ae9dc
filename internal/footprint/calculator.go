// Package footprint maps noisy survey answers to emission factor labels and
// derives an annual CO2 estimate from them.
//
// Everything here is pure and allocation-light; callers may run it from any
// number of goroutines without coordination.
package footprint

import "math"

const gramsPerKg = 1000.0

// Breakdown is the total split into its three independent sub-estimates,
// all in kg CO2 per year.
type Breakdown struct {
	CommuteKg   float64 `json:"commute_kg"`
	FlightKg    float64 `json:"flight_kg"`
	WarmWaterKg float64 `json:"warm_water_kg"`
}

// Total is the plain sum of the sub-estimates, unrounded.
func (b Breakdown) Total() float64 {
	return b.CommuteKg + b.FlightKg + b.WarmWaterKg
}

// Compute evaluates every sub-estimate. A sub-estimate whose preconditions are
// not met, or whose factor is missing, contributes 0.
func Compute(in Inputs, factors []EmissionFactor) Breakdown {
	return Breakdown{
		CommuteKg:   commuteKg(in, factors),
		FlightKg:    flightKg(in, factors),
		WarmWaterKg: warmWaterKg(in, factors),
	}
}

// ComputeTotal returns the annual kg CO2 for one survey.
func ComputeTotal(in Inputs, factors []EmissionFactor) float64 {
	return Compute(in, factors).Total()
}

func commuteKg(in Inputs, factors []EmissionFactor) float64 {
	if in.OfficeDaysPerWeek <= 0 || in.CommuteDistanceKm <= 0 || !resolved(in.MainTransport) {
		return 0
	}
	altShare := 0.0
	if in.AltTransportShare != nil {
		altShare = *in.AltTransportShare
	}
	mainValue := FactorValue(factors, in.MainTransport)
	altValue := FactorValue(factors, in.AltTransport)
	grams := float64(in.OfficeDaysPerWeek) * in.CommuteDistanceKm *
		(mainValue*(1-altShare) + altValue*altShare)
	return finite(grams / gramsPerKg)
}

func flightKg(in Inputs, factors []EmissionFactor) float64 {
	if in.FlightsPerYear == nil || *in.FlightsPerYear == 0 || !resolved(in.FlightDistance) {
		return 0
	}
	grams := FactorValue(factors, in.FlightDistance) * float64(*in.FlightsPerYear)
	return finite(grams / gramsPerKg)
}

// warmWaterKg multiplies the annual warm-water energy demand by the intensity
// of the source that heats it. Both factors must exist.
func warmWaterKg(in Inputs, factors []EmissionFactor) float64 {
	if !resolved(in.WarmWaterType) {
		return 0
	}
	demand, ok := Lookup(factors, LabelWarmWaterDemand)
	if !ok {
		return 0
	}
	source, ok := Lookup(factors, in.WarmWaterType)
	if !ok {
		return 0
	}
	return finite(demand.Value * source.Value / gramsPerKg)
}

func resolved(label string) bool {
	return label != "" && label != Unknown
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
