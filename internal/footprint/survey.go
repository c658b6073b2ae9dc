package footprint

// RawAnswers holds one respondent's answers as free text, before any mapping.
// Empty strings mean the question was not answered.
type RawAnswers struct {
	OfficeDays            string `json:"office_days"`
	MainTransport         string `json:"main_transport"`
	AltTransportFrequency string `json:"alt_transport_frequency"`
	AltTransport          string `json:"alt_transport"`
	Distance              string `json:"distance"`
	CarType               string `json:"car_type"`
	FlightsPerYear        string `json:"flights_per_year"`
	FlightDistance        string `json:"flight_distance"`
	HeatingType           string `json:"heating_type"`
	WarmWaterType         string `json:"warm_water_type"`
	GreenElectricity      string `json:"green_electricity"`
	SmartElectricityUsage string `json:"smart_electricity_usage"`
	Fireworks             string `json:"fireworks"`
	CO2Importance         string `json:"co2_importance"`
}

// Inputs are the parsed survey fields the calculator works on. Pointer fields
// are nil when the answer was absent or unrecognised, so a resolved zero stays
// distinguishable from missing data.
type Inputs struct {
	OfficeDaysPerWeek     int      `json:"office_days_per_week"`
	MainTransport         string   `json:"main_transport"`
	AltTransport          string   `json:"alt_transport,omitempty"`
	AltTransportShare     *float64 `json:"alt_transport_share"`
	CommuteDistanceKm     float64  `json:"commute_distance_km"`
	CarType               string   `json:"car_type,omitempty"`
	FlightsPerYear        *int     `json:"flights_per_year"`
	FlightDistance        string   `json:"flight_distance,omitempty"`
	FlightDistanceKm      *int     `json:"flight_distance_km"`
	HeatingType           string   `json:"heating_type"`
	WarmWaterType         string   `json:"warm_water_type"`
	UsesGreenElectricity  *string  `json:"uses_green_electricity"`
	SmartElectricityShare *float64 `json:"smart_electricity_share"`
	FireworksPerYear      *float64 `json:"fireworks_per_year"`
	CO2Importance         *float64 `json:"co2_importance"`
}

// NormalizeAndMap turns raw answers into calculator inputs. It never fails:
// unrecognised answers resolve to neutral defaults.
func NormalizeAndMap(raw RawAnswers) Inputs {
	flightLabel := MapFlightDistance(raw.FlightDistance)
	return Inputs{
		OfficeDaysPerWeek:     ParseOfficeDays(raw.OfficeDays),
		MainTransport:         MapTransport(raw.MainTransport, raw.CarType),
		AltTransport:          MapAltTransport(raw.AltTransport),
		AltTransportShare:     ParseAltFrequency(raw.AltTransportFrequency),
		CommuteDistanceKm:     ParseDistanceKm(raw.Distance),
		CarType:               MapCarType(raw.CarType),
		FlightsPerYear:        ParseFlightsPerYear(raw.FlightsPerYear),
		FlightDistance:        flightLabel,
		FlightDistanceKm:      FlightDistanceKm(flightLabel),
		HeatingType:           MapHeatSource(raw.HeatingType),
		WarmWaterType:         MapHeatSource(raw.WarmWaterType),
		UsesGreenElectricity:  ParseText(raw.GreenElectricity),
		SmartElectricityShare: ParseAltFrequency(raw.SmartElectricityUsage),
		FireworksPerYear:      ParseNumber(raw.Fireworks),
		CO2Importance:         ParseNumber(raw.CO2Importance),
	}
}
