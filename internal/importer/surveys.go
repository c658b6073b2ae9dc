package importer

import (
	"errors"

	"github.com/acbay/co2survey/internal/footprint"
)

// Column aliases per answer. Question texts come first, with and without
// umlauts; the trailing snake_case names accept plain CSV exports.
var (
	aliasOfficeDays   = []string{"Wie oft sind Sie pro Woche im Büro?", "office_days"}
	aliasMain         = []string{"Mit welchem Verkehrsmittel kommen Sie in der Regel zur Arbeit?", "main_transport"}
	aliasAltFrequency = []string{"Nutzen Sie auch alternative Verkehrsmittel an manchen Tagen?", "alt_transport_frequency"}
	aliasAlt          = []string{"Wenn ja, welche alternativen Verkehrsmittel?", "alt_transport"}
	aliasDistance     = []string{"Wie weit ist Ihr Arbeitsplatz von zuhause entfernt?", "distance"}
	aliasCarType      = []string{"Falls Sie ein Auto benutzen: Welchen Antrieb hat Ihr Auto?", "car_type"}
	aliasFlights      = []string{"Wie oft fliegen Sie im Jahr?", "flights_per_year"}
	aliasFlightRange  = []string{"Wenn Sie fliegen, welche Strecken fliegen Sie eher?", "flight_distance"}
	aliasHeating      = []string{"Wie heizen Sie zu Hause?", "heating_type"}
	aliasWarmWater    = []string{"Wie wird Ihr Warmwasser zu Hause erzeugt?", "warm_water_type"}
	aliasGreenPower   = []string{"Nutzen Sie zu Hause Ökostrom", "Nutzen Sie zu Hause Ökostrom?", "green_electricity"}
	aliasSmartPower   = []string{
		"Nutzen Sie Strom bewusst zu Zeiten, in denen viel erneuerbare Energie verfügbar ist (z. B. mittags bei PV-Strom)?",
		"smart_electricity_usage",
	}
	aliasFireworks     = []string{"Wie oft verwenden Sie Feuerwerk?", "fireworks"}
	aliasCO2Importance = []string{
		"Wie wichtig ist Ihnen das Thema CO2-Einsparung? (1 sehr wichtig – 6 gar nicht wichtig)",
		"co2_importance",
	}
)

// ErrNoSheets is returned for a workbook without any sheet.
var ErrNoSheets = errors.New("workbook has no sheets")

// ReadSurveys reads one RawAnswers per non-blank row of the first sheet.
// Headers are matched after text normalization, so umlaut and dash variants
// of the question texts resolve to the same column.
func ReadSurveys(wb Workbook) ([]footprint.RawAnswers, error) {
	names := wb.SheetNames()
	if len(names) == 0 {
		return nil, ErrNoSheets
	}
	rows, err := wb.Rows(names[0])
	if err != nil {
		return nil, err
	}
	g := newGrid(rows)
	out := make([]footprint.RawAnswers, 0, len(g.rows))
	for _, row := range g.rows {
		if blank(row) {
			continue
		}
		out = append(out, footprint.RawAnswers{
			OfficeDays:            g.cell(row, aliasOfficeDays),
			MainTransport:         g.cell(row, aliasMain),
			AltTransportFrequency: g.cell(row, aliasAltFrequency),
			AltTransport:          g.cell(row, aliasAlt),
			Distance:              g.cell(row, aliasDistance),
			CarType:               g.cell(row, aliasCarType),
			FlightsPerYear:        g.cell(row, aliasFlights),
			FlightDistance:        g.cell(row, aliasFlightRange),
			HeatingType:           g.cell(row, aliasHeating),
			WarmWaterType:         g.cell(row, aliasWarmWater),
			GreenElectricity:      g.cell(row, aliasGreenPower),
			SmartElectricityUsage: g.cell(row, aliasSmartPower),
			Fireworks:             g.cell(row, aliasFireworks),
			CO2Importance:         g.cell(row, aliasCO2Importance),
		})
	}
	return out, nil
}
