package services

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/acbay/co2survey/internal/models"
)

var surveyCSVHeader = []string{
	"id", "owner_id", "created_at",
	"office_days_per_week", "main_transport", "alt_transport", "alt_transport_share",
	"commute_distance_km", "car_type", "flights_per_year", "flight_distance", "flight_distance_km",
	"heating_type", "warm_water_type", "uses_green_electricity", "smart_electricity_share",
	"fireworks_per_year", "co2_importance", "total_co2_kg",
}

// ExportSurveysCSV renders one row per survey. Absent optional values are
// empty cells, so they stay distinguishable from a recorded zero.
func ExportSurveysCSV(rows []*models.Survey) ([]byte, error) {
	buf := &bytes.Buffer{}
	// UTF-8 BOM so spreadsheet tools keep the umlauts in labels
	buf.WriteString("\ufeff")
	w := csv.NewWriter(buf)
	if err := w.Write(surveyCSVHeader); err != nil {
		return nil, err
	}
	for _, sv := range rows {
		rec := []string{
			sv.ID,
			sv.OwnerID,
			sv.CreatedAt.UTC().Format(time.RFC3339),
			strconv.Itoa(sv.OfficeDaysPerWeek),
			sv.MainTransport,
			sv.AltTransport,
			optFloat(sv.AltTransportShare),
			formatFloat(sv.CommuteDistanceKm),
			sv.CarType,
			optInt(sv.FlightsPerYear),
			sv.FlightDistance,
			optInt(sv.FlightDistanceKm),
			sv.HeatingType,
			sv.WarmWaterType,
			optString(sv.UsesGreenElectricity),
			optFloat(sv.SmartElectricityShare),
			optFloat(sv.FireworksPerYear),
			optFloat(sv.CO2Importance),
			optFloat(sv.TotalCo2Kg),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
