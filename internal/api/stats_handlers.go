package api

import (
	"net/http"
	"time"

	"github.com/acbay/co2survey/internal/models"
)

// viewerSurvey is the per-record projection for authenticated listings.
type viewerSurvey struct {
	ID                string    `json:"id"`
	OwnerID           string    `json:"owner_id"`
	CreatedAt         time.Time `json:"created_at"`
	OfficeDaysPerWeek int       `json:"office_days_per_week"`
	MainTransport     string    `json:"main_transport"`
	CommuteDistanceKm float64   `json:"commute_distance_km"`
	FlightsPerYear    *int      `json:"flights_per_year"`
	TotalCo2Kg        *float64  `json:"total_co2_kg"`
}

func toViewer(rows []*models.Survey) []viewerSurvey {
	out := make([]viewerSurvey, 0, len(rows))
	for _, sv := range rows {
		out = append(out, viewerSurvey{
			ID:                sv.ID,
			OwnerID:           sv.OwnerID,
			CreatedAt:         sv.CreatedAt,
			OfficeDaysPerWeek: sv.OfficeDaysPerWeek,
			MainTransport:     sv.MainTransport,
			CommuteDistanceKm: sv.CommuteDistanceKm,
			FlightsPerYear:    sv.FlightsPerYear,
			TotalCo2Kg:        sv.TotalCo2Kg,
		})
	}
	return out
}

// GET /api/stats/public
func (rt *Router) handlePublicSurveys(w http.ResponseWriter, r *http.Request) {
	rows, err := rt.svc.Surveys.ListPublic(r.Context())
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GET /api/stats/emission-factors
func (rt *Router) handleEmissionFactors(w http.ResponseWriter, r *http.Request) {
	rows, err := rt.svc.Factors.List(r.Context())
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GET /api/stats/aggregations
func (rt *Router) handlePublicAggregations(w http.ResponseWriter, r *http.Request) {
	agg, err := rt.svc.Stats.Public(r.Context())
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, agg)
}

// GET /api/stats
func (rt *Router) handleViewerSurveys(w http.ResponseWriter, r *http.Request) {
	rows, err := rt.svc.Surveys.ListForViewer(r.Context(), actorFrom(r))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toViewer(rows))
}

// GET /api/stats/me
func (rt *Router) handleMySurveys(w http.ResponseWriter, r *http.Request) {
	rows, err := rt.svc.Surveys.ListMine(r.Context(), actorFrom(r))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GET /api/stats/hr/aggregations
func (rt *Router) handleHRAggregations(w http.ResponseWriter, r *http.Request) {
	agg, err := rt.svc.Stats.HR(r.Context())
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, agg)
}
