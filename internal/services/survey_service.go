package services

import (
	"context"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/acbay/co2survey/internal/footprint"
	"github.com/acbay/co2survey/internal/models"
)

type SurveyService struct {
	surveys SurveyStore
	factors FactorStore
	now     func() time.Time
	idGen   func() string
	workers int
	log     zerolog.Logger
}

// PublicSurvey is the anonymous projection served without authentication.
type PublicSurvey struct {
	ID                string    `json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	OfficeDaysPerWeek int       `json:"office_days_per_week"`
	MainTransport     string    `json:"main_transport"`
	CommuteDistanceKm float64   `json:"commute_distance_km"`
	FlightsPerYear    *int      `json:"flights_per_year"`
	TotalCo2Kg        *float64  `json:"total_co2_kg"`
}

func NewSurveyService(surveys SurveyStore, factors FactorStore, log zerolog.Logger) *SurveyService {
	return &SurveyService{
		surveys: surveys,
		factors: factors,
		now:     func() time.Time { return time.Now().UTC() },
		idGen:   uuid.NewString,
		workers: runtime.GOMAXPROCS(0),
		log:     log,
	}
}

func (s *SurveyService) currentFactors(ctx context.Context) ([]footprint.EmissionFactor, error) {
	rows, err := s.factors.ListFactors(ctx)
	if err != nil {
		return nil, err
	}
	return models.Factors(rows), nil
}

func (s *SurveyService) build(ownerID string, raw footprint.RawAnswers, factors []footprint.EmissionFactor, at time.Time) *models.Survey {
	in := footprint.NormalizeAndMap(raw)
	total := footprint.ComputeTotal(in, factors)
	if in.MainTransport == footprint.Unknown && raw.MainTransport != "" {
		s.log.Debug().Str("answer", raw.MainTransport).Msg("transport not mapped")
	}
	return &models.Survey{
		ID:         s.idGen(),
		OwnerID:    ownerID,
		CreatedAt:  at,
		Inputs:     in,
		TotalCo2Kg: &total,
	}
}

// Submit maps one set of answers, prices it against the current factor table
// and stores it. Unrecognised answers never fail the submission.
func (s *SurveyService) Submit(ctx context.Context, ownerID string, raw footprint.RawAnswers) (*models.Survey, error) {
	if ownerID == "" {
		return nil, NewUnauthorizedError("owner required")
	}
	factors, err := s.currentFactors(ctx)
	if err != nil {
		return nil, err
	}
	sv := s.build(ownerID, raw, factors, s.now())
	if err := s.surveys.AddSurvey(ctx, sv); err != nil {
		return nil, err
	}
	return sv, nil
}

// ReplaceAll swaps every survey of ownerID for the given answers. Used by the
// spreadsheet import; rows keep their order through monotonic timestamps.
func (s *SurveyService) ReplaceAll(ctx context.Context, ownerID string, raws []footprint.RawAnswers) (int, error) {
	if ownerID == "" {
		return 0, NewInvalidError("owner required")
	}
	factors, err := s.currentFactors(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now()
	rows := make([]*models.Survey, 0, len(raws))
	for i, raw := range raws {
		rows = append(rows, s.build(ownerID, raw, factors, now.Add(time.Duration(i)*time.Microsecond)))
	}
	if err := s.surveys.ReplaceSurveys(ctx, ownerID, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *SurveyService) ListPublic(ctx context.Context) ([]PublicSurvey, error) {
	all, err := s.surveys.ListSurveys(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PublicSurvey, 0, len(all))
	for _, sv := range all {
		out = append(out, PublicSurvey{
			ID:                sv.ID,
			CreatedAt:         sv.CreatedAt,
			OfficeDaysPerWeek: sv.OfficeDaysPerWeek,
			MainTransport:     sv.MainTransport,
			CommuteDistanceKm: sv.CommuteDistanceKm,
			FlightsPerYear:    sv.FlightsPerYear,
			TotalCo2Kg:        sv.TotalCo2Kg,
		})
	}
	return out, nil
}

// ListForViewer returns the records a role may see individually. HR only
// ever gets aggregates; employees see their own; admins see everything.
func (s *SurveyService) ListForViewer(ctx context.Context, actor Actor) ([]*models.Survey, error) {
	switch {
	case actor.Role == models.RoleHR:
		return nil, NewForbiddenError("HR role can access only aggregated data")
	case actor.Role.IsAdmin():
		return s.surveys.ListSurveys(ctx)
	default:
		return s.surveys.ListSurveysByOwner(ctx, actor.ID)
	}
}

func (s *SurveyService) ListMine(ctx context.Context, actor Actor) ([]*models.Survey, error) {
	if actor.ID == "" {
		return nil, NewUnauthorizedError("not authenticated")
	}
	return s.surveys.ListSurveysByOwner(ctx, actor.ID)
}

// Recompute re-prices every stored survey against the current factor table
// and returns how many totals were written.
func (s *SurveyService) Recompute(ctx context.Context) (int, error) {
	factors, err := s.currentFactors(ctx)
	if err != nil {
		return 0, err
	}
	all, err := s.surveys.ListSurveys(ctx)
	if err != nil {
		return 0, err
	}
	totals := make([]float64, len(all))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.workers, 1))
	for i, sv := range all {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			totals[i] = footprint.ComputeTotal(sv.Inputs, factors)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	byID := make(map[string]float64, len(all))
	for i, sv := range all {
		byID[sv.ID] = totals[i]
	}
	if err := s.surveys.UpdateSurveyTotals(ctx, byID); err != nil {
		return 0, err
	}
	s.log.Info().Int("surveys", len(byID)).Int("factors", len(factors)).Msg("survey totals recomputed")
	return len(byID), nil
}
