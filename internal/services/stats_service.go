package services

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/acbay/co2survey/internal/footprint"
	"github.com/acbay/co2survey/internal/models"
)

type StatsStore interface {
	ListSurveys(ctx context.Context) ([]*models.Survey, error)
	ListSurveysByOwner(ctx context.Context, ownerID string) ([]*models.Survey, error)
}

type StatsService struct {
	store StatsStore
}

func NewStatsService(store StatsStore) *StatsService {
	return &StatsService{store: store}
}

type Summary struct {
	Count    int        `json:"count"`
	AvgCo2Kg float64    `json:"avgCo2Kg"`
	Latest   *time.Time `json:"latest,omitempty"`
}

type PublicAggregations struct {
	Count         int            `json:"count"`
	AvgCo2Kg      float64        `json:"avgCo2Kg"`
	ByTransport   map[string]int `json:"byTransport"`
	Flights       map[string]int `json:"flights"`
	Months        []string       `json:"months"`
	AvgCo2ByMonth []float64      `json:"avgCo2ByMonth"`
}

type HRAggregations struct {
	Count       int            `json:"count"`
	AvgCo2Kg    float64        `json:"avgCo2Kg"`
	ByTransport map[string]int `json:"byTransport"`
}

// PublicSummary covers every survey.
func (s *StatsService) PublicSummary(ctx context.Context) (*Summary, error) {
	all, err := s.store.ListSurveys(ctx)
	if err != nil {
		return nil, err
	}
	return summarize(all), nil
}

// PrivateSummary covers the caller's own surveys for employees and every
// survey for other roles.
func (s *StatsService) PrivateSummary(ctx context.Context, actor Actor) (*Summary, error) {
	rows, err := s.scoped(ctx, actor)
	if err != nil {
		return nil, err
	}
	return summarize(rows), nil
}

// scoped narrows employees to their own surveys.
func (s *StatsService) scoped(ctx context.Context, actor Actor) ([]*models.Survey, error) {
	if actor.Role == models.RoleEmployee {
		return s.store.ListSurveysByOwner(ctx, actor.ID)
	}
	return s.store.ListSurveys(ctx)
}

// PrivateSurveys is the row source for the private table partial.
func (s *StatsService) PrivateSurveys(ctx context.Context, actor Actor) ([]*models.Survey, error) {
	return s.scoped(ctx, actor)
}

func (s *StatsService) Public(ctx context.Context) (*PublicAggregations, error) {
	all, err := s.store.ListSurveys(ctx)
	if err != nil {
		return nil, err
	}
	out := &PublicAggregations{
		Count:         len(all),
		ByTransport:   map[string]int{},
		Flights:       map[string]int{},
		Months:        []string{},
		AvgCo2ByMonth: []float64{},
	}
	type acc struct {
		sum   float64
		count int
	}
	byMonth := map[string]*acc{}
	sum := 0.0
	for _, sv := range all {
		out.ByTransport[transportKey(sv)]++
		out.Flights[flightBucket(sv.FlightsPerYear)]++
		total := totalOf(sv)
		sum += total
		key := sv.CreatedAt.UTC().Format("2006-01")
		if byMonth[key] == nil {
			byMonth[key] = &acc{}
		}
		byMonth[key].sum += total
		byMonth[key].count++
	}
	for m := range byMonth {
		out.Months = append(out.Months, m)
	}
	sort.Strings(out.Months)
	for _, m := range out.Months {
		out.AvgCo2ByMonth = append(out.AvgCo2ByMonth, round2(byMonth[m].sum/float64(byMonth[m].count)))
	}
	if len(all) > 0 {
		out.AvgCo2Kg = round2(sum / float64(len(all)))
	}
	return out, nil
}

func (s *StatsService) HR(ctx context.Context) (*HRAggregations, error) {
	all, err := s.store.ListSurveys(ctx)
	if err != nil {
		return nil, err
	}
	out := &HRAggregations{Count: len(all), ByTransport: map[string]int{}}
	sum := 0.0
	for _, sv := range all {
		out.ByTransport[transportKey(sv)]++
		sum += totalOf(sv)
	}
	if len(all) > 0 {
		out.AvgCo2Kg = round2(sum / float64(len(all)))
	}
	return out, nil
}

func summarize(rows []*models.Survey) *Summary {
	out := &Summary{Count: len(rows)}
	if len(rows) == 0 {
		return out
	}
	sum := 0.0
	var latest time.Time
	for _, sv := range rows {
		sum += totalOf(sv)
		if sv.CreatedAt.After(latest) {
			latest = sv.CreatedAt
		}
	}
	out.AvgCo2Kg = round2(sum / float64(len(rows)))
	out.Latest = &latest
	return out
}

func transportKey(sv *models.Survey) string {
	if sv.MainTransport == "" {
		return footprint.Unknown
	}
	return sv.MainTransport
}

// flightBucket groups by flights per year; a missing count falls in "0".
func flightBucket(n *int) string {
	v := -1
	if n != nil {
		v = *n
	}
	switch {
	case v <= 0:
		return "0"
	case v <= 2:
		return "1-2"
	case v <= 5:
		return "2-5"
	default:
		return ">5"
	}
}

func totalOf(sv *models.Survey) float64 {
	if sv.TotalCo2Kg == nil {
		return 0
	}
	return *sv.TotalCo2Kg
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
