package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/acbay/co2survey/internal/models"
)

type ExportStore interface {
	ListSurveys(ctx context.Context) ([]*models.Survey, error)
	AddAudit(ctx context.Context, e models.AuditEntry) error
}

type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ExportService struct {
	store ExportStore
	now   func() time.Time
	log   zerolog.Logger
}

func NewExportService(store ExportStore, log zerolog.Logger) *ExportService {
	return &ExportService{store: store, now: func() time.Time { return time.Now().UTC() }, log: log}
}

// ExportCSV dumps every survey for admins. HR is limited to aggregates and
// cannot export individual records.
func (s *ExportService) ExportCSV(ctx context.Context, actor Actor) (*ExportResult, error) {
	if !actor.Role.IsAdmin() {
		return nil, NewForbiddenError("forbidden")
	}
	rows, err := s.store.ListSurveys(ctx)
	if err != nil {
		return nil, err
	}
	data, err := ExportSurveysCSV(rows)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.store.AddAudit(ctx, models.AuditEntry{Time: now, Actor: actor.ID, Action: "surveys.export", Target: "csv"}); err != nil {
		s.log.Error().Err(err).Str("actor", actor.ID).Msg("audit export")
	}
	return &ExportResult{
		Filename:    "surveys-" + now.Format("20060102") + ".csv",
		ContentType: "text/csv; charset=utf-8",
		Data:        data,
	}, nil
}
