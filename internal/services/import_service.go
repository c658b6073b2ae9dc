package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/acbay/co2survey/internal/importer"
)

type ImportService struct {
	users      UserStore
	factors    *FactorService
	surveys    *SurveyService
	ownerEmail string
	log        zerolog.Logger
}

type FactorImportResult struct {
	FactorBatch
	Warnings   []string `json:"warnings"`
	Recomputed int      `json:"recomputed"`
}

type SurveyImportResult struct {
	OwnerID  string `json:"owner_id"`
	Imported int    `json:"imported"`
}

// NewImportService wires the importer to the factor and survey services.
// Imported surveys belong to the account with ownerEmail when it exists.
func NewImportService(users UserStore, factors *FactorService, surveys *SurveyService, ownerEmail string, log zerolog.Logger) *ImportService {
	return &ImportService{users: users, factors: factors, surveys: surveys, ownerEmail: strings.TrimSpace(ownerEmail), log: log}
}

// ImportFactors replaces the factor table from wb and re-prices every stored
// survey. The table swap is committed before the re-pricing starts; when that
// step fails the new factors stay and totals are stale until a later
// Recompute succeeds.
func (s *ImportService) ImportFactors(ctx context.Context, actor Actor, wb importer.Workbook) (*FactorImportResult, error) {
	if !actor.Role.IsAdmin() {
		return nil, NewForbiddenError("forbidden")
	}
	rows, warnings, err := importer.ReadFactors(wb)
	if err != nil {
		return nil, NewInvalidError("read factors: " + err.Error())
	}
	for _, w := range warnings {
		s.log.Warn().Str("warning", w).Msg("factor import")
	}
	if len(rows) == 0 {
		return nil, NewInvalidError("no emission factors found; expected sheets " + strings.Join(importer.FactorSheetNames(), ", "))
	}
	inputs := make([]FactorInput, 0, len(rows))
	for _, r := range rows {
		inputs = append(inputs, FactorInput{EmissionFactor: r.EmissionFactor, Source: r.Source})
	}
	batch, err := s.factors.ReplaceAll(ctx, actor.ID, inputs)
	if err != nil {
		return nil, err
	}
	n, err := s.surveys.Recompute(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("batch", batch.BatchID).Msg("factors replaced but survey totals are stale; run recompute")
		return nil, fmt.Errorf("factors replaced (batch %s), recompute failed: %w", batch.BatchID, err)
	}
	if warnings == nil {
		warnings = []string{}
	}
	return &FactorImportResult{FactorBatch: *batch, Warnings: warnings, Recomputed: n}, nil
}

// ImportSurveys replaces the import owner's surveys with the rows of the
// first sheet of wb.
func (s *ImportService) ImportSurveys(ctx context.Context, actor Actor, wb importer.Workbook) (*SurveyImportResult, error) {
	if !actor.Role.IsAdmin() {
		return nil, NewForbiddenError("forbidden")
	}
	raws, err := importer.ReadSurveys(wb)
	if err != nil {
		if errors.Is(err, importer.ErrNoSheets) {
			return nil, NewInvalidError(err.Error())
		}
		return nil, err
	}
	owner, err := s.owner(ctx, actor)
	if err != nil {
		return nil, err
	}
	n, err := s.surveys.ReplaceAll(ctx, owner, raws)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("owner", owner).Int("rows", n).Msg("surveys imported")
	return &SurveyImportResult{OwnerID: owner, Imported: n}, nil
}

func (s *ImportService) owner(ctx context.Context, actor Actor) (string, error) {
	if s.ownerEmail == "" {
		return actor.ID, nil
	}
	u, err := s.users.FindUserByEmail(ctx, s.ownerEmail)
	if err != nil {
		return "", err
	}
	if u == nil {
		return actor.ID, nil
	}
	return u.ID, nil
}
