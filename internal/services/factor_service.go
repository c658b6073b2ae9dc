package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/acbay/co2survey/internal/footprint"
	"github.com/acbay/co2survey/internal/models"
)

type FactorAuditStore interface {
	FactorStore
	AddAudit(ctx context.Context, e models.AuditEntry) error
}

type FactorService struct {
	store   FactorAuditStore
	now     func() time.Time
	batchID func() string
	log     zerolog.Logger
}

// FactorInput is one factor to store, with where it came from.
type FactorInput struct {
	footprint.EmissionFactor
	Source string
}

type FactorBatch struct {
	BatchID string `json:"batch_id"`
	Count   int    `json:"count"`
	Skipped int    `json:"skipped"`
}

func NewFactorService(store FactorAuditStore, log zerolog.Logger) *FactorService {
	return &FactorService{
		store:   store,
		now:     func() time.Time { return time.Now().UTC() },
		batchID: func() string { return ulid.Make().String() },
		log:     log,
	}
}

// ReplaceAll swaps the whole factor table for inputs. Entries without a label
// or with an unknown category are dropped. An empty batch is rejected so a
// broken upload cannot wipe the table.
func (s *FactorService) ReplaceAll(ctx context.Context, actor string, inputs []FactorInput) (*FactorBatch, error) {
	batch := &FactorBatch{BatchID: s.batchID()}
	now := s.now()
	rows := make([]*models.EmissionFactor, 0, len(inputs))
	for _, in := range inputs {
		in.Label = strings.TrimSpace(in.Label)
		if in.Label == "" || !in.Category.Valid() {
			batch.Skipped++
			s.log.Debug().Str("label", in.Label).Str("category", string(in.Category)).Msg("factor skipped")
			continue
		}
		rows = append(rows, &models.EmissionFactor{
			ID:             uuid.NewString(),
			BatchID:        batch.BatchID,
			EmissionFactor: in.EmissionFactor,
			Source:         strings.TrimSpace(in.Source),
			// strictly increasing so insertion order survives stores that sort by time
			CreatedAt: now.Add(time.Duration(len(rows)) * time.Microsecond),
		})
	}
	if len(rows) == 0 {
		return nil, NewInvalidError("no emission factors in batch")
	}
	if err := s.store.ReplaceFactors(ctx, rows); err != nil {
		return nil, err
	}
	batch.Count = len(rows)
	if err := s.store.AddAudit(ctx, models.AuditEntry{Time: now, Actor: actor, Action: "factors.replace", Target: batch.BatchID, Note: strconv.Itoa(batch.Count)}); err != nil {
		s.log.Error().Err(err).Str("batch", batch.BatchID).Msg("audit factor replace")
	}
	s.log.Info().Str("batch", batch.BatchID).Int("count", batch.Count).Int("skipped", batch.Skipped).Msg("emission factors replaced")
	return batch, nil
}

func (s *FactorService) List(ctx context.Context) ([]*models.EmissionFactor, error) {
	return s.store.ListFactors(ctx)
}

// Current returns the factor table in the shape the calculator takes.
func (s *FactorService) Current(ctx context.Context) ([]footprint.EmissionFactor, error) {
	rows, err := s.store.ListFactors(ctx)
	if err != nil {
		return nil, err
	}
	return models.Factors(rows), nil
}
