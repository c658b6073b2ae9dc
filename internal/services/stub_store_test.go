package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/acbay/co2survey/internal/models"
)

// stubStore implements every store interface the services use. Reads return
// copies so tests observe only what was written through the interface.
type stubStore struct {
	mu      sync.Mutex
	users   map[string]*models.User
	factors []*models.EmissionFactor
	surveys []*models.Survey
	audit   []models.AuditEntry
}

func newStubStore() *stubStore {
	return &stubStore{users: map[string]*models.User{}}
}

func (s *stubStore) AddUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return errors.New("duplicate user")
		}
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *stubStore) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *stubStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubStore) ListUsers(_ context.Context) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *stubStore) UpdateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return errors.New("missing user")
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *stubStore) CountUsersByRole(_ context.Context, roles ...models.Role) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, u := range s.users {
		for _, r := range roles {
			if u.Role == r {
				n++
				break
			}
		}
	}
	return n, nil
}

func (s *stubStore) ReplaceFactors(_ context.Context, rows []*models.EmissionFactor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.factors = nil
	for _, r := range rows {
		cp := *r
		s.factors = append(s.factors, &cp)
	}
	return nil
}

func (s *stubStore) ListFactors(_ context.Context) ([]*models.EmissionFactor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.EmissionFactor, 0, len(s.factors))
	for _, r := range s.factors {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (s *stubStore) AddSurvey(_ context.Context, sv *models.Survey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sv
	s.surveys = append(s.surveys, &cp)
	return nil
}

func (s *stubStore) ReplaceSurveys(_ context.Context, ownerID string, rows []*models.Survey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.surveys[:0]
	for _, sv := range s.surveys {
		if sv.OwnerID != ownerID {
			kept = append(kept, sv)
		}
	}
	s.surveys = kept
	for _, r := range rows {
		cp := *r
		s.surveys = append(s.surveys, &cp)
	}
	return nil
}

func (s *stubStore) listSurveys(match func(*models.Survey) bool) []*models.Survey {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Survey{}
	for _, sv := range s.surveys {
		if match(sv) {
			cp := *sv
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *stubStore) ListSurveys(_ context.Context) ([]*models.Survey, error) {
	return s.listSurveys(func(*models.Survey) bool { return true }), nil
}

func (s *stubStore) ListSurveysByOwner(_ context.Context, ownerID string) ([]*models.Survey, error) {
	return s.listSurveys(func(sv *models.Survey) bool { return sv.OwnerID == ownerID }), nil
}

func (s *stubStore) UpdateSurveyTotals(_ context.Context, totals map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sv := range s.surveys {
		if v, ok := totals[sv.ID]; ok {
			sv.TotalCo2Kg = &v
		}
	}
	return nil
}

func (s *stubStore) AddAudit(_ context.Context, e models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, e)
	return nil
}

func (s *stubStore) ListAudit(_ context.Context) ([]models.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AuditEntry(nil), s.audit...), nil
}
