package api

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/acbay/co2survey/internal/models"
)

// memoryStore keeps everything in process. Records are copied on the way in
// and out so callers cannot mutate stored state.
type memoryStore struct {
	mu      sync.RWMutex
	users   map[string]*models.User
	byEmail map[string]string
	factors []*models.EmissionFactor
	surveys map[string]*models.Survey
	audit   []models.AuditEntry
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{
		users:   map[string]*models.User{},
		byEmail: map[string]string{},
		surveys: map[string]*models.Survey{},
		audit:   []models.AuditEntry{},
	}
}

func emailKey(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func copyUser(u *models.User) *models.User {
	cp := *u
	cp.PassHash = append([]byte(nil), u.PassHash...)
	return &cp
}

func copySurvey(s *models.Survey) *models.Survey {
	cp := *s
	cp.TotalCo2Kg = clonePtr(s.TotalCo2Kg)
	cp.AltTransportShare = clonePtr(s.AltTransportShare)
	cp.FlightsPerYear = clonePtr(s.FlightsPerYear)
	cp.FlightDistanceKm = clonePtr(s.FlightDistanceKm)
	cp.UsesGreenElectricity = clonePtr(s.UsesGreenElectricity)
	cp.SmartElectricityShare = clonePtr(s.SmartElectricityShare)
	cp.FireworksPerYear = clonePtr(s.FireworksPerYear)
	cp.CO2Importance = clonePtr(s.CO2Importance)
	return &cp
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (s *memoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *memoryStore) Close() error { return nil }

func (s *memoryStore) AddUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return errors.New("user id exists")
	}
	key := emailKey(u.Email)
	if _, ok := s.byEmail[key]; ok {
		return errors.New("email exists")
	}
	s.users[u.ID] = copyUser(u)
	s.byEmail[key] = u.ID
	return nil
}

func (s *memoryStore) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, nil
}

func (s *memoryStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byEmail[emailKey(email)]; ok {
		return copyUser(s.users[id]), nil
	}
	return nil, nil
}

func (s *memoryStore) ListUsers(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *memoryStore) UpdateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.users[u.ID]
	if !ok {
		return errors.New("user not found")
	}
	key := emailKey(u.Email)
	if id, taken := s.byEmail[key]; taken && id != u.ID {
		return errors.New("email exists")
	}
	delete(s.byEmail, emailKey(old.Email))
	s.users[u.ID] = copyUser(u)
	s.byEmail[key] = u.ID
	return nil
}

func (s *memoryStore) CountUsersByRole(_ context.Context, roles ...models.Role) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
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

func (s *memoryStore) ReplaceFactors(_ context.Context, rows []*models.EmissionFactor) error {
	next := make([]*models.EmissionFactor, 0, len(rows))
	for _, r := range rows {
		cp := *r
		next = append(next, &cp)
	}
	s.mu.Lock()
	s.factors = next
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) ListFactors(_ context.Context) ([]*models.EmissionFactor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.EmissionFactor, 0, len(s.factors))
	for _, f := range s.factors {
		cp := *f
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memoryStore) AddSurvey(_ context.Context, sv *models.Survey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.surveys[sv.ID]; ok {
		return errors.New("survey id exists")
	}
	s.surveys[sv.ID] = copySurvey(sv)
	return nil
}

func (s *memoryStore) ReplaceSurveys(_ context.Context, ownerID string, rows []*models.Survey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	for _, r := range rows {
		if seen[r.ID] {
			return errors.New("duplicate survey id " + r.ID)
		}
		seen[r.ID] = true
		if old, ok := s.surveys[r.ID]; ok && old.OwnerID != ownerID {
			return errors.New("survey id exists " + r.ID)
		}
	}
	for id, sv := range s.surveys {
		if sv.OwnerID == ownerID {
			delete(s.surveys, id)
		}
	}
	for _, r := range rows {
		s.surveys[r.ID] = copySurvey(r)
	}
	return nil
}

func (s *memoryStore) listSurveys(keep func(*models.Survey) bool) []*models.Survey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Survey, 0, len(s.surveys))
	for _, sv := range s.surveys {
		if keep(sv) {
			out = append(out, copySurvey(sv))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *memoryStore) ListSurveys(_ context.Context) ([]*models.Survey, error) {
	return s.listSurveys(func(*models.Survey) bool { return true }), nil
}

func (s *memoryStore) ListSurveysByOwner(_ context.Context, ownerID string) ([]*models.Survey, error) {
	return s.listSurveys(func(sv *models.Survey) bool { return sv.OwnerID == ownerID }), nil
}

func (s *memoryStore) UpdateSurveyTotals(_ context.Context, totals map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, v := range totals {
		if sv, ok := s.surveys[id]; ok {
			total := v
			sv.TotalCo2Kg = &total
		}
	}
	return nil
}

func (s *memoryStore) AddAudit(_ context.Context, e models.AuditEntry) error {
	s.mu.Lock()
	s.audit = append(s.audit, e)
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) ListAudit(_ context.Context) ([]models.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AuditEntry(nil), s.audit...), nil
}
