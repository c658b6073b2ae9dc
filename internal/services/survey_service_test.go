package services

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acbay/co2survey/internal/footprint"
	"github.com/acbay/co2survey/internal/models"
)

var (
	employee   = Actor{ID: "emp", Role: models.RoleEmployee}
	otherEmp   = Actor{ID: "emp2", Role: models.RoleEmployee}
	hr         = Actor{ID: "hr", Role: models.RoleHR}
	admin      = Actor{ID: "adm", Role: models.RoleAdmin}
	superAdmin = Actor{ID: "root", Role: models.RoleSuperAdmin}
)

func carCommute() footprint.RawAnswers {
	return footprint.RawAnswers{OfficeDays: "5", MainTransport: "Auto Benzin", Distance: "10-20 km"}
}

func seedFactors(t *testing.T, store *stubStore, petrol float64) {
	t.Helper()
	require.NoError(t, store.ReplaceFactors(context.Background(), []*models.EmissionFactor{
		{ID: "f1", EmissionFactor: footprint.EmissionFactor{Category: footprint.CategoryTransport, Label: footprint.LabelCarPetrol, Value: petrol, Unit: "g/km"}},
		{ID: "f2", EmissionFactor: footprint.EmissionFactor{Category: footprint.CategoryFlight, Label: footprint.LabelFlightShort, Value: 1000, Unit: "g/Flug"}},
	}))
}

func newTestSurveyService(store *stubStore) *SurveyService {
	svc := NewSurveyService(store, store, zerolog.Nop())
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	tick, ids := 0, 0
	svc.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Hour) }
	svc.idGen = func() string { ids++; return "s" + strconv.Itoa(ids) }
	return svc
}

func TestSurveySubmitComputesTotal(t *testing.T) {
	store := newStubStore()
	seedFactors(t, store, 120)
	svc := newTestSurveyService(store)

	sv, err := svc.Submit(context.Background(), employee.ID, carCommute())
	require.NoError(t, err)
	assert.Equal(t, footprint.LabelCarPetrol, sv.MainTransport)
	assert.Equal(t, 15.0, sv.CommuteDistanceKm)
	require.NotNil(t, sv.TotalCo2Kg)
	assert.InDelta(t, 9.0, *sv.TotalCo2Kg, 1e-9)

	_, err = svc.Submit(context.Background(), "", carCommute())
	require.Error(t, err)
}

func TestSurveySubmitWithUnknownAnswers(t *testing.T) {
	store := newStubStore()
	svc := newTestSurveyService(store)

	sv, err := svc.Submit(context.Background(), employee.ID, footprint.RawAnswers{MainTransport: "Heißluftballon"})
	require.NoError(t, err)
	assert.Equal(t, footprint.Unknown, sv.MainTransport)
	require.NotNil(t, sv.TotalCo2Kg)
	assert.Zero(t, *sv.TotalCo2Kg)
}

func TestSurveyListForViewer(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	svc := newTestSurveyService(store)
	_, err := svc.Submit(ctx, employee.ID, carCommute())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, otherEmp.ID, carCommute())
	require.NoError(t, err)

	own, err := svc.ListForViewer(ctx, employee)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, employee.ID, own[0].OwnerID)

	all, err := svc.ListForViewer(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, otherEmp.ID, all[0].OwnerID, "newest first")

	_, err = svc.ListForViewer(ctx, hr)
	se, ok := AsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorForbidden, se.Code)

	public, err := svc.ListPublic(ctx)
	require.NoError(t, err)
	assert.Len(t, public, 2)
}

func TestSurveyReplaceAllKeepsOtherOwners(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	svc := newTestSurveyService(store)
	_, err := svc.Submit(ctx, employee.ID, carCommute())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, "import", carCommute())
	require.NoError(t, err)

	n, err := svc.ReplaceAll(ctx, "import", []footprint.RawAnswers{carCommute(), carCommute(), carCommute()})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	mine, _ := svc.ListMine(ctx, employee)
	assert.Len(t, mine, 1)
	imported, _ := store.ListSurveysByOwner(ctx, "import")
	assert.Len(t, imported, 3)

	_, err = svc.ReplaceAll(ctx, "", nil)
	assert.Error(t, err)
}

func TestSurveyRecomputeFollowsFactors(t *testing.T) {
	ctx := context.Background()
	store := newStubStore()
	seedFactors(t, store, 120)
	svc := newTestSurveyService(store)
	for i := 0; i < 5; i++ {
		_, err := svc.Submit(ctx, employee.ID, carCommute())
		require.NoError(t, err)
	}

	seedFactors(t, store, 240)
	svc.workers = 2
	n, err := svc.Recompute(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	all, _ := store.ListSurveys(ctx)
	for _, sv := range all {
		require.NotNil(t, sv.TotalCo2Kg)
		assert.InDelta(t, 18.0, *sv.TotalCo2Kg, 1e-9)
	}
}

func TestSurveyRecomputeHonoursCancellation(t *testing.T) {
	store := newStubStore()
	svc := newTestSurveyService(store)
	_, err := svc.Submit(context.Background(), employee.ID, carCommute())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Recompute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
