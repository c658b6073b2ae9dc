package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acbay/co2survey/internal/footprint"
	"github.com/acbay/co2survey/internal/middleware"
	"github.com/acbay/co2survey/internal/models"
	"github.com/acbay/co2survey/internal/services"
)

type testEnv struct {
	store Store
	authn *middleware.Authenticator
	h     http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := NewMemoryStore()
	authn := middleware.NewAuthenticator("test-secret")
	svc := NewServices(store, authn, services.AuthOptions{SuperAdminEmail: "root@example.com"}, "", zerolog.Nop())
	return &testEnv{store: store, authn: authn, h: NewRouter(store, authn, svc, zerolog.Nop(), Options{Version: "1.2.3"}).Handler()}
}

// token stores uid with role when it does not exist yet and signs a token for it.
func (e *testEnv) token(t *testing.T, uid string, role models.Role) string {
	t.Helper()
	ctx := context.Background()
	u, err := e.store.GetUser(ctx, uid)
	require.NoError(t, err)
	if u == nil {
		require.NoError(t, e.store.AddUser(ctx, &models.User{ID: uid, Email: uid + "@example.com", Role: role, CreatedAt: time.Now().UTC()}))
	}
	tok, err := e.authn.SignToken(uid, uid+"@example.com", role, time.Hour)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(method, path, token, contentType string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, v any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return e.do(method, path, token, "application/json", bytes.NewReader(b))
}

func (e *testEnv) seedFactors(t *testing.T, petrol float64) {
	t.Helper()
	require.NoError(t, e.store.ReplaceFactors(context.Background(), []*models.EmissionFactor{
		{ID: "f1", BatchID: "b1", EmissionFactor: footprint.EmissionFactor{Category: footprint.CategoryTransport, Label: footprint.LabelCarPetrol, Value: petrol, Unit: "g/km"}},
	}))
}

func form(values map[string]string) io.Reader {
	v := url.Values{}
	for k, val := range values {
		v.Set(k, val)
	}
	return strings.NewReader(v.Encode())
}

const formType = "application/x-www-form-urlencoded"

func TestHealthAndVersion(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(http.MethodGet, "/health", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = e.do(http.MethodGet, "/version", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"version":"1.2.3"}`, rec.Body.String())
}

func TestRegisterLoginMe(t *testing.T) {
	e := newTestEnv(t)
	rec := e.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "ana@example.com", "password": "pw", "name": "Ana"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var reg services.AuthResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reg))
	assert.Equal(t, models.RoleEmployee, reg.Role)
	assert.NotEmpty(t, reg.Token)

	rec = e.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "ANA@example.com", "password": "pw"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ana@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "", "password": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(http.MethodGet, "/api/auth/me", reg.Token, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "ana@example.com", me.Email)
	assert.NotContains(t, rec.Body.String(), "PassHash")

	rec = e.do(http.MethodGet, "/api/auth/me", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSuperAdminEmailRegistersAsSuperAdmin(t *testing.T) {
	e := newTestEnv(t)
	rec := e.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "Root@Example.com", "password": "pw"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"SUPER_ADMIN"`)
}

func TestLoginHx(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(http.MethodPost, "/api/auth/register-hx", "", formType, form(map[string]string{"email": "ben@example.com", "password": "pw"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Registrierung erfolgreich (EMPLOYEE).")

	rec = e.do(http.MethodPost, "/api/auth/register-hx", "", formType, form(map[string]string{"email": "ben@example.com", "password": "pw"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email bereits registriert.")

	rec = e.do(http.MethodPost, "/api/auth/login-hx", "", formType, form(map[string]string{"email": "ben@example.com", "password": "pw"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `<div class="text-sm text-emerald-700">Login erfolgreich (EMPLOYEE).</div>`, rec.Body.String())
	var trigger struct {
		AuthChanged struct {
			Token string `json:"token"`
			Role  string `json:"role"`
		} `json:"authChanged"`
	}
	require.NoError(t, json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &trigger))
	assert.Equal(t, "EMPLOYEE", trigger.AuthChanged.Role)
	assert.NotEmpty(t, trigger.AuthChanged.Token)

	rec = e.do(http.MethodPost, "/api/auth/login-hx", "", formType, form(map[string]string{"email": "ben@example.com", "password": "nope"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "text-red-700")
	assert.Empty(t, rec.Header().Get("HX-Trigger"))

	rec = e.do(http.MethodPost, "/api/auth/login-hx?lang=en", "", formType, form(map[string]string{"email": "ben@example.com"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email and password are required.")
}

func TestPartialsEmpty(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(http.MethodGet, "/api/partials/surveys/public", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<td colspan="7" class="px-3 py-4 text-center text-slate-500">Keine Daten</td>`)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	rec = e.do(http.MethodGet, "/api/partials/summary/public?lang=en", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Total entries")
	assert.Contains(t, body, "from-red-50 to-red-100")
	assert.Contains(t, body, `text-lg font-semibold text-blue-700">—</div>`)

	rec = e.do(http.MethodGet, "/api/partials/summary/private", "", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmitSurveyAndViews(t *testing.T) {
	e := newTestEnv(t)
	e.seedFactors(t, 120)
	emp := e.token(t, "emp-1", models.RoleEmployee)

	raw := footprint.RawAnswers{OfficeDays: "5", MainTransport: "Auto Benzin", Distance: "10-20 km"}
	rec := e.doJSON(t, http.MethodPost, "/api/surveys", emp, raw)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sv models.Survey
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sv))
	require.NotNil(t, sv.TotalCo2Kg)
	assert.InDelta(t, 9.0, *sv.TotalCo2Kg, 1e-9)
	assert.Equal(t, "emp-1", sv.OwnerID)

	rec = e.doJSON(t, http.MethodPost, "/api/surveys", "", raw)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(http.MethodGet, "/api/partials/surveys/public", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "PKW Benzin")
	assert.Contains(t, body, `font-semibold text-red-600">9,00</td>`)
	assert.Contains(t, body, sv.ID[:8])

	rec = e.do(http.MethodGet, "/api/partials/summary/private", emp, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Meine Einträge")
	assert.Contains(t, rec.Body.String(), "from-purple-50")

	rec = e.do(http.MethodGet, "/api/partials/surveys/private", emp, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `font-semibold text-purple-600">9,00</td>`)
	assert.Contains(t, rec.Body.String(), sv.CreatedAt.UTC().Format("02.01.2006"))

	rec = e.do(http.MethodGet, "/api/stats/me", emp, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []models.Survey
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	assert.Len(t, mine, 1)

	other := e.token(t, "emp-2", models.RoleEmployee)
	rec = e.do(http.MethodGet, "/api/stats", other, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = e.do(http.MethodGet, "/api/stats/public", "", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "emp-1", "public rows carry no owner")
}

func TestRoleGates(t *testing.T) {
	e := newTestEnv(t)
	hr := e.token(t, "hr-1", models.RoleHR)
	emp := e.token(t, "emp-1", models.RoleEmployee)

	rec := e.do(http.MethodGet, "/api/stats", hr, "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "aggregated")

	rec = e.do(http.MethodGet, "/api/stats/hr/aggregations", hr, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":0,"avgCo2Kg":0,"byTransport":{}}`, rec.Body.String())

	rec = e.do(http.MethodGet, "/api/stats/hr/aggregations", emp, "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(http.MethodGet, "/api/stats/me", hr, "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(http.MethodPost, "/api/surveys/recompute", emp, "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(http.MethodGet, "/api/users", hr, "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func multipartBody(t *testing.T, filename, sheet, content string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if sheet != "" {
		require.NoError(t, mw.WriteField("sheet", sheet))
	}
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestImportFactorsRecomputes(t *testing.T) {
	e := newTestEnv(t)
	e.seedFactors(t, 120)
	emp := e.token(t, "emp-1", models.RoleEmployee)
	adm := e.token(t, "adm-1", models.RoleAdmin)

	rec := e.doJSON(t, http.MethodPost, "/api/surveys", emp, footprint.RawAnswers{OfficeDays: "5", MainTransport: "Auto Benzin", Distance: "10-20 km"})
	require.Equal(t, http.StatusCreated, rec.Code)

	body, ct := multipartBody(t, "Pendelweg.csv", "", "label;value;unit\nPKW Benzin;60;g/km\n")
	rec = e.do(http.MethodPost, "/api/import/factors", emp, ct, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	body, ct = multipartBody(t, "Pendelweg.csv", "", "label;value;unit\nPKW Benzin;60;g/km\n")
	rec = e.do(http.MethodPost, "/api/import/factors", adm, ct, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res services.FactorImportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, 1, res.Recomputed)

	rec = e.do(http.MethodGet, "/api/stats/me", emp, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []models.Survey
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	require.Len(t, mine, 1)
	assert.InDelta(t, 4.5, *mine[0].TotalCo2Kg, 1e-9)

	rec = e.do(http.MethodGet, "/api/factors", adm, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), res.BatchID)

	body, ct = multipartBody(t, "factors.pdf", "", "x")
	rec = e.do(http.MethodPost, "/api/import/factors", adm, ct, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportSurveysAndExport(t *testing.T) {
	e := newTestEnv(t)
	adm := e.token(t, "adm-1", models.RoleAdmin)

	csv := "office_days;main_transport\n3;Fahrrad\n5;Bus\n"
	body, ct := multipartBody(t, "umfrage.csv", "Umfrage", csv)
	rec := e.do(http.MethodPost, "/api/import/surveys", adm, ct, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"owner_id":"adm-1","imported":2}`, rec.Body.String())

	rec = e.do(http.MethodGet, "/api/export/surveys.csv", adm, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "surveys-")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 3)
}

func TestSetRoleAndAudit(t *testing.T) {
	e := newTestEnv(t)
	rec := e.doJSON(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "cleo@example.com", "password": "pw"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var reg services.AuthResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reg))

	root := e.token(t, "root-1", models.RoleSuperAdmin)
	adm := e.token(t, "adm-1", models.RoleAdmin)

	rec = e.doJSON(t, http.MethodPut, "/api/users/"+reg.UserID+"/role", root, map[string]string{"role": "boss"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.doJSON(t, http.MethodPut, "/api/users/"+reg.UserID+"/role", adm, map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.doJSON(t, http.MethodPut, "/api/users/"+reg.UserID+"/role", adm, map[string]string{"role": "hr"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"role":"HR"`)

	rec = e.doJSON(t, http.MethodPut, "/api/users/missing/role", root, map[string]string{"role": "HR"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(http.MethodGet, "/api/audit", adm, "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(http.MethodGet, "/api/audit", root, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []models.AuditEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "EMPLOYEE->HR", entries[0].Note)

	rec = e.do(http.MethodGet, "/api/users", adm, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cleo@example.com")
}

func TestRevokedRoleTakesEffectImmediately(t *testing.T) {
	e := newTestEnv(t)
	root := e.token(t, "root-1", models.RoleSuperAdmin)
	adm := e.token(t, "adm-1", models.RoleAdmin)
	require.Equal(t, http.StatusOK, e.do(http.MethodGet, "/api/users", adm, "", nil).Code)

	rec := e.doJSON(t, http.MethodPut, "/api/users/adm-1/role", root, map[string]string{"role": "EMPLOYEE"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, "/api/users", adm, "", nil).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPost, "/api/surveys/recompute", adm, "", nil).Code)

	rec = e.do(http.MethodGet, "/api/stats/me", adm, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "stored role EMPLOYEE applies")
}

func TestTokenForUnknownUserIsRejected(t *testing.T) {
	e := newTestEnv(t)
	ghost, err := e.authn.SignToken("ghost", "ghost@example.com", models.RoleSuperAdmin, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodGet, "/api/auth/me", ghost, "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodGet, "/api/users", ghost, "", nil).Code)
}

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u := &models.User{ID: "u1", Email: "a@example.com", Role: models.RoleEmployee}
	require.NoError(t, s.AddUser(ctx, u))
	u.Role = models.RoleAdmin

	got, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, got.Role)

	require.Error(t, s.AddUser(ctx, &models.User{ID: "u2", Email: "A@example.com"}))

	total := 1.0
	require.NoError(t, s.AddSurvey(ctx, &models.Survey{ID: "s1", OwnerID: "u1", TotalCo2Kg: &total}))
	total = 5
	all, err := s.ListSurveys(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 1.0, *all[0].TotalCo2Kg)

	*all[0].TotalCo2Kg = 7
	flights := 2
	stored := &models.Survey{ID: "s2", OwnerID: "u1", Inputs: footprint.Inputs{FlightsPerYear: &flights}}
	require.NoError(t, s.AddSurvey(ctx, stored))
	flights = 9
	mine, err := s.ListSurveysByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, sv := range mine {
		if sv.ID == "s2" {
			assert.Equal(t, 2, *sv.FlightsPerYear)
			*sv.FlightsPerYear = 11
		} else {
			assert.Equal(t, 1.0, *sv.TotalCo2Kg)
		}
	}
	again, _ := s.ListSurveysByOwner(ctx, "u1")
	for _, sv := range again {
		if sv.ID == "s2" {
			assert.Equal(t, 2, *sv.FlightsPerYear)
		}
	}

	require.Error(t, s.ReplaceSurveys(ctx, "imp", []*models.Survey{{ID: "s1", OwnerID: "imp"}}), "id owned by someone else")
	mine, _ = s.ListSurveysByOwner(ctx, "u1")
	assert.Len(t, mine, 2)
}
