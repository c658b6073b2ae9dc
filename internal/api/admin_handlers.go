package api

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/acbay/co2survey/internal/footprint"
	"github.com/acbay/co2survey/internal/importer"
	"github.com/acbay/co2survey/internal/models"
	"github.com/acbay/co2survey/internal/services"
)

// POST /api/surveys
func (rt *Router) handleSubmitSurvey(w http.ResponseWriter, r *http.Request) {
	var raw footprint.RawAnswers
	if err := decodeJSON(w, r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	sv, err := rt.svc.Surveys.Submit(r.Context(), actorFrom(r).ID, raw)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sv)
}

// POST /api/surveys/recompute
func (rt *Router) handleRecompute(w http.ResponseWriter, r *http.Request) {
	n, err := rt.svc.Surveys.Recompute(r.Context())
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"recomputed": n})
}

// openUpload reads the multipart "file" field. A CSV upload is treated as a
// single sheet named by the "sheet" field, or by the file name.
func (rt *Router) openUpload(w http.ResponseWriter, r *http.Request) (importer.Workbook, error) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(rt.opts.MaxUploadBytes); err != nil {
		return nil, services.NewInvalidError("multipart form with a file field required")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, services.NewInvalidError("file required")
	}
	defer file.Close()
	sheet := strings.TrimSpace(r.FormValue("sheet"))
	if sheet == "" {
		sheet = strings.TrimSuffix(filepath.Base(header.Filename), filepath.Ext(header.Filename))
	}
	wb, err := importer.Open(header.Filename, file, sheet)
	if err != nil {
		return nil, services.NewInvalidError(err.Error())
	}
	return wb, nil
}

// POST /api/import/factors
func (rt *Router) handleImportFactors(w http.ResponseWriter, r *http.Request) {
	wb, err := rt.openUpload(w, r)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	defer wb.Close()
	res, err := rt.svc.Imports.ImportFactors(r.Context(), actorFrom(r), wb)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /api/import/surveys
func (rt *Router) handleImportSurveys(w http.ResponseWriter, r *http.Request) {
	wb, err := rt.openUpload(w, r)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	defer wb.Close()
	res, err := rt.svc.Imports.ImportSurveys(r.Context(), actorFrom(r), wb)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GET /api/users
func (rt *Router) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := rt.svc.Users.List(r.Context(), actorFrom(r))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// PUT /api/users/{id}/role  {"role":"HR"}
func (rt *Router) handleSetRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	role := models.Role(strings.ToUpper(strings.TrimSpace(req.Role)))
	if models.ParseRole(req.Role) != role {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}
	u, err := rt.svc.Users.SetRole(r.Context(), actorFrom(r), chi.URLParam(r, "id"), role)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// GET /api/audit
func (rt *Router) handleAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := rt.svc.Users.Audit(r.Context(), actorFrom(r))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// GET /api/export/surveys.csv
func (rt *Router) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	res, err := rt.svc.Exports.ExportCSV(r.Context(), actorFrom(r))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(res.Filename))
	_, _ = w.Write(res.Data)
}

// GET /api/factors
func (rt *Router) handleListFactors(w http.ResponseWriter, r *http.Request) {
	rows, err := rt.svc.Factors.List(r.Context())
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	batch := ""
	if len(rows) > 0 {
		batch = rows[0].BatchID
	}
	writeJSON(w, http.StatusOK, map[string]any{"batch_id": batch, "count": len(rows), "factors": rows})
}
