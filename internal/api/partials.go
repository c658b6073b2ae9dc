package api

import (
	"html/template"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/acbay/co2survey/internal/middleware"
	"github.com/acbay/co2survey/internal/services"
	"github.com/acbay/co2survey/internal/utils"
)

const dash = "—"

type card struct {
	Label string
	Value string
	Tone  string
	Small bool
}

var summaryTmpl = template.Must(template.New("summary").Parse(`{{range .}}<div class="rounded-xl border border-slate-200 bg-gradient-to-br from-{{.Tone}}-50 to-{{.Tone}}-100 p-4">
  <div class="text-xs uppercase tracking-wide text-slate-600">{{.Label}}</div>
  <div class="mt-2 {{if .Small}}text-lg font-semibold{{else}}text-3xl font-bold{{end}} text-{{.Tone}}-700">{{.Value}}</div>
</div>
{{end}}`))

type tableRow struct {
	ID         string
	Date       string
	OfficeDays string
	Distance   string
	Transport  string
	Flights    string
	Total      string
}

var rowsTmpl = template.Must(template.New("rows").Parse(`{{$tone := .Tone}}{{range .Rows}}<tr class="border-b border-slate-200 hover:bg-{{if eq $tone "purple"}}purple{{else}}slate{{end}}-50">
  <td class="px-3 py-2">{{.ID}}</td>
  <td class="px-3 py-2">{{.Date}}</td>
  <td class="px-3 py-2">{{.OfficeDays}}</td>
  <td class="px-3 py-2">{{.Distance}}</td>
  <td class="px-3 py-2">{{.Transport}}</td>
  <td class="px-3 py-2">{{.Flights}}</td>
  <td class="px-3 py-2 font-semibold text-{{$tone}}-600">{{.Total}}</td>
</tr>
{{else}}<tr><td colspan="7" class="px-3 py-4 text-center text-{{if .Failed}}red{{else}}slate{{end}}-500">{{.Empty}}</td></tr>
{{end}}`))

// cellFormatter renders values for one locale. Zero counts show a dash.
type cellFormatter struct {
	p      *message.Printer
	layout string
}

func newCellFormatter(locale string) cellFormatter {
	layout := "02.01.2006"
	if locale == "en" {
		layout = "2006-01-02"
	}
	return cellFormatter{p: utils.Printer(locale), layout: layout}
}

func (f cellFormatter) date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return dash
	}
	return t.UTC().Format(f.layout)
}

func (f cellFormatter) kg(v *float64) string {
	if v == nil {
		return f.p.Sprintf("%.2f", 0.0)
	}
	return f.p.Sprintf("%.2f", *v)
}

func (f cellFormatter) count(n int) string {
	if n == 0 {
		return dash
	}
	return f.p.Sprintf("%d", n)
}

func (f cellFormatter) optCount(n *int) string {
	if n == nil {
		return dash
	}
	return f.count(*n)
}

func (f cellFormatter) km(v float64) string {
	if v == 0 {
		return dash
	}
	return f.p.Sprint(number.Decimal(v, number.MaxFractionDigits(1)))
}

func (f cellFormatter) row(id string, at time.Time, days int, km float64, transport string, flights *int, total *float64) tableRow {
	if len(id) > 8 {
		id = id[:8]
	}
	return tableRow{
		ID:         id,
		Date:       f.date(&at),
		OfficeDays: f.count(days),
		Distance:   f.km(km),
		Transport:  strings.ReplaceAll(orDash(transport), "_", " "),
		Flights:    f.optCount(flights),
		Total:      f.kg(total),
	}
}

func orDash(s string) string {
	if s == "" {
		return dash
	}
	return s
}

func summaryCards(locale string, sum *services.Summary, private bool) []card {
	f := newCellFormatter(locale)
	tones := [3]string{"red", "green", "blue"}
	labels := [3]string{"summary.count", "summary.avg", "summary.latest"}
	if private {
		tones = [3]string{"purple", "orange", "cyan"}
		labels[0], labels[1] = "summary.mine", "summary.myavg"
	}
	avg := sum.AvgCo2Kg
	return []card{
		{Label: utils.T(locale, labels[0]), Value: f.p.Sprintf("%d", sum.Count), Tone: tones[0]},
		{Label: utils.T(locale, labels[1]), Value: f.kg(&avg), Tone: tones[1]},
		{Label: utils.T(locale, labels[2]), Value: f.date(sum.Latest), Tone: tones[2], Small: true},
	}
}

func (rt *Router) renderHTML(w http.ResponseWriter, r *http.Request, tmpl *template.Template, data any) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		rt.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

// GET /api/partials/summary/public
func (rt *Router) handlePublicSummaryPartial(w http.ResponseWriter, r *http.Request) {
	sum, err := rt.svc.Stats.PublicSummary(r.Context())
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	rt.renderHTML(w, r, summaryTmpl, summaryCards(middleware.LocaleFromContext(r.Context()), sum, false))
}

// GET /api/partials/summary/private
func (rt *Router) handlePrivateSummaryPartial(w http.ResponseWriter, r *http.Request) {
	sum, err := rt.svc.Stats.PrivateSummary(r.Context(), actorFrom(r))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	rt.renderHTML(w, r, summaryTmpl, summaryCards(middleware.LocaleFromContext(r.Context()), sum, true))
}

type rowsView struct {
	Rows   []tableRow
	Tone   string
	Empty  string
	Failed bool
}

// renderRows writes the table body. On failure the body is a single error
// row so the table keeps its shape.
func (rt *Router) renderRows(w http.ResponseWriter, r *http.Request, view rowsView, err error) {
	locale := middleware.LocaleFromContext(r.Context())
	if err != nil {
		if se, ok := services.AsServiceError(err); ok {
			rt.fail(w, r, se)
			return
		}
		rt.log.Error().Err(err).Str("path", r.URL.Path).Msg("render survey rows")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_ = rowsTmpl.Execute(w, rowsView{Tone: view.Tone, Empty: utils.T(locale, "table.error"), Failed: true})
		return
	}
	view.Empty = utils.T(locale, "table.empty")
	rt.renderHTML(w, r, rowsTmpl, view)
}

// GET /api/partials/surveys/public
func (rt *Router) handlePublicSurveysPartial(w http.ResponseWriter, r *http.Request) {
	rows, err := rt.svc.Surveys.ListPublic(r.Context())
	f := newCellFormatter(middleware.LocaleFromContext(r.Context()))
	view := rowsView{Tone: "red"}
	for _, sv := range rows {
		view.Rows = append(view.Rows, f.row(sv.ID, sv.CreatedAt, sv.OfficeDaysPerWeek, sv.CommuteDistanceKm, sv.MainTransport, sv.FlightsPerYear, sv.TotalCo2Kg))
	}
	rt.renderRows(w, r, view, err)
}

// GET /api/partials/surveys/private
func (rt *Router) handlePrivateSurveysPartial(w http.ResponseWriter, r *http.Request) {
	rows, err := rt.svc.Stats.PrivateSurveys(r.Context(), actorFrom(r))
	f := newCellFormatter(middleware.LocaleFromContext(r.Context()))
	view := rowsView{Tone: "purple"}
	for _, sv := range rows {
		view.Rows = append(view.Rows, f.row(sv.ID, sv.CreatedAt, sv.OfficeDaysPerWeek, sv.CommuteDistanceKm, sv.MainTransport, sv.FlightsPerYear, sv.TotalCo2Kg))
	}
	rt.renderRows(w, r, view, err)
}
