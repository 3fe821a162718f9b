package yard_api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/BearBump/YardBox/internal/models"
)

const (
	defaultRangeDays  = 7
	defaultExportDays = 30
)

// dateParam parses ?date=YYYY-MM-DD, today when absent.
func (a *YardAPI) dateParam(r *http.Request) (time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get("date"))
	if v == "" {
		return a.calc.Now(), nil
	}
	return a.calc.ParseDate(v)
}

func (a *YardAPI) daily(w http.ResponseWriter, r *http.Request) {
	date, err := a.dateParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stat, err := a.calc.Daily(r.Context(), date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stat)
}

func (a *YardAPI) dailyRange(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r.URL.Query(), "days", defaultRangeDays)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats, err := a.calc.Range(r.Context(), days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if stats == nil {
		stats = []*models.DailyStat{}
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *YardAPI) recalculate(w http.ResponseWriter, r *http.Request) {
	date, err := a.dateParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stat, err := a.calc.Calculate(r.Context(), date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stat)
}

func (a *YardAPI) violations(w http.ResponseWriter, r *http.Request) {
	vs, err := a.calc.CurrentViolations(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if vs == nil {
		vs = []models.CurrentViolation{}
	}
	writeJSON(w, http.StatusOK, vs)
}

func (a *YardAPI) exportXLSX(w http.ResponseWriter, r *http.Request) {
	days, err := intParam(r.URL.Query(), "days", defaultExportDays)
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats, err := a.calc.Range(r.Context(), days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := DwellWorkbook(stats)
	if err != nil {
		writeError(w, r, err)
		return
	}
	name := fmt.Sprintf("dwell-%s.xlsx", a.calc.Now().Format(models.DateLayout))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
