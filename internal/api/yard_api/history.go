package yard_api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/BearBump/YardBox/internal/models"
	"github.com/BearBump/YardBox/internal/yarderr"
)

func (a *YardAPI) listHistory(w http.ResponseWriter, r *http.Request) {
	f, err := a.historyFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := a.svc.History(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (a *YardAPI) historyFilter(q url.Values) (models.HistoryFilter, error) {
	f := models.HistoryFilter{
		Search:    strings.TrimSpace(q.Get("q")),
		TrailerID: strings.TrimSpace(q.Get("trailerId")),
	}
	for _, v := range q["action"] {
		for _, act := range strings.Split(v, ",") {
			if act = strings.TrimSpace(act); act != "" {
				f.Actions = append(f.Actions, models.Action(strings.ToUpper(act)))
			}
		}
	}

	var err error
	if f.From, err = a.timeParam(q, "from", false); err != nil {
		return f, err
	}
	if f.To, err = a.timeParam(q, "to", true); err != nil {
		return f, err
	}
	if f.Limit, err = intParam(q, "limit", 0); err != nil {
		return f, err
	}
	if f.Offset, err = intParam(q, "offset", 0); err != nil {
		return f, err
	}
	if f.Limit < 0 || f.Offset < 0 {
		return f, yarderr.InvalidArgument("limit and offset must not be negative")
	}
	return f, nil
}

// timeParam accepts RFC3339 or a bare local date; a date used as an upper
// bound covers the whole day.
func (a *YardAPI) timeParam(q url.Values, name string, endOfDay bool) (*time.Time, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	loc := time.UTC
	if a.calc != nil {
		loc = a.calc.Location()
	}
	d, err := time.ParseInLocation(models.DateLayout, v, loc)
	if err != nil {
		return nil, yarderr.InvalidArgument("%s must be RFC3339 or YYYY-MM-DD, got %q", name, v)
	}
	if endOfDay {
		d = d.AddDate(0, 0, 1).Add(-time.Second)
	}
	return &d, nil
}

func intParam(q url.Values, name string, def int) (int, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, yarderr.InvalidArgument("%s must be an integer, got %q", name, v)
	}
	return n, nil
}
