package yard_api

import (
	"context"
	"net/http"

	"github.com/BearBump/YardBox/internal/services/facility"
	"github.com/go-chi/chi/v5"
)

// transition runs one state-machine operation on the trailer from the URL.
func (a *YardAPI) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id string) (*facility.Result, error)) {
	res, err := fn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *YardAPI) getState(w http.ResponseWriter, r *http.Request) {
	st, err := a.svc.State(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *YardAPI) getTrailer(w http.ResponseWriter, r *http.Request) {
	t, err := a.svc.FindTrailer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *YardAPI) createTrailer(w http.ResponseWriter, r *http.Request) {
	var req trailerRequest
	if err := a.decode(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := a.svc.CreateTrailer(r.Context(), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (a *YardAPI) addAppointment(w http.ResponseWriter, r *http.Request) {
	var req trailerRequest
	if err := a.decode(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := a.svc.AddAppointment(r.Context(), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (a *YardAPI) updateTrailer(w http.ResponseWriter, r *http.Request) {
	var req trailerPatchRequest
	if err := a.decode(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	a.transition(w, r, func(ctx context.Context, id string) (*facility.Result, error) {
		return a.svc.UpdateTrailer(ctx, id, req.patch())
	})
}

func (a *YardAPI) deleteTrailer(w http.ResponseWriter, r *http.Request) {
	a.transition(w, r, a.svc.DeleteTrailer)
}

func (a *YardAPI) moveToDoor(w http.ResponseWriter, r *http.Request) {
	var req doorRefRequest
	if err := a.decode(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	a.transition(w, r, func(ctx context.Context, id string) (*facility.Result, error) {
		return a.svc.MoveToDoor(ctx, id, string(req.Door))
	})
}

func (a *YardAPI) moveToYard(w http.ResponseWriter, r *http.Request) {
	a.transition(w, r, a.svc.MoveToYard)
}

func (a *YardAPI) moveToYardSlot(w http.ResponseWriter, r *http.Request) {
	var req slotRefRequest
	if err := a.decode(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	a.transition(w, r, func(ctx context.Context, id string) (*facility.Result, error) {
		return a.svc.MoveToYardSlot(ctx, id, string(req.Slot))
	})
}

func (a *YardAPI) moveToStaging(w http.ResponseWriter, r *http.Request) {
	a.transition(w, r, a.svc.MoveToStaging)
}

func (a *YardAPI) checkIn(w http.ResponseWriter, r *http.Request) {
	a.transition(w, r, a.svc.CheckIn)
}

func (a *YardAPI) enqueue(w http.ResponseWriter, r *http.Request) {
	var req doorRefRequest
	if err := a.decode(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	a.transition(w, r, func(ctx context.Context, id string) (*facility.Result, error) {
		return a.svc.Enqueue(ctx, id, string(req.Door))
	})
}

func (a *YardAPI) reassign(w http.ResponseWriter, r *http.Request) {
	var req doorRefRequest
	if err := a.decode(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	a.transition(w, r, func(ctx context.Context, id string) (*facility.Result, error) {
		return a.svc.ReassignQueue(ctx, id, string(req.Door))
	})
}

func (a *YardAPI) cancelQueue(w http.ResponseWriter, r *http.Request) {
	a.transition(w, r, a.svc.CancelQueue)
}

func (a *YardAPI) ship(w http.ResponseWriter, r *http.Request) {
	a.transition(w, r, a.svc.Ship)
}

func (a *YardAPI) resetDwell(w http.ResponseWriter, r *http.Request) {
	a.transition(w, r, a.svc.ResetDwell)
}

func (a *YardAPI) timeline(w http.ResponseWriter, r *http.Request) {
	entries, err := a.svc.Timeline(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (a *YardAPI) searchShipped(w http.ResponseWriter, r *http.Request) {
	ts, err := a.svc.SearchShipped(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

func (a *YardAPI) reorderAppointments(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := a.decode(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := a.svc.ReorderAppointments(r.Context(), req.IDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
