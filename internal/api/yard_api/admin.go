package yard_api

import (
	"net/http"

	"github.com/BearBump/YardBox/internal/services/facility"
	"github.com/go-chi/chi/v5"
)

func (a *YardAPI) createDoor(w http.ResponseWriter, r *http.Request) {
	var req doorRequest
	if err := a.decode(r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := a.svc.CreateDoor(r.Context(), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (a *YardAPI) updateDoor(w http.ResponseWriter, r *http.Request) {
	var req doorPatchRequest
	if err := a.decode(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := a.svc.UpdateDoor(r.Context(), chi.URLParam(r, "ref"), req.patch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *YardAPI) deleteDoor(w http.ResponseWriter, r *http.Request) {
	res, err := a.svc.DeleteDoor(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *YardAPI) reorderDoors(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := a.decode(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := a.svc.ReorderDoors(r.Context(), req.IDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *YardAPI) createYardSlot(w http.ResponseWriter, r *http.Request) {
	var req yardSlotRequest
	if err := a.decode(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := a.svc.CreateYardSlot(r.Context(), req.Number)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (a *YardAPI) deleteYardSlot(w http.ResponseWriter, r *http.Request) {
	res, err := a.svc.DeleteYardSlot(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *YardAPI) listCarriers(w http.ResponseWriter, r *http.Request) {
	cs, err := a.svc.ListCarriers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (a *YardAPI) createCarrier(w http.ResponseWriter, r *http.Request) {
	var req carrierRequest
	if err := a.decode(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := a.svc.CreateCarrier(r.Context(), req.Name, req.MCNumber)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (a *YardAPI) updateCarrier(w http.ResponseWriter, r *http.Request) {
	var req carrierPatchRequest
	if err := a.decode(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := a.svc.UpdateCarrier(r.Context(), chi.URLParam(r, "id"), facility.CarrierPatch{
		MCNumber: req.MCNumber,
		Favorite: req.Favorite,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *YardAPI) deleteCarrier(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.DeleteCarrier(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
