package api

import (
	"net/http"

	"github.com/ashureev/coachd/internal/domain"
	"github.com/go-chi/chi/v5"
)

// ListParkingLot returns the active parking-lot items.
func (h *Handler) ListParkingLot(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, map[string]any{
		"items": h.state.Load(r.Context(), userID).ActiveParkingLotItems(),
	})
}

// AddParkingLotItem defers an item.
func (h *Handler) AddParkingLotItem(w http.ResponseWriter, r *http.Request) {
	var req addTextRequest
	if !h.decode(w, r, &req) {
		return
	}
	var item domain.ParkingLotItem
	if _, ok := h.update(w, r, func(s *domain.UserState) (err error) {
		item, err = s.AddParkingLotItem(req.Text, req.Source)
		return err
	}); !ok {
		return
	}
	JSON(w, http.StatusCreated, item)
}

// PromoteParkingLotItem marks an item as promoted to a priority.
func (h *Handler) PromoteParkingLotItem(w http.ResponseWriter, r *http.Request) {
	h.transitionParkingLotItem(w, r, (*domain.UserState).PromoteParkingLotItem)
}

// ResolveParkingLotItem marks an item as resolved.
func (h *Handler) ResolveParkingLotItem(w http.ResponseWriter, r *http.Request) {
	h.transitionParkingLotItem(w, r, (*domain.UserState).ResolveParkingLotItem)
}

func (h *Handler) transitionParkingLotItem(w http.ResponseWriter, r *http.Request, fn func(*domain.UserState, string) (domain.ParkingLotItem, error)) {
	id := chi.URLParam(r, "id")
	var item domain.ParkingLotItem
	if _, ok := h.update(w, r, func(s *domain.UserState) (err error) {
		item, err = fn(s, id)
		return err
	}); !ok {
		return
	}
	JSON(w, http.StatusOK, item)
}

// DeleteParkingLotItem removes an item.
func (h *Handler) DeleteParkingLotItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.update(w, r, func(s *domain.UserState) error {
		return s.DeleteParkingLotItem(id)
	}); !ok {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
