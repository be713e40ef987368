package web

import (
	"net/http"

	"github.com/vbonduro/homeinspect/internal/domain"
	"github.com/vbonduro/homeinspect/internal/form"
	"github.com/vbonduro/homeinspect/internal/search"
)

var houseSearchFields = []search.Field[*domain.HouseWithCount]{
	func(h *domain.HouseWithCount) string { return h.Name },
	search.Optional(func(h *domain.HouseWithCount) *string { return h.Address }),
}

// handleListHouses returns the caller's houses with inspection counts. An
// optional q parameter narrows the list by name or address.
func (s *Server) handleListHouses(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	houses, err := s.houses.List(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	houses = search.Filter(houses, r.URL.Query().Get("q"), houseSearchFields...)
	writeJSON(w, http.StatusOK, houses, s.logger)
}

func (s *Server) handleCreateHouse(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var in form.HouseInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	house, err := s.houses.Create(r.Context(), user.ID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, house, s.logger)
}

func (s *Server) handleGetHouse(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	house, err := s.houses.Get(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, house, s.logger)
}

func (s *Server) handleUpdateHouse(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var in form.HouseInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	house, err := s.houses.Update(r.Context(), user.ID, r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, house, s.logger)
}

func (s *Server) handleDeleteHouse(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if err := s.houses.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
