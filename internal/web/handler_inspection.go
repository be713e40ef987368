package web

import (
	"net/http"

	"github.com/vbonduro/homeinspect/internal/domain"
	"github.com/vbonduro/homeinspect/internal/form"
	"github.com/vbonduro/homeinspect/internal/search"
)

var inspectionSearchFields = []search.Field[*domain.Inspection]{
	func(in *domain.Inspection) string { return in.Title },
	search.Optional(func(in *domain.Inspection) *string { return in.Notes }),
}

func (s *Server) handleListInspections(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	inspections, err := s.inspections.List(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	inspections = search.Filter(inspections, r.URL.Query().Get("q"), inspectionSearchFields...)
	writeJSON(w, http.StatusOK, inspections, s.logger)
}

func (s *Server) handleCreateInspection(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var in form.InspectionInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	inspection, err := s.inspections.Create(r.Context(), user.ID, r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inspection, s.logger)
}

func (s *Server) handleGetInspection(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	inspection, err := s.inspections.Get(r.Context(), user.ID, r.PathValue("id"), r.PathValue("inspectionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inspection, s.logger)
}

func (s *Server) handleUpdateInspection(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var in form.InspectionInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	inspection, err := s.inspections.Update(r.Context(), user.ID, r.PathValue("id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inspection, s.logger)
}

func (s *Server) handleDeleteInspection(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if err := s.inspections.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
