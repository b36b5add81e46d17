package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"incidentcore/internal/incidents"
)

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	params := incidents.CreateParams{
		Status:      req.Status,
		Source:      req.Source,
		Description: req.Description,
	}
	if err := params.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	incident, err := s.store.Create(r.Context(), params)
	if err != nil {
		log.Printf("[HTTP] create incident failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(incident))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	incident, err := s.store.Get(r.Context(), id)
	if err != nil {
		log.Printf("[HTTP] get incident %d failed: %v", id, err)
		writeError(w, http.StatusNotFound, "Incident not found")
		return
	}
	if incident == nil {
		writeError(w, http.StatusNotFound, "Incident not found")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(incident))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	params, err := listParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	found, err := s.store.List(r.Context(), params)
	if err != nil {
		log.Printf("[HTTP] list incidents failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := ListResponse{Incidents: make([]IncidentResponse, 0, len(found))}
	for i := range found {
		resp.Incidents = append(resp.Incidents, toResponse(&found[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	params := incidents.UpdateParams{
		Status:      req.Status,
		Source:      req.Source,
		Description: req.Description,
	}
	if err := params.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := s.store.Get(r.Context(), id)
	if err != nil {
		log.Printf("[HTTP] update incident %d failed: %v", id, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Incident not found")
		return
	}

	if _, err := s.store.Update(r.Context(), id, params); err != nil {
		log.Printf("[HTTP] update incident %d failed: %v", id, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	updated, err := s.store.Get(r.Context(), id)
	if err != nil || updated == nil {
		log.Printf("[HTTP] re-read incident %d after update failed: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Incident not readable after update")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(updated))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	affected, err := s.store.Delete(r.Context(), id)
	if err != nil {
		log.Printf("[HTTP] delete incident %d failed: %v", id, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if affected == 0 {
		writeError(w, http.StatusNotFound, "Incident not found")
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{ID: id, Deleted: true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().Format(time.RFC3339),
		UptimeSec: int64(time.Since(s.started).Seconds()),
	})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid incident id")
		return 0, false
	}
	return id, true
}

func listParams(r *http.Request) (incidents.ListParams, error) {
	query := r.URL.Query()
	params := incidents.ListParams{Page: 1, PageSize: 10}

	if val := query.Get("page"); val != "" {
		page, err := strconv.Atoi(val)
		if err != nil {
			return params, errInvalidQuery("page")
		}
		params.Page = page
	}
	if val := query.Get("page_size"); val != "" {
		size, err := strconv.Atoi(val)
		if err != nil {
			return params, errInvalidQuery("page_size")
		}
		params.PageSize = size
	}
	if val := query.Get("status"); val != "" {
		status := incidents.Status(val)
		params.Status = &status
	}
	if val := query.Get("source"); val != "" {
		source := incidents.Source(val)
		params.Source = &source
	}
	if val := query.Get("creating_date_from"); val != "" {
		from, err := time.Parse(time.RFC3339, val)
		if err != nil {
			return params, errInvalidQuery("creating_date_from")
		}
		params.From = &from
	}
	if val := query.Get("creating_date_to"); val != "" {
		to, err := time.Parse(time.RFC3339, val)
		if err != nil {
			return params, errInvalidQuery("creating_date_to")
		}
		params.To = &to
	}

	return params, params.Validate()
}

func errInvalidQuery(param string) error {
	return fmt.Errorf("invalid query parameter: %s", param)
}
