package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/specialistvlad/behaviourgrid/internal/entity"
	"github.com/specialistvlad/behaviourgrid/internal/entitystore"
)

type createEntityRequest struct {
	Type       string          `json:"type"`
	ID         string          `json:"id"`
	Properties json.RawMessage `json:"properties"`
}

type reconfigureRequest struct {
	Properties json.RawMessage `json:"properties"`
}

type entityResponse struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Properties json.RawMessage `json:"properties"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// GET /entities
func (s *Server) listEntitiesHandler(w http.ResponseWriter, r *http.Request) {
	all := s.store.All()
	sort.Slice(all, func(i, j int) bool { return all[i].ID.String() < all[j].ID.String() })

	out := make([]entityResponse, 0, len(all))
	for _, e := range all {
		resp, err := toEntityResponse(e)
		if err != nil {
			writeJSONError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		out = append(out, resp)
	}
	writeJSONResponse(w, out, http.StatusOK)
}

// POST /entities
func (s *Server) createEntityHandler(w http.ResponseWriter, r *http.Request) {
	var req createEntityRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := uuid.Nil
	if req.ID != "" {
		parsed, err := uuid.Parse(req.ID)
		if err != nil {
			writeJSONError(w, fmt.Sprintf("invalid id %q", req.ID), http.StatusBadRequest)
			return
		}
		id = parsed
	}
	props, err := entity.PropertiesFromJSON(req.Properties)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	e, err := s.store.Create(r.Context(), req.Type, id, props)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.writeEntity(w, e, http.StatusCreated)
}

// GET /entities/{id}
func (s *Server) getEntityHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	e, found := s.store.Get(id)
	if !found {
		writeJSONError(w, "entity not found", http.StatusNotFound)
		return
	}
	s.writeEntity(w, e, http.StatusOK)
}

// DELETE /entities/{id}
func (s *Server) deleteEntityHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PUT /entities/{id}/properties/{name}
func (s *Server) setPropertyHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	name := mux.Vars(r)["name"]

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSONError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	value, err := entity.FromJSON(body)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.SetProperty(r.Context(), id, name, value); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /entities/{id}/reconfigure
func (s *Server) reconfigureHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req reconfigureRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	props, err := entity.PropertiesFromJSON(req.Properties)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	e, err := s.store.Reconfigure(r.Context(), id, props)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.writeEntity(w, e, http.StatusOK)
}

// GET /behaviours
func (s *Server) behavioursHandler(w http.ResponseWriter, r *http.Request) {
	out := make(map[string][]string)
	for kind, ids := range s.behaviours.Snapshot() {
		list := make([]string, 0, len(ids))
		for _, id := range ids {
			list = append(list, id.String())
		}
		sort.Strings(list)
		out[kind.String()] = list
	}
	writeJSONResponse(w, out, http.StatusOK)
}

func (s *Server) writeEntity(w http.ResponseWriter, e *entity.Instance, status int) {
	resp, err := toEntityResponse(e)
	if err != nil {
		s.logger.Error("Failed to encode entity.", "entity_id", e.ID, "error", err)
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, resp, status)
}

func toEntityResponse(e *entity.Instance) (entityResponse, error) {
	props, err := entity.PropertiesToJSON(e.Properties())
	if err != nil {
		return entityResponse{}, fmt.Errorf("failed to encode properties: %w", err)
	}
	return entityResponse{ID: e.ID.String(), Type: e.TypeName, Properties: props}, nil
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := mux.Vars(r)["id"]
	id, err := uuid.Parse(raw)
	if err != nil {
		writeJSONError(w, fmt.Sprintf("invalid id %q", raw), http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entitystore.ErrNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, entitystore.ErrExists):
		writeJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, entitystore.ErrInvalidType):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
	}
}
