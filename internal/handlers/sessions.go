// Package handlers provides HTTP request handlers for the API endpoints.
// It defines the routing logic, response formatting, and error handling mechanisms.
package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/onnxscope/core/internal/selection"
	"github.com/onnxscope/core/internal/session"
)

// CreateSessionHandler starts a viewing session from an uploaded model. JSON
// payloads are accepted alongside .onnx files.
func (a *API) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	up, err := a.readUpload(w, r)
	if err != nil {
		writeError(w, "Failed to read upload", err)
		return
	}

	model, err := up.decode()
	if err != nil {
		writeError(w, "Invalid model", err)
		return
	}

	s := a.Store.Create(model)
	log.Printf("session %s created with %d nodes", s.ID, len(model.Nodes))

	writeJSON(w, r, http.StatusCreated, s.View())
}

// SessionHandler returns or deletes a session.
func (a *API) SessionHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodDelete) {
		return
	}

	id := r.PathValue("id")

	if r.Method == http.MethodDelete {
		if err := a.Store.Delete(id); err != nil {
			writeError(w, "Failed to delete session", err)
			return
		}
		log.Printf("session %s deleted", id)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s, err := a.Store.Get(id)
	if err != nil {
		writeError(w, "Failed to get session", err)
		return
	}

	writeJSON(w, r, http.StatusOK, s.View())
}

// ReplaceModelHandler swaps the session's model. The selection goes back to
// idle.
func (a *API) ReplaceModelHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPut) {
		return
	}

	s, err := a.Store.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, "Failed to get session", err)
		return
	}

	up, err := a.readUpload(w, r)
	if err != nil {
		writeError(w, "Failed to read upload", err)
		return
	}

	model, err := up.decode()
	if err != nil {
		writeError(w, "Invalid model", err)
		return
	}

	s.Load(model)

	writeJSON(w, r, http.StatusOK, s.View())
}

type eventResponse struct {
	Selection selection.State      `json:"selection"`
	Panel     session.PanelContent `json:"panel"`
}

// EventHandler applies one interaction event to the session and returns the
// new selection together with the panel it opens.
func (a *API) EventHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	s, err := a.Store.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, "Failed to get session", err)
		return
	}

	defer r.Body.Close()

	var ev session.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, "Invalid event", fmt.Errorf("failed to decode event: %w", err))
		return
	}

	state, err := s.Apply(ev)
	if err != nil {
		writeError(w, "Rejected event", err)
		return
	}

	writeJSON(w, r, http.StatusOK, eventResponse{
		Selection: state,
		Panel:     s.Panel(),
	})
}

// PanelHandler returns the content of the currently open side panel.
func (a *API) PanelHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	s, err := a.Store.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, "Failed to get session", err)
		return
	}

	writeJSON(w, r, http.StatusOK, s.Panel())
}
