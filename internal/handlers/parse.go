// Package handlers provides HTTP request handlers for the API endpoints.
// It defines the routing logic, response formatting, and error handling mechanisms.
package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/onnxscope/core/internal/graph"
	"github.com/onnxscope/core/internal/parser"
)

// ParseONNXHandler decodes an uploaded .onnx file and returns the parsed
// model as JSON.
func (a *API) ParseONNXHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	up, err := a.readUpload(w, r)
	if err != nil {
		writeError(w, "Failed to read upload", err)
		return
	}

	model, err := parser.ParseONNX(up.data)
	if err != nil {
		writeError(w, "Invalid onnx model", err)
		return
	}

	writeJSON(w, r, http.StatusOK, model)
}

// GraphHandler turns a parsed model payload into the renderable graph.
func (a *API) GraphHandler(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	if a.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes)
	}
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, "Failed to read body", fmt.Errorf("read body: %w", err))
		return
	}

	model, err := parser.ParseModel(body)
	if err != nil {
		writeError(w, "Invalid model", err)
		return
	}

	rendered, err := graph.Build(model, a.Options)
	if err != nil {
		writeError(w, "Invalid graph", err)
		return
	}

	writeJSON(w, r, http.StatusOK, rendered)
}
