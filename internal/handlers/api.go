// Package handlers provides HTTP request handlers for the API endpoints.
// It defines the routing logic, response formatting, and error handling mechanisms.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/onnxscope/core/internal/config"
	"github.com/onnxscope/core/internal/graph"
	"github.com/onnxscope/core/internal/models"
	"github.com/onnxscope/core/internal/parser"
	"github.com/onnxscope/core/internal/selection"
	"github.com/onnxscope/core/internal/session"
)

// API serves the model endpoints. Sessions live in Store.
type API struct {
	Store          *session.Store
	MaxUploadBytes int64
	Options        graph.Options
}

func NewAPI(cfg config.Config) *API {
	opts := graph.Options{Layout: cfg.Layout}

	return &API{
		Store:          session.NewStore(cfg.SessionLimit, opts),
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Options:        opts,
	}
}

// Register mounts every route on mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", a.HealthHandler)
	mux.HandleFunc("/parse-onnx", a.ParseONNXHandler)
	mux.HandleFunc("/graph", a.GraphHandler)
	mux.HandleFunc("/sessions", a.CreateSessionHandler)
	mux.HandleFunc("/sessions/{id}", a.SessionHandler)
	mux.HandleFunc("/sessions/{id}/model", a.ReplaceModelHandler)
	mux.HandleFunc("/sessions/{id}/events", a.EventHandler)
	mux.HandleFunc("/sessions/{id}/panel", a.PanelHandler)
}

const formFile = "file"

type upload struct {
	data   []byte
	isJSON bool
}

// readUpload returns the model bytes from a multipart "file" field or, for
// any other content type, the raw request body.
func (a *API) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	if a.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes)
	}
	defer r.Body.Close()

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, fmt.Errorf("failed to read form: %w", err)
		}
		file, header, err := r.FormFile(formFile)
		if err != nil {
			return nil, fmt.Errorf("missing %q form field: %w", formFile, err)
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		return &upload{
			data:   data,
			isJSON: strings.EqualFold(filepath.Ext(header.Filename), ".json"),
		}, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return &upload{data: data, isJSON: mediaType == "application/json"}, nil
}

func (u *upload) decode() (*models.ParsedModel, error) {
	if u.isJSON {
		return parser.ParseModel(u.data)
	}
	return parser.ParseONNX(u.data)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError

	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrUnknownNode):
		return http.StatusNotFound
	case errors.Is(err, selection.ErrNoSelection):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func writeError(w http.ResponseWriter, prefix string, err error) {
	http.Error(w, prefix+": "+err.Error(), statusFor(err))
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	encoder := json.NewEncoder(w)
	if r.URL.Query().Get("pretty") == "true" {
		encoder.SetIndent("", "  ")
	}

	if err := encoder.Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	return false
}
