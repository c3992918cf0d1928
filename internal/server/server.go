// Package server implements the HTTP API: the crop upload boundary, a
// server-side crop/export endpoint, metadata extraction and stored-image
// retrieval.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/RinLeung/canvas2/internal/exporter"
	"github.com/RinLeung/canvas2/internal/meta"
	"github.com/RinLeung/canvas2/internal/store"
	"github.com/RinLeung/canvas2/pkg/geometry"
)

// maxUploadBytes bounds multipart bodies on every endpoint.
const maxUploadBytes = 32 << 20

// Server holds the API dependencies.
type Server struct {
	startTime time.Time
	version   string
	store     *store.Store
	dataDir   string
}

// New creates a server persisting uploads through st, writing PNG files
// under dataDir.
func New(version string, st *store.Store, dataDir string) *Server {
	return &Server{
		startTime: time.Now(),
		version:   version,
		store:     st,
		dataDir:   dataDir,
	}
}

// Routes returns the API router, to be mounted under /api/v1.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	r.Post("/upload", s.handleUpload)
	r.Get("/images", s.handleListImages)
	r.Get("/images/{id}", s.handleGetImage)
	r.Get("/images/{id}/file", s.handleGetImageFile)
	r.Post("/crop", s.handleCrop)
	r.Post("/metadata", s.handleMetadata)
	return r
}

// healthResponse reports service liveness.
type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    int       `json:"uptime"`
	Version   string    `json:"version"`
}

// uploadMetadata is the JSON "metadata" field of an upload request.
type uploadMetadata struct {
	OriginalWidth  int `json:"originalWidth"`
	OriginalHeight int `json:"originalHeight"`
	CropX          int `json:"cropX"`
	CropY          int `json:"cropY"`
	CropWidth      int `json:"cropWidth"`
	CropHeight     int `json:"cropHeight"`
}

// uploadResponse is the success shape of the upload endpoint.
type uploadResponse struct {
	Success  bool   `json:"success"`
	ID       string `json:"id"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// cropParams is the JSON "params" field of a server-side crop request.
type cropParams struct {
	StageWidth  float64        `json:"stageWidth"`
	StageHeight float64        `json:"stageHeight"`
	Scale       float64        `json:"scale"`
	Offset      geometry.Point `json:"offset"`
	Selection   geometry.Box   `json:"selection"`
}

// metadataResponse reports extracted resolution metadata. Status is "ok",
// "unknown" (metadata present but unusable) or "none" (no metadata at all).
type metadataResponse struct {
	Status string  `json:"status"`
	DPIX   float64 `json:"dpiX,omitempty"`
	DPIY   float64 `json:"dpiY,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    int(time.Since(s.startTime).Seconds()),
		Version:   s.version,
	})
}

// handleUpload accepts a multipart form with an "image" PNG and a "metadata"
// JSON document describing the crop it was produced from.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readImageField(w, r)
	if !ok {
		return
	}
	if !meta.IsPNG(data) {
		writeError(w, http.StatusBadRequest, "image must be a PNG")
		return
	}

	var m uploadMetadata
	if err := json.Unmarshal([]byte(r.FormValue("metadata")), &m); err != nil {
		writeError(w, http.StatusBadRequest, "invalid metadata JSON")
		return
	}

	id := uuid.NewString()
	filename := id + ".png"
	if err := os.WriteFile(filepath.Join(s.dataDir, filename), data, 0o644); err != nil {
		log.Printf("Failed to write upload %s: %v", filename, err)
		writeError(w, http.StatusInternalServerError, "failed to store image")
		return
	}

	rec := &store.Image{
		ID:             id,
		Filename:       filename,
		OriginalWidth:  m.OriginalWidth,
		OriginalHeight: m.OriginalHeight,
		CropX:          m.CropX,
		CropY:          m.CropY,
		CropWidth:      m.CropWidth,
		CropHeight:     m.CropHeight,
		UploadedAt:     time.Now().UTC(),
	}
	if err := s.store.Insert(r.Context(), rec); err != nil {
		log.Printf("Failed to insert record %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to store image record")
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{
		Success:  true,
		ID:       id,
		Filename: filename,
		URL:      "/api/v1/images/" + id + "/file",
	})
}

func (s *Server) handleListImages(w http.ResponseWriter, r *http.Request) {
	images, err := s.store.List(r.Context())
	if err != nil {
		log.Printf("Failed to list records: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list images")
		return
	}
	if images == nil {
		images = []store.Image{}
	}
	writeJSON(w, http.StatusOK, images)
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	img, ok := s.lookupImage(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, img)
}

func (s *Server) handleGetImageFile(w http.ResponseWriter, r *http.Request) {
	img, ok := s.lookupImage(w, r)
	if !ok {
		return
	}

	data, err := os.ReadFile(filepath.Join(s.dataDir, img.Filename))
	if err != nil {
		log.Printf("Failed to read stored file %s: %v", img.Filename, err)
		writeError(w, http.StatusInternalServerError, "failed to read stored image")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

// handleCrop runs the crop pipeline server-side: an image plus viewport and
// selection parameters in, the rasterized PNG crop out.
func (s *Server) handleCrop(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readImageField(w, r)
	if !ok {
		return
	}

	var params cropParams
	if err := json.Unmarshal([]byte(r.FormValue("params")), &params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid params JSON")
		return
	}
	if err := validateCropParams(&params); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	img, err := exporter.Decode(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unrecognized image format")
		return
	}
	bounds := img.Bounds()

	viewport := geometry.Viewport{
		StageWidth:  params.StageWidth,
		StageHeight: params.StageHeight,
		Scale:       geometry.ClampScale(params.Scale),
	}
	viewport.Offset = viewport.ClampOffset(params.Offset, float64(bounds.Dx()), float64(bounds.Dy()))

	snap := exporter.Snapshot{
		Image:         img,
		Viewport:      viewport,
		Selection:     geometry.ClampToStage(params.Selection, params.StageWidth, params.StageHeight),
		NaturalWidth:  bounds.Dx(),
		NaturalHeight: bounds.Dy(),
	}

	out, err := exporter.Export(r.Context(), snap)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", fmt.Sprint(len(out)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

// handleMetadata extracts embedded DPI metadata. Malformed metadata is not
// an error; it degrades to the "unknown" or "none" statuses.
func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readImageField(w, r)
	if !ok {
		return
	}

	res, err := meta.Extract(data)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, metadataResponse{Status: "ok", DPIX: res.DPIX, DPIY: res.DPIY})
	case errors.Is(err, meta.ErrNoMetadata):
		writeJSON(w, http.StatusOK, metadataResponse{Status: "none"})
	default:
		writeJSON(w, http.StatusOK, metadataResponse{Status: "unknown"})
	}
}

// readImageField reads the multipart "image" field, writing the error
// response itself when the form is unusable.
func (s *Server) readImageField(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return nil, false
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing image field")
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read image data")
		return nil, false
	}
	return data, true
}

func (s *Server) lookupImage(w http.ResponseWriter, r *http.Request) (*store.Image, bool) {
	id := chi.URLParam(r, "id")
	img, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "image not found")
		return nil, false
	}
	if err != nil {
		log.Printf("Failed to look up record %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to look up image")
		return nil, false
	}
	return img, true
}

func validateCropParams(p *cropParams) error {
	if p.StageWidth <= 0 || p.StageHeight <= 0 {
		return fmt.Errorf("stage dimensions must be positive")
	}
	if p.Selection.Width <= 0 || p.Selection.Height <= 0 {
		return fmt.Errorf("selection dimensions must be positive")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}
