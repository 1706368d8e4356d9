package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	internal "github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/common"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem/types"

	"github.com/rs/zerolog"
)

const maxRequestBody = 1 << 20

// Engine is the part of the filesystem facade the HTTP layer needs.
type Engine interface {
	Scan(ctx context.Context, root string) (*types.ScanReport, error)
	ScanAndRelocate(ctx context.Context, root, destination string, dryRun bool) (*types.ScanReport, *types.RelocationResult, error)
	Undo(ctx context.Context, destinationPath, originalPath string) error
	UndoUnder(ctx context.Context, prefix string) (*types.UndoResult, error)
	Moves(prefix string) []types.MoveRecord
	LookupMove(destinationPath string) (types.MoveRecord, bool)
	Stats() filesystem.Stats
}

// Handler serves the JSON API.
type Handler struct {
	engine Engine
	logger zerolog.Logger
}

// NewHandler creates the API handler
func NewHandler(engine Engine, logger zerolog.Logger) *Handler {
	return &Handler{
		engine: engine,
		logger: logger.With().Str("component", "api").Logger(),
	}
}

type scanRequest struct {
	Directory string `json:"directory"`
}

type relocateRequest struct {
	Directory   string `json:"directory"`
	Destination string `json:"destination,omitempty"`
	DryRun      bool   `json:"dry_run,omitempty"`
}

// undoRequest restores one file, or with Prefix every journaled move under it.
type undoRequest struct {
	DestinationPath string `json:"destination_path"`
	OriginalPath    string `json:"original_path"`
	Prefix          string `json:"prefix,omitempty"`
}

type duplicateGroupResponse struct {
	Hash  string   `json:"hash"`
	Files []string `json:"files"`
	Count int      `json:"count"`
}

type nearDuplicateResponse struct {
	GroupID string   `json:"group_id"`
	Files   []string `json:"files"`
	Count   int      `json:"count"`
}

type scanResponse struct {
	RunID                    string                   `json:"run_id"`
	Root                     string                   `json:"root"`
	Duplicates               []duplicateGroupResponse `json:"duplicates"`
	NearDuplicates           []nearDuplicateResponse  `json:"near_duplicates"`
	TotalFiles               int                      `json:"total_files"`
	TotalDuplicateGroups     int                      `json:"total_duplicate_groups"`
	TotalNearDuplicateGroups int                      `json:"total_near_duplicate_groups"`
	Summary                  types.Summary            `json:"summary"`
	Diagnostics              []types.Diagnostic       `json:"diagnostics"`
	Message                  string                   `json:"message,omitempty"`
}

type relocateResponse struct {
	*types.RelocationResult
	Summary types.Summary `json:"summary"`
	Error   string        `json:"error,omitempty"`
}

func newScanResponse(report *types.ScanReport) scanResponse {
	resp := scanResponse{
		RunID:                    report.RunID.String(),
		Root:                     report.Root,
		Duplicates:               make([]duplicateGroupResponse, 0, len(report.DuplicateGroups)),
		NearDuplicates:           make([]nearDuplicateResponse, 0, len(report.NearDuplicateClusters)),
		TotalFiles:               len(report.Records),
		TotalDuplicateGroups:     len(report.DuplicateGroups),
		TotalNearDuplicateGroups: len(report.NearDuplicateClusters),
		Summary:                  report.Summary,
		Diagnostics:              report.Diagnostics,
		Message:                  report.Message,
	}
	if resp.Diagnostics == nil {
		resp.Diagnostics = []types.Diagnostic{}
	}

	for _, g := range report.DuplicateGroups {
		resp.Duplicates = append(resp.Duplicates, duplicateGroupResponse{
			Hash:  g.Digest.Short(),
			Files: g.Paths,
			Count: g.Count(),
		})
	}
	for _, c := range report.NearDuplicateClusters {
		resp.NearDuplicates = append(resp.NearDuplicates, nearDuplicateResponse{
			GroupID: c.ID,
			Files:   c.Paths,
			Count:   c.Count(),
		})
	}
	return resp
}

// Scan handles POST /api/scan.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Directory == "" {
		writeError(w, http.StatusBadRequest, "No directory provided")
		return
	}

	report, err := h.engine.Scan(r.Context(), req.Directory)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newScanResponse(report))
}

// Relocate handles POST /api/relocate.
func (h *Handler) Relocate(w http.ResponseWriter, r *http.Request) {
	var req relocateRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Directory == "" {
		writeError(w, http.StatusBadRequest, "No directory provided")
		return
	}

	report, result, err := h.engine.ScanAndRelocate(r.Context(), req.Directory, req.Destination, req.DryRun)
	if result == nil {
		h.writeEngineError(w, err)
		return
	}

	resp := relocateResponse{RelocationResult: result, Summary: report.Summary}
	status := http.StatusOK
	if err != nil {
		// moves already made are reported so they can be undone
		status = h.statusFor(err)
		resp.Error = err.Error()
	}
	writeJSON(w, status, resp)
}

// Undo handles POST /api/undo.
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	var req undoRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Prefix != "" {
		result, err := h.engine.UndoUnder(r.Context(), req.Prefix)
		if err != nil && result == nil {
			h.writeEngineError(w, err)
			return
		}
		status := http.StatusOK
		if err != nil {
			status = h.statusFor(err)
		}
		writeJSON(w, status, result)
		return
	}
	if req.DestinationPath == "" || req.OriginalPath == "" {
		writeError(w, http.StatusBadRequest, "destination_path and original_path, or prefix, are required")
		return
	}

	if err := h.engine.Undo(r.Context(), req.DestinationPath, req.OriginalPath); err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Restored %s", req.OriginalPath),
	})
}

// Moves handles GET /api/moves. With destination it returns the single
// journaled move that produced that file; otherwise every move under prefix.
func (h *Handler) Moves(w http.ResponseWriter, r *http.Request) {
	if dest := r.URL.Query().Get("destination"); dest != "" {
		rec, ok := h.engine.LookupMove(dest)
		if !ok {
			writeError(w, http.StatusNotFound, "No recorded move for "+dest)
			return
		}
		writeJSON(w, http.StatusOK, rec)
		return
	}

	moves := h.engine.Moves(r.URL.Query().Get("prefix"))
	if moves == nil {
		moves = []types.MoveRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"moves": moves,
		"count": len(moves),
	})
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Stats())
}

// OpenFile handles GET /api/open-file, streaming a file inline for preview.
func (h *Handler) OpenFile(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "No file path provided")
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, "File does not exist")
			return
		}
		h.writeEngineError(w, err)
		return
	}
	if !info.Mode().IsRegular() {
		writeError(w, http.StatusBadRequest, "Path is not a file")
		return
	}

	f, err := os.Open(path)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	defer f.Close()

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": filepath.Base(path)}))
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
}

// HealthLive handles GET /health/live.
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   internal.Version,
		"service":   internal.DefaultAppName,
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return false
	}
	return true
}

// writeEngineError maps engine sentinels to status codes.
func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	status := h.statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg("Request failed")
	}
	writeError(w, status, err.Error())
}

func (h *Handler) statusFor(err error) int {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrDirectoryNotFound),
		errors.Is(err, common.ErrNotADirectory),
		errors.Is(err, common.ErrPathEmpty),
		errors.Is(err, common.ErrPathInvalid),
		errors.Is(err, common.ErrPathTooLong),
		errors.Is(err, common.ErrDestinationUnavailable):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrSourceNotExist):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrDestinationExists):
		status = http.StatusConflict
	case errors.Is(err, common.ErrPermissionDenied), errors.Is(err, os.ErrPermission):
		status = http.StatusForbidden
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	return status
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
