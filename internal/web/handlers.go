package web

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dlacroix/wmslite/internal/export"
	"github.com/dlacroix/wmslite/internal/ingest"
	"github.com/dlacroix/wmslite/internal/service"
	"github.com/go-chi/chi/v5"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleImport accepts a multipart upload for one dataset role and runs the
// import pipeline. Column overrides come as form fields named "map.<field>"
// (for example map.qty=Stock Count) and act as the fallback for columns
// auto-detection misses.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	role, err := ingest.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)
	if err := r.ParseMultipartForm(s.cfg.Import.MaxFileSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload: "+err.Error())
		return
	}

	result, err := s.service.Import(r.Context(), service.ImportRequest{
		Role:     role,
		Filename: header.Filename,
		Payload:  payload,
		Fallback: ingest.MapFallback(mapOverrides(r)),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// mapOverrides collects map.<field> form values into fallback answers.
func mapOverrides(r *http.Request) map[ingest.Field]string {
	answers := make(map[ingest.Field]string)
	for _, field := range ingest.Fields() {
		if v := r.FormValue("map." + string(field)); v != "" {
			answers[field] = v
		}
	}
	return answers
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.Results(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"items": items, "count": len(items)})
}

func (s *Server) handleWorklist(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.Worklist(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	threshold, err := s.service.Threshold(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"items": items, "count": len(items), "threshold": threshold})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.Summarize(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	imported, err := s.service.ImportedAt(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"summary": summary, "importedAt": imported})
}

func (s *Server) handleLookupItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.service.LookupItem(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, item)
}

func (s *Server) handleLookupBin(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.LookupBin(r.Context(), chi.URLParam(r, "bin"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"items": items, "count": len(items)})
}

// exportItems resolves the view query parameter: the full consolidated set by
// default, or the worklist with ?view=worklist.
func (s *Server) exportItems(r *http.Request) ([]ingest.ConsolidatedItem, string, error) {
	if r.URL.Query().Get("view") == "worklist" {
		items, err := s.service.Worklist(r.Context())
		return items, "worklist", err
	}
	items, err := s.service.Results(r.Context())
	return items, "consolidated", err
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	items, view, err := s.exportItems(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	name := fmt.Sprintf("%s_%s.csv", view, time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if err := export.WriteItemsCSV(w, items); err != nil {
		s.respondError(w, r, err)
	}
}

func (s *Server) handleExportWorkbook(w http.ResponseWriter, r *http.Request) {
	worklist, err := s.service.Worklist(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	consolidated, err := s.service.Results(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	name := fmt.Sprintf("reconciliation_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if err := export.WriteWorkbook(w, worklist, consolidated); err != nil {
		s.respondError(w, r, err)
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	threshold, err := s.service.Threshold(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"threshold": threshold})
}

// handlePutSettings updates the worklist threshold. Accepts form or query
// encoding with a single "threshold" field.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form: "+err.Error())
		return
	}
	raw := strings.TrimSpace(r.Form.Get("threshold"))
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing threshold field")
		return
	}
	threshold, err := service.ParseThreshold(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !threshold.IsPositive() {
		writeError(w, http.StatusBadRequest, "threshold must be positive")
		return
	}
	if err := s.service.SetThreshold(r.Context(), threshold); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"threshold": threshold})
}

func (s *Server) handleMappings(w http.ResponseWriter, r *http.Request) {
	mappings, err := s.service.Mappings(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, mappings)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	entries, err := s.service.History(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"entries": entries, "count": len(entries)})
}
