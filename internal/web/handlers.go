package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/ledgerimport/internal/ingest"
	"github.com/JonMunkholm/ledgerimport/internal/logging"
	"github.com/JonMunkholm/ledgerimport/internal/pipeline"
	"github.com/JonMunkholm/ledgerimport/internal/report"
)

// maxFormMemory is how much of an upload is held in memory before the
// multipart reader spills to disk.
const maxFormMemory = 32 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pipeline.Status())
}

// handleImport runs an uploaded workbook or CSV sheet through the pipeline
// and answers with its report. The form fields strict, dryRun and capital
// override the configured run options.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		s.respondError(w, r, fmt.Errorf("upload too large or invalid form: %w", err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	opts, err := runOptions(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("no file provided: %w", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	src, err := ingest.Read(header.Filename, file)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ingest.ErrUnknownSource) {
			status = http.StatusUnsupportedMediaType
		}
		s.respondError(w, r, err, status)
		return
	}

	rep, err := s.pipeline.Run(r.Context(), src, opts)
	if rep == nil {
		s.respondError(w, r, err, 0)
		return
	}
	if err != nil {
		logging.Enrich(r.Context(), s.logger).Error("import finished with error",
			"run_id", rep.RunID,
			"state", rep.State,
			"error", err,
		)
	}
	writeJSON(w, reportStatus(rep), rep)
}

// reportStatus maps a finished run onto an HTTP status.
func reportStatus(rep *report.Report) int {
	switch pipeline.State(rep.State) {
	case pipeline.StateCommitted:
		return http.StatusCreated
	case pipeline.StateAborted:
		if !rep.IsCommittable {
			return http.StatusUnprocessableEntity
		}
		if rep.DryRun && rep.Failure == nil {
			return http.StatusOK
		}
	}
	return http.StatusInternalServerError
}

func runOptions(r *http.Request) (pipeline.RunOptions, error) {
	var opts pipeline.RunOptions
	if v := r.FormValue("strict"); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("invalid value for strict: %q", v)
		}
		opts.Strict = &strict
	}
	if v := r.FormValue("dryRun"); v != "" {
		dry, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("invalid value for dryRun: %q", v)
		}
		opts.DryRun = dry
	}
	if v := r.FormValue("capital"); v != "" {
		capital, err := decimal.NewFromString(v)
		if err != nil {
			return opts, fmt.Errorf("invalid value for capital: %q", v)
		}
		opts.ReportedCapital = &capital
	}
	return opts, nil
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.pipeline.LoadReport(chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.pipeline.Snapshots()
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	info, err := s.pipeline.Restore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	logging.Enrich(r.Context(), s.logger).Info("snapshot restored", "snapshot_id", info.ID)
	writeJSON(w, http.StatusOK, info)
}

// handleTotals recomputes the KPIs of the committed ledger.
func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	_, totals, err := s.pipeline.Export(r.Context())
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, totals.Map())
}

// handleExport downloads the committed ledger as a workbook that imports
// back unchanged.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if _, err := s.pipeline.ExportWorkbook(r.Context(), &buf); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="ledger.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}
