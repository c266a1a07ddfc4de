package web

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/JonMunkholm/ledgerimport/internal/backup"
	"github.com/JonMunkholm/ledgerimport/internal/commit"
	"github.com/JonMunkholm/ledgerimport/internal/config"
	"github.com/JonMunkholm/ledgerimport/internal/pipeline"
	"github.com/JonMunkholm/ledgerimport/internal/report"
	"github.com/JonMunkholm/ledgerimport/internal/store/memstore"
)

const clientsCSV = "ID,NOMBRE,DEUDA,PAGOS\nC1,Ana,1000,1000\nC2,Luis,500,200\n"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := pipeline.New(memstore.New(), pipeline.Config{
		Commit:    commit.Options{RetryInterval: time.Millisecond},
		BackupDir: filepath.Join(dir, "snapshots"),
		ReportDir: filepath.Join(dir, "reports"),
	}, logger)
	return NewServer(p, config.ServerConfig{MaxUploadSize: 1 << 20}, logger)
}

func uploadRequest(t *testing.T, filename, body string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	io.WriteString(fw, body)
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/imports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeReport(t *testing.T, rec *httptest.ResponseRecorder) report.Report {
	t.Helper()
	var rep report.Report
	if err := json.NewDecoder(rec.Body).Decode(&rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	return rep
}

func TestImportCommitsAndReports(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, uploadRequest(t, "CLIENTES.csv", clientsCSV, nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /api/imports status = %d, body = %s", rec.Code, rec.Body.String())
	}
	rep := decodeReport(t, rec)
	if rep.State != string(pipeline.StateCommitted) {
		t.Fatalf("State = %s, want COMMITTED", rep.State)
	}
	if rep.Counts.Imported != 2 {
		t.Errorf("Imported = %d, want 2", rep.Counts.Imported)
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/imports/"+rep.RunID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET report status = %d", rec.Code)
	}
	if got := decodeReport(t, rec); got.RunID != rep.RunID {
		t.Errorf("RunID = %s, want %s", got.RunID, rep.RunID)
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/snapshots", nil))
	var snaps []backup.Info
	if err := json.NewDecoder(rec.Body).Decode(&snaps); err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 || snaps[0].ID != rep.SnapshotID {
		t.Errorf("snapshots = %+v, want one with id %s", snaps, rep.SnapshotID)
	}

	rec = serve(s, httptest.NewRequest(http.MethodPost, "/api/snapshots/"+rep.SnapshotID+"/restore", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("restore status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestImportStatuses(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		body     string
		fields   map[string]string
		want     int
	}{
		{"structural error", "CLIENTES.csv", "NOMBRE,DEUDA\nAna,10\n", nil, http.StatusUnprocessableEntity},
		{"dry run", "CLIENTES.csv", clientsCSV, map[string]string{"dryRun": "true"}, http.StatusOK},
		{"unknown source", "ledger.pdf", "%PDF", nil, http.StatusUnsupportedMediaType},
		{"bad option", "CLIENTES.csv", clientsCSV, map[string]string{"strict": "maybe"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := serve(s, uploadRequest(t, tt.filename, tt.body, tt.fields))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d; body = %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		req  *http.Request
		code string
	}{
		{"report", httptest.NewRequest(http.MethodGet, "/api/imports/nope", nil), "ERR000"},
		{"snapshot", httptest.NewRequest(http.MethodPost, "/api/snapshots/20240101T000000Z-deadbeef/restore", nil), "BAK002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, tt.req)
			if rec.Code != http.StatusNotFound {
				t.Fatalf("status = %d, want 404", rec.Code)
			}
			var body ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Code != tt.code {
				t.Errorf("code = %s, want %s", body.Code, tt.code)
			}
		})
	}
}

func TestTotalsAndExport(t *testing.T) {
	s := newTestServer(t)
	if rec := serve(s, uploadRequest(t, "CLIENTES.csv", clientsCSV, nil)); rec.Code != http.StatusCreated {
		t.Fatalf("import status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/totals", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("totals status = %d", rec.Code)
	}
	var totals map[string]json.RawMessage
	if err := json.NewDecoder(rec.Body).Decode(&totals); err != nil {
		t.Fatal(err)
	}
	if len(totals) == 0 {
		t.Error("totals is empty")
	}

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/export", nil))
	if rec.Code != http.StatusOK || rec.Body.Len() == 0 {
		t.Fatalf("export status = %d, %d bytes", rec.Code, rec.Body.Len())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestRoutesNeedNoCredentials(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/healthz", "/api/snapshots", "/api/totals"} {
		t.Run(path, func(t *testing.T) {
			if rec := serve(s, httptest.NewRequest(http.MethodGet, path, nil)); rec.Code != http.StatusOK {
				t.Errorf("GET %s status = %d, want 200", path, rec.Code)
			}
		})
	}
}

func TestReportStatus(t *testing.T) {
	tests := []struct {
		name string
		rep  report.Report
		want int
	}{
		{"committed", report.Report{State: "COMMITTED", IsCommittable: true}, http.StatusCreated},
		{"invalid", report.Report{State: "ABORTED"}, http.StatusUnprocessableEntity},
		{"dry run", report.Report{State: "ABORTED", IsCommittable: true, DryRun: true}, http.StatusOK},
		{"backup failed", report.Report{State: "ABORTED", IsCommittable: true, Failure: &report.UserMessage{Code: "BAK001"}}, http.StatusInternalServerError},
		{"rolled back", report.Report{State: "ROLLED_BACK", IsCommittable: true}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reportStatus(&tt.rep); got != tt.want {
				t.Errorf("reportStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
