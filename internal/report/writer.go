package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrReportNotFound is returned by Load for an unknown run id.
var ErrReportNotFound = errors.New("report not found")

// Path returns where the report for runID lives under dir.
func Path(dir, runID string) string {
	return filepath.Join(dir, runID+".json")
}

// Save writes r as indented JSON to <dir>/<runID>.json and returns the path.
func Save(dir string, r *Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	path := Path(dir, r.RunID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// Load reads a previously saved report.
func Load(dir, runID string) (*Report, error) {
	if strings.ContainsAny(runID, `/\`) || runID == "" {
		return nil, ErrReportNotFound
	}
	data, err := os.ReadFile(Path(dir, runID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", runID, err)
	}
	return &r, nil
}

// WriteSummary prints counts and the first limit errors and warnings.
func WriteSummary(w io.Writer, r *Report, limit int) {
	fmt.Fprintf(w, "run %s: %s\n", r.RunID, r.State)
	fmt.Fprintf(w, "  imported=%d errored=%d warned=%d excluded=%d transformed=%d committable=%t\n",
		r.Counts.Imported, r.Counts.Errored, r.Counts.Warned, r.Counts.Excluded,
		r.Counts.Transformed, r.IsCommittable)
	if r.SnapshotID != "" {
		fmt.Fprintf(w, "  snapshot: %s\n", r.SnapshotID)
	}
	if r.Failure != nil {
		fmt.Fprintf(w, "  failure: %s (Code: %s). %s\n", r.Failure.Message, r.Failure.Code, r.Failure.Action)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "errors (%d):\n", len(r.Errors))
		for i, e := range r.Errors {
			if i == limit {
				fmt.Fprintf(w, "  ... %d more\n", len(r.Errors)-limit)
				break
			}
			fmt.Fprintf(w, "  [%s] %s %s: %s\n", e.Type, e.Entity, location(e.Sheet, e.RowIndex, e.Field), e.Message)
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "warnings (%d):\n", len(r.Warnings))
		for i, wn := range r.Warnings {
			if i == limit {
				fmt.Fprintf(w, "  ... %d more\n", len(r.Warnings)-limit)
				break
			}
			line := fmt.Sprintf("  [%s] %s %s: %s", wn.Type, wn.Entity, location(wn.Sheet, wn.RowIndex, wn.Field), wn.Message)
			if wn.Delta != nil {
				line += fmt.Sprintf(" (declared %s, computed %s, delta %s)",
					wn.Declared.String(), wn.Computed.String(), wn.Delta.String())
			}
			fmt.Fprintln(w, line)
		}
	}
}

func location(sheet string, row int, field string) string {
	var b strings.Builder
	if sheet != "" {
		fmt.Fprintf(&b, "%s:%d", sheet, row)
	}
	if field != "" {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(field)
	}
	return b.String()
}
