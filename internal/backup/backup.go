// Package backup captures full snapshots of the target collections before a
// commit and restores them on rollback.
//
// A snapshot is one JSON file under the manager's directory. Capture returns
// only after the file is synced, renamed into place and read back.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/ledgerimport/internal/store"
)

// ErrSnapshotNotFound is returned for unknown or malformed snapshot ids.
var ErrSnapshotNotFound = errors.New("snapshot not found")

const (
	idTimeLayout = "20060102T150405Z"
	fileExt      = ".json"
)

var idPattern = regexp.MustCompile(`^\d{8}T\d{6}Z-[0-9a-f]{8}$`)

// Error describes a failed snapshot operation.
type Error struct {
	Op         string // capture, verify, restore, load, list
	SnapshotID string
	Err        error
}

func (e *Error) Error() string {
	if e.SnapshotID == "" {
		return fmt.Sprintf("snapshot %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("snapshot %s %s: %v", e.Op, e.SnapshotID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Snapshot is the full content of the target collections at capture time.
type Snapshot struct {
	ID          string                      `json:"id"`
	RunID       string                      `json:"runId,omitempty"`
	CreatedAt   time.Time                   `json:"createdAt"`
	Collections map[string][]store.Document `json:"collections"`
}

// Counts returns the document count per collection.
func (s *Snapshot) Counts() map[string]int {
	counts := make(map[string]int, len(s.Collections))
	for c, docs := range s.Collections {
		counts[c] = len(docs)
	}
	return counts
}

// Info summarises a stored snapshot.
type Info struct {
	ID        string         `json:"id"`
	RunID     string         `json:"runId,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	Counts    map[string]int `json:"counts"`
	Size      int64          `json:"size"`
}

// Manager writes snapshots of a store to a directory.
type Manager struct {
	dir    string
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewManager returns a manager storing snapshots in dir.
func NewManager(dir string, s store.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{dir: dir, store: s, logger: logger, now: time.Now}
}

// Dir is the snapshot directory.
func (m *Manager) Dir() string { return m.dir }

// NewID returns a snapshot id for t.
func NewID(t time.Time) string {
	return t.UTC().Format(idTimeLayout) + "-" + uuid.NewString()[:8]
}

// Capture reads every collection in full and persists it as a new snapshot.
func (m *Manager) Capture(ctx context.Context, runID string, collections []string) (*Snapshot, error) {
	now := m.now().UTC()
	snap := &Snapshot{
		ID:          NewID(now),
		RunID:       runID,
		CreatedAt:   now,
		Collections: make(map[string][]store.Document, len(collections)),
	}

	for _, c := range collections {
		if err := ctx.Err(); err != nil {
			return nil, &Error{Op: "capture", SnapshotID: snap.ID, Err: err}
		}
		docs, err := m.store.ReadAll(ctx, c)
		if err != nil {
			return nil, &Error{Op: "capture", SnapshotID: snap.ID, Err: fmt.Errorf("read %s: %w", c, err)}
		}
		if docs == nil {
			docs = []store.Document{}
		}
		snap.Collections[c] = docs
	}

	if err := m.write(snap); err != nil {
		return nil, &Error{Op: "capture", SnapshotID: snap.ID, Err: err}
	}
	if err := m.verify(snap); err != nil {
		return nil, &Error{Op: "verify", SnapshotID: snap.ID, Err: err}
	}

	m.logger.Info("snapshot captured",
		"snapshot_id", snap.ID,
		"collections", len(snap.Collections),
		"documents", total(snap.Counts()),
	)
	return snap, nil
}

// Restore overwrites every collection in the snapshot with its contents.
func (m *Manager) Restore(ctx context.Context, id string) (*Snapshot, error) {
	snap, err := m.Load(id)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(snap.Collections))
	for c := range snap.Collections {
		names = append(names, c)
	}
	sort.Strings(names)

	for _, c := range names {
		if err := m.store.Replace(ctx, c, snap.Collections[c]); err != nil {
			return nil, &Error{Op: "restore", SnapshotID: id, Err: fmt.Errorf("replace %s: %w", c, err)}
		}
	}

	m.logger.Info("snapshot restored",
		"snapshot_id", id,
		"collections", len(names),
		"documents", total(snap.Counts()),
	)
	return snap, nil
}

// Load reads a snapshot file.
func (m *Manager) Load(id string) (*Snapshot, error) {
	if !idPattern.MatchString(id) {
		return nil, &Error{Op: "load", SnapshotID: id, Err: ErrSnapshotNotFound}
	}
	snap, err := readFile(m.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, &Error{Op: "load", SnapshotID: id, Err: ErrSnapshotNotFound}
	}
	if err != nil {
		return nil, &Error{Op: "load", SnapshotID: id, Err: err}
	}
	return snap, nil
}

// List returns stored snapshots, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, &Error{Op: "list", Err: err}
	}

	infos := []Info{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		id := strings.TrimSuffix(name, fileExt)
		if !idPattern.MatchString(id) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			return nil, &Error{Op: "list", SnapshotID: id, Err: err}
		}
		snap, err := readFile(m.path(id))
		if err != nil {
			m.logger.Warn("skipping unreadable snapshot", "snapshot_id", id, "error", err)
			continue
		}
		infos = append(infos, Info{
			ID:        snap.ID,
			RunID:     snap.RunID,
			CreatedAt: snap.CreatedAt,
			Counts:    snap.Counts(),
			Size:      fi.Size(),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].CreatedAt.After(infos[j].CreatedAt)
		}
		return infos[i].ID > infos[j].ID
	})
	return infos, nil
}

func (m *Manager) path(id string) string {
	return filepath.Join(m.dir, id+fileExt)
}

func (m *Manager) write(snap *Snapshot) error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(m.dir, snap.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // No-op after rename

	enc := json.NewEncoder(tmp)
	if err := enc.Encode(snap); err != nil {
		tmp.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, m.path(snap.ID)); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// verify reads the file back and checks every collection and id survived.
func (m *Manager) verify(snap *Snapshot) error {
	got, err := readFile(m.path(snap.ID))
	if err != nil {
		return err
	}
	if got.ID != snap.ID {
		return fmt.Errorf("id mismatch: %s", got.ID)
	}
	for c, docs := range snap.Collections {
		stored, ok := got.Collections[c]
		if !ok {
			return fmt.Errorf("collection %s missing", c)
		}
		if len(stored) != len(docs) {
			return fmt.Errorf("collection %s: %d documents, want %d", c, len(stored), len(docs))
		}
		ids := store.IDs(stored)
		for _, d := range docs {
			if _, ok := ids[d.ID]; !ok {
				return fmt.Errorf("collection %s: document %s missing", c, d.ID)
			}
		}
	}
	return nil
}

func readFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var snap Snapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Collections == nil {
		snap.Collections = map[string][]store.Document{}
	}
	return &snap, nil
}

func total(counts map[string]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}
