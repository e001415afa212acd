package history

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state", "history.db"), time.Second)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_OpenInitializesSchemaAndSaveLoad(t *testing.T) {
	store := openStore(t)

	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	first, err := store.SaveRun(Run{
		Header:     "/inc/api.h",
		LibName:    "Lib",
		Timestamp:  base,
		Duration:   1500 * time.Millisecond,
		DeclCount:  12,
		EntryCount: 10,
		StubCount:  1,
		OutputHash: "abc",
	})
	if err != nil {
		t.Fatalf("save first run: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected generated run id")
	}
	if first.Status != StatusOK {
		t.Fatalf("expected default status ok, got %q", first.Status)
	}

	if _, err := store.SaveRun(Run{
		Header:    "/inc/api.h",
		Timestamp: base.Add(2 * time.Hour),
		Status:    StatusFailed,
		ErrorCode: "PARSE_FAILURE",
		Message:   "syntax error",
	}); err != nil {
		t.Fatalf("save second run: %v", err)
	}

	got, err := store.LoadRuns("/inc/api.h", base.Add(time.Hour))
	if err != nil {
		t.Fatalf("load runs: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 run after since filter, got %d", len(got))
	}
	if got[0].ErrorCode != "PARSE_FAILURE" || got[0].Succeeded() {
		t.Fatalf("unexpected run: %+v", got[0])
	}

	all, err := store.LoadRuns("/inc/api.h", time.Time{})
	if err != nil {
		t.Fatalf("load all runs: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(all))
	}
	if all[0].ID != first.ID || all[0].Duration != 1500*time.Millisecond || all[0].EntryCount != 10 {
		t.Fatalf("expected first run to roundtrip, got %+v", all[0])
	}
}

func TestStore_LatestSuccess(t *testing.T) {
	store := openStore(t)

	if _, ok, err := store.LatestSuccess("/inc/api.h"); err != nil || ok {
		t.Fatalf("expected no run, got ok=%v err=%v", ok, err)
	}

	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	for i, r := range []Run{
		{Timestamp: base, OutputHash: "one"},
		{Timestamp: base.Add(time.Minute), OutputHash: "two"},
		{Timestamp: base.Add(2 * time.Minute), Status: StatusFailed},
	} {
		r.Header = "/inc/api.h"
		if _, err := store.SaveRun(r); err != nil {
			t.Fatalf("save run %d: %v", i, err)
		}
	}

	latest, ok, err := store.LatestSuccess("/inc/api.h")
	if err != nil || !ok {
		t.Fatalf("expected latest success, got ok=%v err=%v", ok, err)
	}
	if latest.OutputHash != "two" {
		t.Fatalf("expected hash two, got %q", latest.OutputHash)
	}
}

func TestStore_Prune(t *testing.T) {
	store := openStore(t)

	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if _, err := store.SaveRun(Run{Header: "a.h", Timestamp: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := store.SaveRun(Run{Header: "b.h", Timestamp: base}); err != nil {
		t.Fatal(err)
	}

	removed, err := store.Prune("a.h", 2)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 removed, got %d", removed)
	}

	rows, err := store.LoadRuns("a.h", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || !rows[0].Timestamp.Equal(base.Add(3*time.Minute)) {
		t.Fatalf("unexpected remaining runs: %+v", rows)
	}

	other, err := store.LoadRuns("b.h", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 1 {
		t.Fatalf("prune must not touch other headers, got %d runs", len(other))
	}

	if removed, err := store.Prune("a.h", 0); err != nil || removed != 0 {
		t.Fatalf("keep=0 must be a no-op, got %d %v", removed, err)
	}
}

func TestStore_SaveRunRejectsEmptyHeader(t *testing.T) {
	store := openStore(t)
	if _, err := store.SaveRun(Run{Header: "  "}); err == nil {
		t.Fatal("expected error for empty header")
	}
	if _, err := store.SaveRun(Run{Header: "a.h", SchemaVersion: SchemaVersion + 1}); err == nil {
		t.Fatal("expected error for unsupported schema version")
	}
}

func TestStore_OpenRejectsDirectoryPath(t *testing.T) {
	_, err := Open(t.TempDir(), 0)
	if err == nil {
		t.Fatal("expected open error for directory path")
	}
	if !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStore_OpenCorruptDBPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	if err := os.WriteFile(path, []byte("this is not sqlite"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path, 0)
	if err == nil {
		t.Fatal("expected sqlite open error")
	}
	lower := strings.ToLower(err.Error())
	if !strings.Contains(lower, "not a database") && !strings.Contains(lower, "schema") {
		t.Fatalf("expected schema/open error, got: %v", err)
	}
}

func TestEnsureSchema_DetectsNewerVersionDrift(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if _, err := store.db.Exec(`INSERT OR REPLACE INTO schema_migrations(version) VALUES (?)`, SchemaVersion+1); err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open(driverName, "file:"+path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	err = EnsureSchema(db)
	if err == nil {
		t.Fatal("expected drift error")
	}
	if !strings.Contains(err.Error(), "newer than supported") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSummarize(t *testing.T) {
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	runs := []Run{
		{Timestamp: base, Status: StatusOK, OutputHash: "a", Duration: time.Second},
		{Timestamp: base.Add(time.Minute), Status: StatusOK, OutputHash: "a", Duration: 3 * time.Second},
		{Timestamp: base.Add(2 * time.Minute), Status: StatusFailed, Duration: time.Second},
		{Timestamp: base.Add(3 * time.Minute), Status: StatusOK, OutputHash: "b", Duration: 3 * time.Second},
	}

	s := Summarize("api.h", runs)
	if s.RunCount != 4 || s.FailureCount != 1 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if s.OutputChanges != 2 {
		t.Fatalf("expected 2 output changes, got %d", s.OutputChanges)
	}
	if s.AvgDuration != 2*time.Second {
		t.Fatalf("expected avg 2s, got %v", s.AvgDuration)
	}
	if !s.LastSuccess.Equal(base.Add(3*time.Minute)) || !s.LastFailure.Equal(base.Add(2*time.Minute)) {
		t.Fatalf("unexpected last timestamps: %+v", s)
	}

	if empty := Summarize("none.h", nil); empty.RunCount != 0 || empty.AvgDuration != 0 {
		t.Fatalf("unexpected empty summary: %+v", empty)
	}
}

func TestIsCorruptError(t *testing.T) {
	if !IsCorruptError(errors.New("database disk image is malformed")) {
		t.Fatal("expected malformed sqlite message to be treated as corrupt")
	}
	if IsCorruptError(nil) {
		t.Fatal("nil is not corrupt")
	}
}
