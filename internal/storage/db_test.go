package storage

import (
	"path/filepath"
	"testing"

	"paramsheet/internal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "journal", "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestInsertRunRoundTrip(t *testing.T) {
	db := openTestDB(t)

	scale := 4096.0
	records := []internal.Record{
		internal.NewHeader("1"),
		{Name: "Speed", Address: "0x80001", Editable: true, Scale: &scale, Unit: "U32", Type: internal.TypeUnsigned32, Group: "1"},
		{Name: "Mode", Address: "0x200000", Type: internal.TypeUnsigned16},
	}
	summary := internal.RunSummary{
		Dialect:       internal.DialectAttrSet,
		Input:         2,
		Extracted:     2,
		Headers:       1,
		Output:        3,
		TypeFallbacks: map[string]int{"X": 2},
	}
	run := internal.RunRow{TraceID: "abc", Dialect: "attrset", InputPath: "in.xml", Hash: "h1", Status: RunStatusOK, OutputPath: "out.xlsx"}

	id, err := db.InsertRun(run, summary, records)
	if err != nil {
		t.Fatalf("insert run: %v", err)
	}

	got, err := db.MustRun(int(id))
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Records != 3 || got.Fallbacks != 2 || got.Status != RunStatusOK || got.CreatedAt == "" {
		t.Fatalf("unexpected run row: %+v", got)
	}

	stored, err := db.GetRunRecords(int(id))
	if err != nil {
		t.Fatalf("get records: %v", err)
	}
	if len(stored) != len(records) {
		t.Fatalf("records=%d want %d", len(stored), len(records))
	}
	if stored[0].Name != "group 1" || stored[0].Scale != nil || stored[0].Period != nil {
		t.Fatalf("header not preserved: %+v", stored[0])
	}
	if stored[1].Scale == nil || *stored[1].Scale != scale || !stored[1].Editable || stored[1].Type != internal.TypeUnsigned32 {
		t.Fatalf("data record not preserved: %+v", stored[1])
	}
	if stored[2].Address != "0x200000" {
		t.Fatalf("order not preserved: %+v", stored[2])
	}

	gotSummary, err := db.GetRunSummary(int(id))
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if gotSummary.Headers != 1 || gotSummary.TypeFallbacks["X"] != 2 {
		t.Fatalf("unexpected summary: %+v", gotSummary)
	}
}

func TestFindRunByHashReturnsLatest(t *testing.T) {
	db := openTestDB(t)

	if row, err := db.FindRunByHash("missing"); err != nil || row != nil {
		t.Fatalf("expected no run, got %+v err=%v", row, err)
	}

	first := internal.RunRow{TraceID: "t1", Dialect: "macro", InputPath: "a.c", Hash: "same", Status: RunStatusFailed, Error: "boom"}
	second := internal.RunRow{TraceID: "t2", Dialect: "macro", InputPath: "a.c", Hash: "same", Status: RunStatusOK}
	if _, err := db.InsertRun(first, internal.RunSummary{}, nil); err != nil {
		t.Fatalf("insert first: %v", err)
	}
	if _, err := db.InsertRun(second, internal.RunSummary{}, nil); err != nil {
		t.Fatalf("insert second: %v", err)
	}

	row, err := db.FindRunByHash("same")
	if err != nil || row == nil {
		t.Fatalf("find run: %+v err=%v", row, err)
	}
	if row.TraceID != "t2" {
		t.Fatalf("traceId=%s want t2", row.TraceID)
	}

	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].TraceID != "t2" || runs[1].Error != "boom" {
		t.Fatalf("unexpected runs: %+v", runs)
	}
}

func TestMetadata(t *testing.T) {
	db := openTestDB(t)

	if v, err := db.GetMetadata("watch.lastPollAt"); err != nil || v != nil {
		t.Fatalf("expected empty metadata, got %v err=%v", v, err)
	}
	if err := db.SetMetadata("watch.lastPollAt", "1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := db.SetMetadata("watch.lastPollAt", "2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, err := db.GetMetadata("watch.lastPollAt")
	if err != nil || v == nil || *v != "2" {
		t.Fatalf("metadata=%v err=%v", v, err)
	}
}
