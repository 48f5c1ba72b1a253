package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"paramsheet/internal"
)

func TestRecorderObserveRun(t *testing.T) {
	r := NewRecorder()
	r.ObserveRun(internal.RunSummary{
		Dialect:       internal.DialectMacro,
		Output:        5,
		Skipped:       2,
		TypeFallbacks: map[string]int{"OD_WEIRD": 3},
	})
	r.ObserveRun(internal.RunSummary{Dialect: internal.DialectMacro, Output: 1})
	r.ObserveFailure(internal.DialectINI)

	if got := testutil.ToFloat64(r.records.WithLabelValues("macro")); got != 6 {
		t.Fatalf("records=%v want 6", got)
	}
	if got := testutil.ToFloat64(r.skipped.WithLabelValues("macro")); got != 2 {
		t.Fatalf("skipped=%v want 2", got)
	}
	if got := testutil.ToFloat64(r.fallbacks.WithLabelValues("macro")); got != 3 {
		t.Fatalf("fallbacks=%v want 3", got)
	}
	if got := testutil.ToFloat64(r.runs.WithLabelValues("macro", StatusOK)); got != 2 {
		t.Fatalf("ok runs=%v want 2", got)
	}
	if got := testutil.ToFloat64(r.runs.WithLabelValues("ini", StatusFailed)); got != 1 {
		t.Fatalf("failed runs=%v want 1", got)
	}
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.ObserveRun(internal.RunSummary{Dialect: internal.DialectSource, Output: 1})
	r.ObserveFailure(internal.DialectSource)
	if err := r.WriteTextfile(filepath.Join(t.TempDir(), "m.prom")); err != nil {
		t.Fatalf("nil recorder write: %v", err)
	}
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveRun(internal.RunSummary{Dialect: internal.DialectTabular, Output: 4})

	path := filepath.Join(t.TempDir(), "paramsheet.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `paramsheet_records_total{dialect="tabular"} 4`) {
		t.Fatalf("unexpected textfile:\n%s", data)
	}
}
