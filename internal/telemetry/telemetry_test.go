package telemetry

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

const (
	motorLine  = "1 CAN1 Rx 18FF53A1 x 8 00 10 27 40 7D 20 4E 00 00 00 12:30:45.123"
	wheelLine  = "2 CAN1 Rx 10FF60A1 x 8 BC 61 00 00 50 C3 30 75"
	motorLine2 = "3 CAN1 Rx 18FF53A1 x 8 00 10 27 40 7D 20 4E 00 00 00 12:30:46.001"
)

func TestDecode(t *testing.T) {
	res := Decode([]string{wheelLine, motorLine, "noise", wheelLine, motorLine2})

	if res.Frames != 4 || res.Orphans != 1 || res.Malformed != 0 {
		t.Fatalf("unexpected counters: %+v", res)
	}
	if len(res.Samples) != 2 {
		t.Fatalf("samples=%d want 2", len(res.Samples))
	}

	first := res.Samples[0]
	if first.Time != "45.123" {
		t.Fatalf("time=%q want 45.123", first.Time)
	}
	want := map[string]float64{
		"motor_torque":      0,
		"motor_speed":       16,
		"stator_current":    0,
		"wheel_front_left":  0.04,
		"wheel_front_right": -50,
		"wheel_rear_left":   50,
		"wheel_rear_right":  10,
	}
	for k, v := range want {
		if got, ok := first.Values[k]; !ok || got != v {
			t.Fatalf("%s=%v (present=%v) want %v", k, got, ok, v)
		}
	}

	second := res.Samples[1]
	if second.Time != "46.001" {
		t.Fatalf("time=%q want 46.001", second.Time)
	}
	if _, ok := second.Values["wheel_front_left"]; ok {
		t.Fatalf("second sample should have no wheel data: %+v", second.Values)
	}
}

func TestDecodeMalformed(t *testing.T) {
	res := Decode([]string{
		"1 CAN1 Rx 18FF53A1 x 8 00 10",
		"1 CAN1 Rx 18FF53A1 x 8 00 ZZ 27 40 7D 20 4E 00 00 00 12:30:45.123",
		motorLine,
		"2 CAN1 Rx 10FF60A1 x 8 BC",
	})
	if res.Malformed != 3 || len(res.Samples) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestExportXLSX(t *testing.T) {
	res := Decode([]string{motorLine, wheelLine})
	path := filepath.Join(t.TempDir(), "trace_parse.xlsx")
	if err := ExportXLSX(res.Samples, path); err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows=%d want 2", len(rows))
	}
	if rows[0][0] != "time" || rows[0][len(Columns)-1] != "wheel_rear_right" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "45.123" || rows[1][2] != "16" {
		t.Fatalf("unexpected data row: %v", rows[1])
	}
}
