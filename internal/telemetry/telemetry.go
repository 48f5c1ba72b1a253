package telemetry

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	// FrameMotor opens a new sample.
	FrameMotor = "18FF53A1"
	// FrameWheels fills the wheel speeds of the open sample.
	FrameWheels = "10FF60A1"

	timeField = 16
)

// channel decodes a little-endian 16-bit value spread over two byte fields:
// value = hex(fields[hi] + fields[lo]) / div + offset.
type channel struct {
	column string
	hi, lo int
	div    float64
	offset float64
}

var motorChannels = []channel{
	{column: "motor_torque", hi: 8, lo: 7, div: 100, offset: -100},
	{column: "motor_speed", hi: 10, lo: 9, div: 4, offset: -8000},
	{column: "stator_current", hi: 12, lo: 11, div: 10, offset: -2000},
}

var wheelChannels = []channel{
	{column: "wheel_front_left", hi: 7, lo: 6, div: 500, offset: -50},
	{column: "wheel_front_right", hi: 9, lo: 8, div: 500, offset: -50},
	{column: "wheel_rear_left", hi: 11, lo: 10, div: 500, offset: -50},
	{column: "wheel_rear_right", hi: 13, lo: 12, div: 500, offset: -50},
}

// Columns is the export column order.
var Columns = func() []string {
	cols := []string{"time"}
	for _, ch := range motorChannels {
		cols = append(cols, ch.column)
	}
	for _, ch := range wheelChannels {
		cols = append(cols, ch.column)
	}
	return cols
}()

// Sample is one output row. Values maps a channel column to its decoded
// value; a channel whose frame never arrived is absent.
type Sample struct {
	Time   string
	Values map[string]float64
}

type Result struct {
	Samples   []Sample
	Frames    int
	Orphans   int
	Malformed int
}

// Decode turns a CAN trace into samples. Wheel frames seen before the first
// motor frame have no sample to land in and are counted as orphans.
func Decode(lines []string) Result {
	res := Result{Samples: []Sample{}}
	var cur *Sample

	for _, line := range lines {
		switch {
		case strings.Contains(line, FrameMotor):
			res.Frames++
			fields := strings.Fields(line)
			sample, err := decodeMotor(fields)
			if err != nil {
				res.Malformed++
				continue
			}
			if cur != nil {
				res.Samples = append(res.Samples, *cur)
			}
			cur = &sample
		case strings.Contains(line, FrameWheels):
			res.Frames++
			if cur == nil {
				res.Orphans++
				continue
			}
			values, err := decodeChannels(strings.Fields(line), wheelChannels)
			if err != nil {
				res.Malformed++
				continue
			}
			for k, v := range values {
				cur.Values[k] = v
			}
		}
	}
	if cur != nil {
		res.Samples = append(res.Samples, *cur)
	}
	return res
}

func decodeMotor(fields []string) (Sample, error) {
	if len(fields) <= timeField {
		return Sample{}, fmt.Errorf("motor frame has %d fields", len(fields))
	}
	stamp := strings.Split(strings.TrimSpace(fields[timeField]), ":")
	if len(stamp) < 3 {
		return Sample{}, fmt.Errorf("bad timestamp %q", fields[timeField])
	}
	values, err := decodeChannels(fields, motorChannels)
	if err != nil {
		return Sample{}, err
	}
	return Sample{Time: stamp[2], Values: values}, nil
}

func decodeChannels(fields []string, channels []channel) (map[string]float64, error) {
	out := make(map[string]float64, len(channels))
	for _, ch := range channels {
		if ch.hi >= len(fields) || ch.lo >= len(fields) {
			return nil, fmt.Errorf("%s: frame has %d fields", ch.column, len(fields))
		}
		raw, err := strconv.ParseUint(fields[ch.hi]+fields[ch.lo], 16, 32)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ch.column, err)
		}
		out[ch.column] = round2(float64(raw)/ch.div + ch.offset)
	}
	return out, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func ExportXLSX(samples []Sample, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, h := range Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, s := range samples {
		r := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, r)
		_ = f.SetCellValue(sheet, cell, s.Time)
		for col, name := range Columns[1:] {
			v, ok := s.Values[name]
			if !ok {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+2, r)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
