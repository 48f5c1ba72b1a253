package pipeline

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/xuri/excelize/v2"

	"paramsheet/internal"
	"paramsheet/internal/config"
)

func mkXLSX(rows [][]any) []byte {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	buf := bytes.NewBuffer(nil)
	_, _ = f.WriteTo(buf)
	return buf.Bytes()
}

func newTestConverter(t *testing.T) (*Converter, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return NewConverter(config.DefaultProfile(), log, nil), hook
}

func mustConvert(t *testing.T, c *Converter, d internal.Dialect, src Source) Result {
	t.Helper()
	res, err := c.Convert(d, src)
	if err != nil {
		t.Fatalf("convert %s: %v", d, err)
	}
	return res
}

func names(records []internal.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Name)
	}
	return out
}

func splitTestLines(text string) []string {
	lines, err := ReadLines(bytes.NewReader([]byte(text)), "utf-8")
	if err != nil {
		panic(err)
	}
	return lines
}
