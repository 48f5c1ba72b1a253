package pipeline

import (
	"fmt"
	"strings"

	"paramsheet/internal"
	"paramsheet/internal/util"
)

// Tabular rows set a fixed sampling period.
const tabularPeriod = 1

func (c *Converter) extractTabular(src Source, a *audit) ([]internal.Record, error) {
	out := make([]internal.Record, 0, len(src.Rows))
	for i, row := range src.Rows {
		a.input++
		values, err := c.resolveTabularFields(row, i+1)
		if err != nil {
			return nil, err
		}
		if row.empty() {
			a.skip()
			continue
		}
		rec, err := c.tabularRecord(values, i+1, a)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c *Converter) resolveTabularFields(row Row, n int) (map[string]string, error) {
	idx := indexRow(row)
	values := make(map[string]string, len(c.columns))
	for _, field := range c.columns {
		v, ok := firstPresent(idx, field.Accepted)
		if !ok {
			return nil, &MissingFieldError{Dialect: internal.DialectTabular, Field: field.Name, Accepted: field.Accepted, Record: n}
		}
		values[field.Name] = strings.TrimSpace(v)
	}
	return values, nil
}

func (c *Converter) tabularRecord(values map[string]string, n int, a *audit) (internal.Record, error) {
	rec := internal.Record{
		Name:        cellText(values["name"]),
		Editable:    util.ParseFlag(values["editable"]),
		Description: cellText(values["description"]),
		Unit:        cellText(values["unit"]),
		Size:        cellText(values["size"]),
		Code:        cellText(values["code"]),
		Period:      util.FloatPtr(tabularPeriod),
	}

	if addr := cellText(values["address"]); addr != "" {
		index, ok := util.ParseInteger(addr)
		if !ok || index < 0 {
			return internal.Record{}, &InvalidFieldError{Dialect: internal.DialectTabular, Field: "address", Value: addr, Record: n, Err: fmt.Errorf("not an integer")}
		}
		rec.Address = EncodeIndex(uint64(index))
	}

	if raw := cellText(values["scale"]); raw != "" {
		if scale, ok := util.ParseNumber(raw); ok {
			rec.Scale = util.FloatPtr(scale)
		} else {
			rec.ScaleB = raw
		}
	}

	typeToken := cellText(values["type"])
	if typeToken != "" || strings.Count(rec.Code, ".") == 2 {
		rec.Type = c.canonicalType(internal.DialectTabular, typeToken, a)
	}
	return rec, nil
}

// cellText drops the placeholders spreadsheet tools write for empty cells.
func cellText(v string) string {
	s := strings.TrimSpace(v)
	switch strings.ToLower(s) {
	case "nan", "none", "null":
		return ""
	}
	return s
}
