package pipeline

import (
	"strings"

	"paramsheet/internal"
	"paramsheet/internal/util"
)

const macroMarker = "OD_"

// Field positions of an OD_ dictionary entry:
// {{index, sub}, {"area", "group", "name", "unit", OD_TYPE, readable, writable}},
const (
	macroIndex    = 0
	macroSub      = 1
	macroGroup    = 3
	macroName     = 4
	macroUnit     = 5
	macroType     = 6
	macroEditable = 8
	macroMinParts = 9
)

func (c *Converter) extractMacro(src Source, a *audit) ([]internal.Record, error) {
	out := make([]internal.Record, 0, len(src.Lines))
	for _, line := range src.Lines {
		a.input++
		f, ok := parseMacroLine(line)
		if !ok {
			a.skip()
			continue
		}
		f.rec.Type = c.canonicalType(internal.DialectMacro, f.typeToken, a)
		out = append(out, f.rec)
	}
	return out, nil
}

func parseMacroLine(line string) (fields, bool) {
	parts := strings.Split(line, ",")
	if len(parts) < macroMinParts {
		return fields{}, false
	}
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = cleanMacroCell(p)
	}

	if !strings.Contains(line, macroMarker) && !bareMacroRow(cells) {
		return fields{}, false
	}
	if _, ok := util.ParseHex(cells[macroIndex]); !ok {
		return fields{}, false
	}
	if _, ok := util.ParseHex(cells[macroSub]); !ok {
		return fields{}, false
	}

	typeToken := cells[macroType]
	if isBareNumber(typeToken) && len(cells) > macroType+1 {
		typeToken = cells[macroType+1]
	}

	return fields{
		rec: internal.Record{
			Address:  joinAddressTokens(cells[macroIndex], cells[macroSub]),
			Group:    cells[macroGroup],
			Name:     cells[macroName],
			Unit:     cells[macroUnit],
			Editable: strings.EqualFold(cells[macroEditable], "true"),
		},
		typeToken: typeToken,
	}, true
}

// bareMacroRow accepts the flattened form of an entry that was exported
// without the OD_ macros: "2000,00,RW,5,"Motor Current","A",1,UINT32,true".
func bareMacroRow(cells []string) bool {
	if len(cells) < macroMinParts {
		return false
	}
	_, okIndex := util.ParseHex(cells[macroIndex])
	_, okSub := util.ParseHex(cells[macroSub])
	return okIndex && okSub
}

func cleanMacroCell(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "{}")
	return util.Unquote(strings.TrimSpace(s))
}

func isBareNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
