package pipeline

import (
	"strings"

	"paramsheet/internal"
	"paramsheet/internal/util"
)

const (
	sourceMarker      = "static_cast"
	sourceKeyPrefix   = "CO_KEY("
	sourceHeaderDelim = "// "
	sourceEnumScope   = "::"
)

type sourceLineKind int

const (
	sourceNoise sourceLineKind = iota
	sourceHeader
	sourceData
)

func (c *Converter) extractSource(src Source, a *audit) ([]internal.Record, error) {
	out := make([]internal.Record, 0, len(src.Lines))
	for _, line := range src.Lines {
		a.input++
		f, kind := parseSourceLine(line)
		switch kind {
		case sourceHeader:
			out = append(out, f.rec)
		case sourceData:
			f.rec.Type = c.canonicalType(internal.DialectSource, f.typeToken, a)
			out = append(out, f.rec)
		default:
			a.skip()
		}
	}
	return out, nil
}

// parseSourceLine reads one CO_KEY array entry:
//
//	{CO_KEY(0x2108, 1, CO_UNSIGNED32 | CO_OBJ____R_), 0, static_cast<uint32_t>(eIndex::PSTED_STATUS), nullptr, INIT_FROM_DB_FLAG},
//
// Indented "// Title" comments between entries open a group.
func parseSourceLine(line string) (fields, sourceLineKind) {
	trimmed := strings.TrimSpace(line)

	if strings.Contains(line, " "+sourceHeaderDelim) && strings.HasPrefix(trimmed, sourceHeaderDelim) {
		title := strings.TrimSpace(strings.TrimPrefix(trimmed, sourceHeaderDelim))
		if title == "" {
			return fields{}, sourceNoise
		}
		return fields{rec: internal.NewHeader(title)}, sourceHeader
	}

	if !strings.Contains(line, sourceMarker) {
		return fields{}, sourceNoise
	}

	parts := strings.Split(trimmed, ",")
	if len(parts) < 5 {
		return fields{}, sourceNoise
	}

	_, indexToken, found := strings.Cut(parts[0], sourceKeyPrefix)
	if !found {
		return fields{}, sourceNoise
	}
	index, ok := util.ParseHex(indexToken)
	if !ok {
		return fields{}, sourceNoise
	}
	sub, ok := util.ParseInteger(parts[1])
	if !ok || sub < 0 || sub > 0xFF {
		return fields{}, sourceNoise
	}

	flags := parts[2]
	typeToken, _, _ := strings.Cut(flags, "|")
	typeToken = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(typeToken), ")"))

	name := ""
	for _, p := range parts[3:] {
		if strings.Contains(p, sourceMarker) {
			name = castTarget(p)
			break
		}
	}

	return fields{
		rec: internal.Record{
			Name:     name,
			Address:  EncodeAddress(index, uint64(sub)),
			Editable: strings.Contains(flags, "RW"),
		},
		typeToken: typeToken,
	}, sourceData
}

// castTarget pulls the enumerator out of static_cast<T>(scope::NAME).
func castTarget(expr string) string {
	s := strings.TrimSpace(expr)
	if i := strings.Index(s, ">("); i >= 0 {
		s = s[i+2:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), ")")
	if i := strings.LastIndex(s, sourceEnumScope); i >= 0 {
		s = s[i+len(sourceEnumScope):]
	}
	return strings.TrimSpace(s)
}
