package pipeline

import (
	"regexp"
	"strings"

	"paramsheet/internal"
	"paramsheet/internal/util"
)

var iniObjectSection = regexp.MustCompile(`^\[([0-9A-Fa-f]{4})(?:[sS][uU][bB]([0-9A-Fa-f]{1,2}))?\]`)

type iniBlock struct {
	index     uint64
	sub       uint64
	hasSub    bool
	name      string
	size      string
	value     string
	typeToken string
	editable  bool
}

// extractINI walks an EDS-style stream. A line containing "[" closes the
// block in progress and opens the next one; key lines only touch the open
// block.
func (c *Converter) extractINI(src Source, a *audit) ([]internal.Record, error) {
	out := []internal.Record{}
	var cur *iniBlock

	flush := func() {
		if cur != nil {
			out = append(out, c.finishINIBlock(*cur, a))
		}
		cur = nil
	}

	for _, line := range src.Lines {
		trimmed := strings.TrimSpace(line)
		if strings.Contains(trimmed, "[") {
			flush()
			a.input++
			cur = parseINISection(trimmed)
			if cur == nil {
				a.skip()
			}
			continue
		}
		if cur == nil {
			continue
		}
		key, value, ok := strings.Cut(trimmed, "=")
		if !ok {
			continue
		}
		cur.apply(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	flush()

	return out, nil
}

func parseINISection(line string) *iniBlock {
	m := iniObjectSection.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	index, _ := util.ParseHex(m[1])
	b := &iniBlock{index: index}
	if m[2] != "" {
		b.sub, _ = util.ParseHex(m[2])
		b.hasSub = true
	}
	return b
}

func (b *iniBlock) apply(key, value string) {
	switch strings.ToLower(key) {
	case "parametername":
		b.name = value
	case "objecttype":
		b.size = value
	case "datatype":
		b.typeToken = value
	case "accesstype":
		b.editable = strings.HasPrefix(strings.ToLower(value), "rw")
	case "defaultvalue":
		b.value = value
	}
}

func (c *Converter) finishINIBlock(b iniBlock, a *audit) internal.Record {
	if !b.hasSub {
		return internal.NewHeader(b.name)
	}
	rec := internal.Record{
		Name:     b.name,
		Address:  EncodeAddress(b.index, b.sub),
		Editable: b.editable,
		Size:     b.size,
		Value:    b.value,
	}
	rec.Type = c.canonicalType(internal.DialectINI, b.typeToken, a)
	return rec
}

