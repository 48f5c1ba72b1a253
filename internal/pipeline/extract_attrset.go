package pipeline

import (
	"strconv"
	"strings"

	"paramsheet/internal"
	"paramsheet/internal/util"
)

// Elements with this unit are tree roots of the editor, not parameters.
const attrSetRootUnit = "корень"

var attrSetRequired = []string{
	"tdim", "scale_value", "scale_format", "FullText", "co_index", "co_subindex", "checked", "EngText", "group_num",
}

func (c *Converter) extractAttrSet(src Source, a *audit) ([]internal.Record, error) {
	out := make([]internal.Record, 0, len(src.Elements))
	for i, el := range src.Elements {
		a.input++
		if util.NormalizeKey(el.Attrs["tdim"]) == attrSetRootUnit {
			a.skip()
			if group, err := strconv.ParseInt(strings.TrimSpace(el.Attrs["group_num"]), 10, 64); err == nil {
				a.title(strconv.FormatInt(group, 10), el.Attrs["FullText"])
			}
			continue
		}
		rec, err := c.parseAttrElement(el, i+1, a)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c *Converter) parseAttrElement(el Element, n int, a *audit) (internal.Record, error) {
	for _, name := range attrSetRequired {
		if _, ok := el.Attrs[name]; !ok {
			return internal.Record{}, &MissingFieldError{Dialect: internal.DialectAttrSet, Field: name, Accepted: []string{name}, Record: n}
		}
	}

	index, err := attrUint(el, "co_index", n, 0xFFFF)
	if err != nil {
		return internal.Record{}, err
	}
	sub, err := attrUint(el, "co_subindex", n, 0xFF)
	if err != nil {
		return internal.Record{}, err
	}
	scaleValue, err := attrInt(el, "scale_value", n)
	if err != nil {
		return internal.Record{}, err
	}
	group, err := attrInt(el, "group_num", n)
	if err != nil {
		return internal.Record{}, err
	}

	t := c.canonicalType(internal.DialectAttrSet, el.Attrs["tdim"], a)
	scale, t := c.scale.Resolve(scaleValue, el.Attrs["scale_format"], t)

	return internal.Record{
		Name:        el.Attrs["FullText"],
		Address:     EncodeAddress(index, sub),
		Editable:    util.ParseFlag(el.Attrs["checked"]),
		Description: el.Attrs["EngText"],
		Scale:       util.FloatPtr(scale),
		Unit:        el.Attrs["tdim"],
		ScaleValue:  el.Attrs["scale_value"],
		ScaleFormat: el.Attrs["scale_format"],
		Type:        t,
		Group:       strconv.FormatInt(group, 10),
	}, nil
}

func attrUint(el Element, name string, n int, max uint64) (uint64, error) {
	raw := strings.TrimSpace(el.Attrs[name])
	v, err := strconv.ParseUint(raw, 10, 64)
	if err == nil && v > max {
		err = strconv.ErrRange
	}
	if err != nil {
		return 0, &InvalidFieldError{Dialect: internal.DialectAttrSet, Field: name, Value: raw, Record: n, Err: err}
	}
	return v, nil
}

func attrInt(el Element, name string, n int) (int64, error) {
	raw := strings.TrimSpace(el.Attrs[name])
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &InvalidFieldError{Dialect: internal.DialectAttrSet, Field: name, Value: raw, Record: n, Err: err}
	}
	return v, nil
}
