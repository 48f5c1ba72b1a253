package pipeline

import (
	"slices"

	"paramsheet/internal/util"
)

type tabularField struct {
	Name     string
	Accepted []string
}

// Default column names per semantic field: variant A (English) first, then
// variant B (Russian).
var defaultTabularFields = []tabularField{
	{Name: "type", Accepted: []string{"type", "Тип"}},
	{Name: "scale", Accepted: []string{"scale", "Коэф-т"}},
	{Name: "name", Accepted: []string{"name", "Название"}},
	{Name: "address", Accepted: []string{"address", "Адрес"}},
	{Name: "editable", Accepted: []string{"editable", "Запись"}},
	{Name: "description", Accepted: []string{"description", "Описание"}},
	{Name: "unit", Accepted: []string{"unit", "Ед. изм."}},
	{Name: "size", Accepted: []string{"size", "Размер"}},
	{Name: "code", Accepted: []string{"code", "Код"}},
}

func tabularFields(extra map[string][]string) []tabularField {
	out := make([]tabularField, 0, len(defaultTabularFields))
	for _, f := range defaultTabularFields {
		accepted := append([]string(nil), f.Accepted...)
		accepted = append(accepted, extra[f.Name]...)
		out = append(out, tabularField{Name: f.Name, Accepted: accepted})
	}
	return out
}

type rowIndex map[string]string

func indexRow(row Row) rowIndex {
	idx := make(rowIndex, len(row))
	keys := make([]string, 0, len(row))
	for key := range row {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		norm := util.NormalizeKey(key)
		if _, exists := idx[norm]; exists {
			continue
		}
		idx[norm] = row[key]
	}
	return idx
}

// firstPresent returns the value under the first accepted key the row has.
func firstPresent(idx rowIndex, accepted []string) (string, bool) {
	for _, key := range accepted {
		if value, ok := idx[util.NormalizeKey(key)]; ok {
			return value, true
		}
	}
	return "", false
}
