package pipeline

import (
	"strconv"
	"strings"

	"paramsheet/internal"
	"paramsheet/internal/config"
	"paramsheet/internal/util"
)

var defaultTypeTables = map[internal.Dialect]map[string]internal.CanonicalType{
	internal.DialectMacro: {
		"UINT32":  internal.TypeUnsigned32,
		"FLOAT32": internal.TypeFloat,
		// encoded values, transferred as 16-bit handles
		"FUNC":   internal.TypeUnsigned16,
		"STRING": internal.TypeUnsigned16,
		"ENUM":   internal.TypeUnsigned16,
	},
	internal.DialectINI: {
		"2": internal.TypeSigned8,
		"3": internal.TypeSigned16,
		"4": internal.TypeSigned32,
		"5": internal.TypeUnsigned8,
		"6": internal.TypeUnsigned16,
		"7": internal.TypeUnsigned32,
		"8": internal.TypeFloat,
	},
	internal.DialectAttrSet: {
		"U32":          internal.TypeUnsigned32,
		"U16":          internal.TypeUnsigned16,
		"U8":           internal.TypeUnsigned8,
		"перечисление": internal.TypeUnsigned8,
		"десятерич.":   internal.TypeUnsigned8,
		"двоич.":       internal.TypeUnsigned8,
		"I16vparam":    internal.TypeSigned16,
		"I32":          internal.TypeSigned32,
	},
	internal.DialectTabular: {
		"UINT32": internal.TypeUnsigned32,
		"UINT16": internal.TypeUnsigned16,
		"INT16":  internal.TypeSigned16,
		"UNION":  internal.TypeSigned16,
		"STR":    internal.TypeSigned16,
		"INT32":  internal.TypeSigned32,
		"DATE":   internal.TypeSigned32,
	},
	internal.DialectSource: {
		"UNSIGNED8":  internal.TypeUnsigned8,
		"UNSIGNED16": internal.TypeUnsigned16,
		"UNSIGNED32": internal.TypeUnsigned32,
		"SIGNED8":    internal.TypeSigned8,
		"SIGNED16":   internal.TypeSigned16,
		"SIGNED32":   internal.TypeSigned32,
		"FLOAT":      internal.TypeFloat,
	},
}

// TypeNormalizer maps dialect type tokens onto the canonical types.
type TypeNormalizer struct {
	tables map[internal.Dialect]map[string]internal.CanonicalType
}

func NewTypeNormalizer(profile config.Profile) *TypeNormalizer {
	n := &TypeNormalizer{tables: map[internal.Dialect]map[string]internal.CanonicalType{}}
	for dialect, table := range defaultTypeTables {
		for token, t := range table {
			n.add(dialect, token, t)
		}
	}
	for name, tokens := range profile.Types {
		dialect, ok := internal.ParseDialect(name)
		if !ok {
			continue
		}
		for token, target := range tokens {
			if t, ok := internal.ParseCanonicalType(target); ok {
				n.add(dialect, token, t)
			}
		}
	}
	return n
}

func (n *TypeNormalizer) add(d internal.Dialect, token string, t internal.CanonicalType) {
	if n.tables[d] == nil {
		n.tables[d] = map[string]internal.CanonicalType{}
	}
	n.tables[d][typeKey(d, token)] = t
}

// Normalize always returns a canonical type. The second result is false when
// the token had no table entry and SIGNED32 was substituted.
func (n *TypeNormalizer) Normalize(d internal.Dialect, token string) (internal.CanonicalType, bool) {
	if t, ok := n.tables[d][typeKey(d, token)]; ok {
		return t, true
	}
	return internal.TypeSigned32, false
}

func typeKey(d internal.Dialect, token string) string {
	key := util.NormalizeToken(token)
	switch d {
	case internal.DialectMacro:
		key = strings.TrimPrefix(key, "OD_")
	case internal.DialectSource:
		key = strings.TrimPrefix(key, "CO_")
	case internal.DialectINI:
		if v, ok := util.ParseHex(key); ok {
			key = strconv.FormatUint(v, 10)
		}
	}
	return key
}
