package pipeline

import (
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"testing"

	"paramsheet/internal"
	"paramsheet/internal/config"
)

func TestNormalizeKnownTokens(t *testing.T) {
	n := NewTypeNormalizer(config.DefaultProfile())
	cases := []struct {
		dialect internal.Dialect
		token   string
		want    internal.CanonicalType
	}{
		{internal.DialectMacro, "OD_UINT32", internal.TypeUnsigned32},
		{internal.DialectMacro, " od_float32 ", internal.TypeFloat},
		{internal.DialectMacro, "OD_FUNC", internal.TypeUnsigned16},
		{internal.DialectMacro, "STRING", internal.TypeUnsigned16},
		{internal.DialectINI, "0x0002", internal.TypeSigned8},
		{internal.DialectINI, "0x8", internal.TypeFloat},
		{internal.DialectAttrSet, "двоич.", internal.TypeUnsigned8},
		{internal.DialectAttrSet, "I16vparam", internal.TypeSigned16},
		{internal.DialectTabular, "DATE", internal.TypeSigned32},
		{internal.DialectTabular, "union", internal.TypeSigned16},
		{internal.DialectSource, "CO_UNSIGNED8", internal.TypeUnsigned8},
		{internal.DialectSource, "SIGNED8", internal.TypeSigned8},
	}
	for _, tc := range cases {
		got, known := n.Normalize(tc.dialect, tc.token)
		if !known || got != tc.want {
			t.Fatalf("%s %q -> %s known=%v want %s", tc.dialect, tc.token, got, known, tc.want)
		}
	}
}

func TestNormalizeIsTotal(t *testing.T) {
	n := NewTypeNormalizer(config.DefaultProfile())
	tokens := []string{"", " ", "??", "OD_", "0xZZ", "UINT64", "double", " ", "CO_", "корень"}
	for _, d := range internal.Dialects {
		for _, token := range tokens {
			got, known := n.Normalize(d, token)
			if !slices.Contains(internal.CanonicalTypes, got) {
				t.Fatalf("%s %q -> %q is not canonical", d, token, got)
			}
			if !known && got != internal.TypeSigned32 {
				t.Fatalf("%s %q fallback=%s want SIGNED32", d, token, got)
			}
		}
	}
}

func TestNormalizeProfileTokens(t *testing.T) {
	profile := config.DefaultProfile()
	profile.Types = map[string]map[string]string{"macro": {"BOOL": "UNSIGNED8"}}
	n := NewTypeNormalizer(profile)

	if got, known := n.Normalize(internal.DialectMacro, "OD_BOOL"); !known || got != internal.TypeUnsigned8 {
		t.Fatalf("profile token -> %s known=%v", got, known)
	}
	if _, known := n.Normalize(internal.DialectSource, "BOOL"); known {
		t.Fatalf("profile token leaked into another dialect")
	}
}

func TestNormalizeMacroNarrowIntegersFallBack(t *testing.T) {
	n := NewTypeNormalizer(config.DefaultProfile())
	for _, token := range []string{"OD_UINT8", "OD_UINT16", "OD_INT8", "OD_INT16", "OD_INT32"} {
		if got, known := n.Normalize(internal.DialectMacro, token); known || got != internal.TypeSigned32 {
			t.Fatalf("%s -> %s known=%v want SIGNED32 fallback", token, got, known)
		}
	}

	profile := config.DefaultProfile()
	profile.Types = map[string]map[string]string{"macro": {"UINT16": "UNSIGNED16"}}
	if got, known := NewTypeNormalizer(profile).Normalize(internal.DialectMacro, "OD_UINT16"); !known || got != internal.TypeUnsigned16 {
		t.Fatalf("profile mapping ignored: %s known=%v", got, known)
	}
}

var addressPattern = regexp.MustCompile(`^0x[0-9a-f]+$`)

func TestEncodeAddress(t *testing.T) {
	cases := []struct {
		index, sub uint64
		want       string
	}{
		{0x2000, 0, "0x200000"},
		{0x800, 1, "0x80001"},
		{0x1018, 0xff, "0x1018ff"},
		{0x1, 0xa, "0x10a"},
	}
	for _, tc := range cases {
		if got := EncodeAddress(tc.index, tc.sub); got != tc.want {
			t.Fatalf("EncodeAddress(%#x,%#x)=%q want %q", tc.index, tc.sub, got, tc.want)
		}
	}
	if got := EncodeIndex(8192); got != "0x2000" {
		t.Fatalf("EncodeIndex=%q", got)
	}

	for index := uint64(0); index <= 0xffff; index += 0x3ff {
		for sub := uint64(0); sub <= 0xff; sub += 0x11 {
			a := EncodeAddress(index, sub)
			if !addressPattern.MatchString(a) {
				t.Fatalf("bad address %q", a)
			}
			if !strings.HasSuffix(a, fmt.Sprintf("%02x", sub)) {
				t.Fatalf("sub-index suffix of %q", a)
			}
		}
	}
}

func TestScaleResolver(t *testing.T) {
	r := NewScaleResolver(config.DefaultProfile().Scale)
	cases := []struct {
		name   string
		value  int64
		format string
		in     internal.CanonicalType
		scale  float64
		typ    internal.CanonicalType
	}{
		{name: "regular", value: 256, format: "0", in: internal.TypeUnsigned32, scale: 65536, typ: internal.TypeUnsigned32},
		{name: "zero", value: 0, format: "", in: internal.TypeUnsigned16, scale: 0, typ: internal.TypeUnsigned16},
		{name: "exception wins over value", value: 1, format: "6144", in: internal.TypeFloat, scale: 0, typ: internal.TypeSigned16},
		{name: "exception with spaces", value: 7, format: " 12288 ", in: internal.TypeUnsigned8, scale: 0, typ: internal.TypeSigned16},
		{name: "non numeric format", value: 2, format: "fmt", in: internal.TypeUnsigned8, scale: 8388608, typ: internal.TypeUnsigned8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			scale, typ := r.Resolve(tc.value, tc.format, tc.in)
			if scale != tc.scale || typ != tc.typ {
				t.Fatalf("Resolve=%v,%s want %v,%s", scale, typ, tc.scale, tc.typ)
			}
		})
	}

	custom := NewScaleResolver(config.ScaleProfile{Numerator: 1000, Exceptions: []int{1}})
	if scale, typ := custom.Resolve(10, "6144", internal.TypeUnsigned8); scale != 100 || typ != internal.TypeUnsigned8 {
		t.Fatalf("custom profile: %v %s", scale, typ)
	}
}

func TestConvertIsDeterministic(t *testing.T) {
	src := Source{Lines: []string{
		`{{0x2000, 0x01}, {"B", "B", "X", "", OD_UINT8, true, true}},`,
		`{{0x2000, 0x02}, {"A", "A", "Y", "", OD_NOPE, true, false}},`,
		`2001,00,RW,5,"Motor Current","A",1,UINT32,true`,
	}}
	c, _ := newTestConverter(t)
	first := mustConvert(t, c, internal.DialectMacro, src)
	for i := 0; i < 5; i++ {
		again := mustConvert(t, c, internal.DialectMacro, src)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\n%+v\n%+v", i, first, again)
		}
	}
}

func TestConvertUnknownDialect(t *testing.T) {
	c, _ := newTestConverter(t)
	if _, err := c.Convert("csv", Source{}); err == nil {
		t.Fatalf("expected error for unknown dialect")
	}
}
