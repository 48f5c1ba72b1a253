package pipeline

import (
	"testing"

	"paramsheet/internal"
)

func TestDetectDialect(t *testing.T) {
	cases := []struct {
		name string
		path string
		head string
		want internal.Dialect
	}{
		{name: "eds", path: "drive.eds", head: "[FileInfo]\n[1000]\nParameterName=Device type", want: internal.DialectINI},
		{name: "ini content without extension", path: "dump", head: "[2000sub1]\nDataType=0x7", want: ""},
		{name: "attrset", path: "params.xml", head: `<?xml version="1.0"?><r><param co_index="1"/></r>`, want: internal.DialectAttrSet},
		{name: "xlsx", path: "table.xlsx", head: "PK\x03\x04", want: internal.DialectTabular},
		{name: "html", path: "table.htm", head: "<html><table>", want: internal.DialectTabular},
		{name: "source", path: "co_dictionary.cpp", head: "{CO_KEY(0x2108, 1, CO_UNSIGNED32), 0, static_cast<uint32_t>(eIndex::A)}", want: internal.DialectSource},
		{name: "macro", path: "od.c", head: `{{0x2000, 0x01}, {"A", "A", "X", "", OD_ENUM, true, false}},`, want: internal.DialectMacro},
		{name: "macro in header file", path: "od_table.h", head: `{{0x2000, 0x01}, {"A", "A", "X", "", OD_ENUM, true, false}},`, want: internal.DialectMacro},
		{name: "unknown", path: "notes.md", head: "hello", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DetectDialect(tc.path, []byte(tc.head))
			if got.Dialect != tc.want {
				t.Fatalf("dialect=%q (score=%.2f reason=%s) want %q", got.Dialect, got.Score, got.Reason, tc.want)
			}
			if got.OK() != (tc.want != "") {
				t.Fatalf("OK()=%v", got.OK())
			}
		})
	}
}
