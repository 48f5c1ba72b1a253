package internal

import "strings"

type Dialect string

const (
	DialectMacro   Dialect = "macro"
	DialectINI     Dialect = "ini"
	DialectAttrSet Dialect = "attrset"
	DialectTabular Dialect = "tabular"
	DialectSource  Dialect = "source"
)

var Dialects = []Dialect{DialectMacro, DialectINI, DialectAttrSet, DialectTabular, DialectSource}

func ParseDialect(value string) (Dialect, bool) {
	v := Dialect(strings.ToLower(strings.TrimSpace(value)))
	for _, d := range Dialects {
		if d == v {
			return d, true
		}
	}
	return "", false
}

type CanonicalType string

const (
	TypeUnsigned8  CanonicalType = "UNSIGNED8"
	TypeUnsigned16 CanonicalType = "UNSIGNED16"
	TypeUnsigned32 CanonicalType = "UNSIGNED32"
	TypeSigned8    CanonicalType = "SIGNED8"
	TypeSigned16   CanonicalType = "SIGNED16"
	TypeSigned32   CanonicalType = "SIGNED32"
	TypeFloat      CanonicalType = "FLOAT"
)

var CanonicalTypes = []CanonicalType{
	TypeUnsigned8, TypeUnsigned16, TypeUnsigned32,
	TypeSigned8, TypeSigned16, TypeSigned32,
	TypeFloat,
}

func ParseCanonicalType(value string) (CanonicalType, bool) {
	v := CanonicalType(strings.ToUpper(strings.TrimSpace(value)))
	for _, t := range CanonicalTypes {
		if t == v {
			return t, true
		}
	}
	return "", false
}

// GroupPrefix marks synthetic group-header rows in the presentation order.
const GroupPrefix = "group "

// Record is the canonical parameter row shared by every dialect.
type Record struct {
	Name        string
	Address     string
	Editable    bool
	Description string
	Scale       *float64
	ScaleB      string
	Unit        string
	Value       string
	ScaleValue  string
	ScaleFormat string
	Type        CanonicalType
	Group       string
	Period      *float64
	Size        string
	Degree      string
	Code        string
}

func (r Record) IsHeader() bool {
	return strings.HasPrefix(r.Name, GroupPrefix)
}

func NewHeader(label string) Record {
	return Record{Name: GroupPrefix + label}
}

// Columns is the fixed export column order.
var Columns = []string{
	"name", "address", "editable", "description", "scale", "scaleB", "unit", "value",
	"scale_value", "scale_format", "type", "group", "period", "size", "degree", "code",
}

type RunSummary struct {
	Dialect       Dialect
	Input         int
	Extracted     int
	Skipped       int
	Headers       int
	Dropped       int
	Output        int
	TypeFallbacks map[string]int
}

func (s RunSummary) FallbackCount() int {
	total := 0
	for _, n := range s.TypeFallbacks {
		total += n
	}
	return total
}

type RunRow struct {
	ID         int
	TraceID    string
	Dialect    string
	InputPath  string
	Hash       string
	Status     string
	Error      string
	Records    int
	Fallbacks  int
	OutputPath string
	CreatedAt  string
}
