package pipeline

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"

	"paramsheet/internal"
	"paramsheet/internal/util"
)

// Element is one structured descriptor node with its attributes.
type Element struct {
	Name  string
	Attrs map[string]string
	Line  int
}

// Row maps column headers to cell text. Every header column is present,
// empty cells included.
type Row map[string]string

// Source is a fully buffered raw input. Only the part matching the dialect's
// input kind is populated.
type Source struct {
	Lines    []string
	Elements []Element
	Rows     []Row
}

type inputKind int

const (
	inputLines inputKind = iota
	inputElements
	inputRows
)

func LoadSource(d internal.Dialect, path, encoding string) (Source, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return Source{}, err
	}
	return ParseSource(d, filepath.Ext(path), blob, encoding)
}

func ParseSource(d internal.Dialect, ext string, blob []byte, encoding string) (Source, error) {
	spec, ok := dialectSpecs[d]
	if !ok {
		return Source{}, fmt.Errorf("unsupported dialect: %s", d)
	}

	switch spec.input {
	case inputLines:
		lines, err := ReadLines(bytes.NewReader(blob), encoding)
		if err != nil {
			return Source{}, err
		}
		return Source{Lines: lines}, nil
	case inputElements:
		elements, err := ReadElements(bytes.NewReader(blob), "param")
		if err != nil {
			return Source{}, err
		}
		return Source{Elements: elements}, nil
	case inputRows:
		var rows []Row
		var err error
		switch strings.ToLower(ext) {
		case ".html", ".htm":
			rows, err = ReadRowsHTML(blob)
		default:
			rows, err = ReadRowsXLSX(blob)
		}
		if err != nil {
			return Source{}, err
		}
		return Source{Rows: rows}, nil
	default:
		return Source{}, fmt.Errorf("dialect %s has no reader", d)
	}
}

// ReadLines buffers a text export and splits it into lines. Blank lines are
// kept so record numbers match the file.
func ReadLines(r io.Reader, encoding string) ([]string, error) {
	blob, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text, err := DecodeText(blob, encoding)
	if err != nil {
		return nil, err
	}
	return util.SplitLines(text), nil
}

// DecodeText converts a text export to UTF-8. Encoding names follow the
// WHATWG labels ("utf-8", "windows-1251", "cp866", ...).
func DecodeText(blob []byte, encoding string) (string, error) {
	label := strings.ToLower(strings.TrimSpace(encoding))
	if label == "" || label == "utf-8" || label == "utf8" {
		return strings.TrimPrefix(string(blob), "\ufeff"), nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return "", fmt.Errorf("unknown source encoding %q: %w", encoding, err)
	}
	out, err := enc.NewDecoder().Bytes(blob)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", label, err)
	}
	return string(out), nil
}

// ReadElements returns the direct children of the document root named
// childName. The XML declaration's charset is honoured.
func ReadElements(r io.Reader, childName string) ([]Element, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	dec.Strict = false

	out := []Element{}
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 2 && t.Name.Local == childName {
				line, _ := dec.InputPos()
				attrs := make(map[string]string, len(t.Attr))
				for _, a := range t.Attr {
					if _, exists := attrs[a.Name.Local]; !exists {
						attrs[a.Name.Local] = a.Value
					}
				}
				out = append(out, Element{Name: t.Name.Local, Attrs: attrs, Line: line})
			}
		case xml.EndElement:
			depth--
		}
	}
	return out, nil
}

// ReadRowsXLSX reads the first sheet; its first non-empty row is the header.
func ReadRowsXLSX(content []byte) ([]Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	return rowsFromGrid(cells), nil
}

// ReadRowsHTML reads the first table of an HTML export.
func ReadRowsHTML(content []byte) ([]Row, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("no table found")
	}

	grid := [][]string{}
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := []string{}
		tr.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, util.NormalizeSpaces(cell.Text()))
		})
		grid = append(grid, cells)
	})
	return rowsFromGrid(grid), nil
}

func rowsFromGrid(grid [][]string) []Row {
	headerAt := -1
	for i, cells := range grid {
		if !blankCells(cells) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return []Row{}
	}

	headers := make([]string, len(grid[headerAt]))
	for i, h := range grid[headerAt] {
		headers[i] = strings.TrimSpace(h)
	}

	out := make([]Row, 0, len(grid)-headerAt-1)
	for _, cells := range grid[headerAt+1:] {
		row := make(Row, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if _, exists := row[h]; exists {
				continue
			}
			value := ""
			if i < len(cells) {
				value = strings.TrimSpace(cells[i])
			}
			row[h] = value
		}
		out = append(out, row)
	}
	return out
}

func blankCells(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func (r Row) empty() bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
