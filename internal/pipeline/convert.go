package pipeline

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"

	"paramsheet/internal"
	"paramsheet/internal/config"
	"paramsheet/internal/metrics"
)

// fields is what an extractor recovers from one raw record before the type
// table and the scale rule run.
type fields struct {
	rec       internal.Record
	typeToken string
}

// audit collects the non-fatal events of one run.
type audit struct {
	input     int
	skipped   int
	fallbacks map[string]int
	titles    map[string]string
}

func newAudit() *audit {
	return &audit{fallbacks: map[string]int{}, titles: map[string]string{}}
}

func (a *audit) skip() {
	a.skipped++
}

func (a *audit) fallback(token string) {
	a.fallbacks[strings.TrimSpace(token)]++
}

// title remembers a readable label for a group key; the first one wins.
func (a *audit) title(group, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if _, ok := a.titles[group]; !ok {
		a.titles[group] = text
	}
}

// describeHeaders copies group titles onto the matching synthetic headers.
func (a *audit) describeHeaders(records []internal.Record) {
	if len(a.titles) == 0 {
		return
	}
	for i, r := range records {
		if !r.IsHeader() || r.Description != "" {
			continue
		}
		if text, ok := a.titles[strings.TrimPrefix(r.Name, internal.GroupPrefix)]; ok {
			records[i].Description = text
		}
	}
}

type dialectSpec struct {
	input     inputKind
	extract   func(c *Converter, src Source, a *audit) ([]internal.Record, error)
	flattener Flattener
}

var dialectSpecs = map[internal.Dialect]dialectSpec{
	internal.DialectMacro:   {input: inputLines, extract: (*Converter).extractMacro, flattener: FlatGroup{}},
	internal.DialectINI:     {input: inputLines, extract: (*Converter).extractINI, flattener: Passthrough{}},
	internal.DialectAttrSet: {input: inputElements, extract: (*Converter).extractAttrSet, flattener: FlatGroup{}},
	internal.DialectTabular: {input: inputRows, extract: (*Converter).extractTabular, flattener: Hierarchy{}},
	internal.DialectSource:  {input: inputLines, extract: (*Converter).extractSource, flattener: Passthrough{}},
}

func FlattenerFor(d internal.Dialect) (Flattener, bool) {
	spec, ok := dialectSpecs[d]
	return spec.flattener, ok
}

type Converter struct {
	types   *TypeNormalizer
	scale   ScaleResolver
	columns []tabularField
	log     *logrus.Logger
	metrics *metrics.Recorder
}

func NewConverter(profile config.Profile, log *logrus.Logger, rec *metrics.Recorder) *Converter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Converter{
		types:   NewTypeNormalizer(profile),
		scale:   NewScaleResolver(profile.Scale),
		columns: tabularFields(profile.Columns),
		log:     log,
		metrics: rec,
	}
}

type Result struct {
	Records []internal.Record
	Summary internal.RunSummary
}

// Convert runs one dialect over a buffered source. A fatal error returns no
// records at all.
func (c *Converter) Convert(d internal.Dialect, src Source) (Result, error) {
	spec, ok := dialectSpecs[d]
	if !ok {
		return Result{}, fmt.Errorf("unsupported dialect: %s", d)
	}

	a := newAudit()
	records, err := spec.extract(c, src, a)
	if err != nil {
		c.metrics.ObserveFailure(d)
		return Result{}, fmt.Errorf("convert %s: %w", d, err)
	}

	out, stats := spec.flattener.Flatten(records)
	a.describeHeaders(out)
	summary := internal.RunSummary{
		Dialect:       d,
		Input:         a.input,
		Extracted:     len(records),
		Skipped:       a.skipped,
		Headers:       stats.Headers,
		Dropped:       stats.Dropped,
		Output:        len(out),
		TypeFallbacks: a.fallbacks,
	}
	c.report(summary)
	return Result{Records: out, Summary: summary}, nil
}

func (c *Converter) canonicalType(d internal.Dialect, token string, a *audit) internal.CanonicalType {
	t, known := c.types.Normalize(d, token)
	if !known {
		a.fallback(token)
	}
	return t
}

func (c *Converter) report(s internal.RunSummary) {
	c.metrics.ObserveRun(s)

	c.log.WithFields(logrus.Fields{
		"dialect":   s.Dialect,
		"input":     s.Input,
		"extracted": s.Extracted,
		"skipped":   s.Skipped,
		"headers":   s.Headers,
		"dropped":   s.Dropped,
		"output":    s.Output,
	}).Info("conversion done")

	if n := s.FallbackCount(); n > 0 {
		c.log.WithFields(logrus.Fields{
			"dialect": s.Dialect,
			"count":   n,
			"tokens":  FormatFallbacks(s.TypeFallbacks),
		}).Warn("unrecognized type tokens defaulted to SIGNED32")
	}
}

// FormatFallbacks renders the per-token histogram as "TOKEN=n" pairs in
// token order.
func FormatFallbacks(fallbacks map[string]int) string {
	parts := make([]string, 0, len(fallbacks))
	tokens := make([]string, 0, len(fallbacks))
	for token := range fallbacks {
		tokens = append(tokens, token)
	}
	slices.Sort(tokens)
	for _, token := range tokens {
		label := token
		if label == "" {
			label = "<empty>"
		}
		parts = append(parts, fmt.Sprintf("%s=%d", label, fallbacks[token]))
	}
	return strings.Join(parts, " ")
}
