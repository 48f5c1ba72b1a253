package pipeline

import (
	"path/filepath"
	"strings"

	"paramsheet/internal"
)

type DetectResult struct {
	Dialect internal.Dialect
	Score   float64
	Reason  string
}

func (r DetectResult) OK() bool {
	return r.Dialect != ""
}

const detectThreshold = 0.45

// DetectDialect guesses the dialect of a file from its extension and the
// first bytes of its content. A result with an empty Dialect means no guess
// passed the threshold.
func DetectDialect(path string, head []byte) DetectResult {
	ext := strings.ToLower(filepath.Ext(path))
	text := string(head)

	scores := map[internal.Dialect]float64{}
	reasons := map[internal.Dialect]string{}
	add := func(d internal.Dialect, score float64, reason string) {
		scores[d] += score
		if reasons[d] == "" {
			reasons[d] = reason
		} else {
			reasons[d] += "+" + reason
		}
	}

	switch ext {
	case ".eds", ".ini", ".dcf":
		add(internal.DialectINI, 0.5, "ext")
	case ".xml":
		add(internal.DialectAttrSet, 0.5, "ext")
	case ".xlsx", ".xlsm", ".html", ".htm":
		add(internal.DialectTabular, 0.5, "ext")
	case ".cpp", ".cc", ".h", ".hpp":
		add(internal.DialectSource, 0.3, "ext")
	case ".c", ".txt", ".csv":
		add(internal.DialectMacro, 0.2, "ext")
	}

	if strings.Contains(text, "static_cast") {
		add(internal.DialectSource, 0.2, "static_cast")
	}
	if strings.Contains(text, "CO_KEY(") {
		add(internal.DialectSource, 0.3, "co_key")
	}
	if strings.Contains(text, "OD_") {
		add(internal.DialectMacro, 0.5, "od_marker")
	}
	if hasObjectSection(text) {
		add(internal.DialectINI, 0.4, "section")
	}
	if strings.Contains(text, "<param ") || strings.Contains(text, "co_index") {
		add(internal.DialectAttrSet, 0.4, "param_element")
	}
	if strings.Contains(strings.ToLower(text), "<table") {
		add(internal.DialectTabular, 0.3, "table")
	}

	best := DetectResult{Reason: "rules_negative"}
	for _, d := range internal.Dialects {
		score := scores[d]
		if score > 1 {
			score = 1
		}
		if score > best.Score {
			best = DetectResult{Dialect: d, Score: score, Reason: reasons[d]}
		}
	}
	if best.Score < detectThreshold {
		return DetectResult{Score: best.Score, Reason: "rules_negative"}
	}
	return best
}

func hasObjectSection(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if iniObjectSection.MatchString(strings.TrimSpace(line)) {
			return true
		}
	}
	return false
}
