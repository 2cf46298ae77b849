package policy

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Default screening limits.
const (
	DefaultMaxFieldNameLength = 255
	// DefaultMaxCellLength is the largest text a spreadsheet cell holds.
	DefaultMaxCellLength      = 32767
	DefaultMaxFieldsPerRecord = 1024
)

// formulaPrefixes start a formula when a cell is opened by a spreadsheet
// program or re-exported as CSV.
const formulaPrefixes = "=+-@"

// Rules configures the Engine.
type Rules struct {
	MaxFieldNameLength int
	MaxCellLength      int
	MaxFieldsPerRecord int
}

// DefaultRules returns the limits used in production.
func DefaultRules() Rules {
	return Rules{
		MaxFieldNameLength: DefaultMaxFieldNameLength,
		MaxCellLength:      DefaultMaxCellLength,
		MaxFieldsPerRecord: DefaultMaxFieldsPerRecord,
	}
}

// Report summarises what screening changed.
type Report struct {
	Received       int `json:"received"`
	Accepted       int `json:"accepted"`
	DroppedRecords int `json:"dropped_records"`
	DroppedFields  int `json:"dropped_fields"`
	Neutralized    int `json:"neutralized"`
	Truncated      int `json:"truncated"`
}

// Result is the output of Screen.
type Result struct {
	Records []CleanRecord
	Report  Report
}

// Engine applies the screening rules. It holds no mutable state and is safe
// for concurrent use.
type Engine struct {
	rules Rules
}

// NewEngine creates an Engine; non-positive limits fall back to the defaults.
func NewEngine(rules Rules) *Engine {
	def := DefaultRules()
	if rules.MaxFieldNameLength <= 0 {
		rules.MaxFieldNameLength = def.MaxFieldNameLength
	}
	if rules.MaxCellLength <= 0 {
		rules.MaxCellLength = def.MaxCellLength
	}
	if rules.MaxFieldsPerRecord <= 0 {
		rules.MaxFieldsPerRecord = def.MaxFieldsPerRecord
	}
	return &Engine{rules: rules}
}

// Rules returns the effective limits.
func (e *Engine) Rules() Rules { return e.rules }

// Screen cleans records. The result never holds more records than the input
// and preserves the input order of the records it keeps.
func (e *Engine) Screen(records []IncomingRecord) Result {
	res := Result{
		Records: make([]CleanRecord, 0, len(records)),
		Report:  Report{Received: len(records)},
	}

	for _, rec := range records {
		clean := e.screenRecord(rec, &res.Report)
		if clean.Len() == 0 {
			res.Report.DroppedRecords++
			continue
		}
		res.Records = append(res.Records, clean)
	}

	res.Report.Accepted = len(res.Records)
	return res
}

func (e *Engine) screenRecord(rec IncomingRecord, report *Report) CleanRecord {
	fields := make([]Field, 0, len(rec.Fields))
	index := make(map[string]int, len(rec.Fields))

	for _, raw := range rec.Fields {
		name := e.cleanName(raw.Name)
		if name == "" {
			report.DroppedFields++
			continue
		}

		value, ok := e.cleanValue(raw.Value, report)
		if !ok {
			report.DroppedFields++
			continue
		}

		if i, seen := index[name]; seen {
			// Duplicate key: the later value wins, the first position stays.
			fields[i].Value = value
			report.DroppedFields++
			continue
		}

		if len(fields) >= e.rules.MaxFieldsPerRecord {
			report.DroppedFields++
			continue
		}

		index[name] = len(fields)
		fields = append(fields, Field{Name: name, Value: value})
	}

	return CleanRecord{Fields: fields}
}

func (e *Engine) cleanName(name string) string {
	name = strings.TrimSpace(stripControl(name, false))
	name, _ = truncateRunes(name, e.rules.MaxFieldNameLength)
	return name
}

func (e *Engine) cleanValue(raw json.RawMessage, report *Report) (Value, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Value{}, false
	}

	switch trimmed[0] {
	case 'n':
		return NullValue(), true
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return Value{}, false
		}
		return BoolValue(b), true
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Value{}, false
		}
		return e.cleanString(s, report), true
	case '{', '[':
		return Value{}, false
	default:
		return e.cleanNumber(string(trimmed), report)
	}
}

func (e *Engine) cleanNumber(literal string, report *Report) (Value, bool) {
	f, err := strconv.ParseFloat(literal, 64)
	if err == nil {
		return NumberValue(f), true
	}
	if errors.Is(err, strconv.ErrRange) {
		// Keep the exact digits rather than an infinity.
		return e.cleanString(literal, report), true
	}
	return Value{}, false
}

func (e *Engine) cleanString(s string, report *Report) Value {
	s = strings.TrimSpace(stripControl(s, true))

	if s != "" && strings.ContainsRune(formulaPrefixes, rune(s[0])) && !isNumeric(s) {
		s = "'" + s
		report.Neutralized++
	}

	if out, cut := truncateRunes(s, e.rules.MaxCellLength); cut {
		s = out
		report.Truncated++
	}

	return StringValue(s)
}

// numericText matches plain decimal numbers such as "-5", "+1.5" or "2e10".
var numericText = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

func isNumeric(s string) bool {
	return numericText.MatchString(s)
}

// stripControl removes control characters; tab and newline survive when
// keepLayout is set.
func stripControl(s string, keepLayout bool) string {
	return strings.Map(func(r rune) rune {
		if keepLayout && (r == '\t' || r == '\n') {
			return r
		}
		if unicode.IsControl(r) || r == utf8.RuneError {
			return -1
		}
		return r
	}, s)
}

func truncateRunes(s string, limit int) (string, bool) {
	if utf8.RuneCountInString(s) <= limit {
		return s, false
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i], true
		}
		n++
	}
	return s, false
}
