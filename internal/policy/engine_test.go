package policy

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBatch(t *testing.T, body string) []IncomingRecord {
	t.Helper()
	var records []IncomingRecord
	require.NoError(t, json.Unmarshal([]byte(body), &records))
	return records
}

func fieldNames(r CleanRecord) []string {
	names := make([]string, 0, r.Len())
	for _, f := range r.Fields {
		names = append(names, f.Name)
	}
	return names
}

func TestIncomingRecordPreservesKeyOrder(t *testing.T) {
	records := decodeBatch(t, `[{"z": 1, "a": "x", "m": null}]`)
	require.Len(t, records, 1)

	names := make([]string, 0, 3)
	for _, f := range records[0].Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"z", "a", "m"}, names)
}

func TestIncomingRecordRejectsNonObjects(t *testing.T) {
	for _, body := range []string{`[1]`, `["x"]`, `[[1,2]]`, `[null]`} {
		var records []IncomingRecord
		err := json.Unmarshal([]byte(body), &records)
		assert.Error(t, err, body)
	}
}

func TestScreenHeterogeneousBatch(t *testing.T) {
	engine := NewEngine(DefaultRules())
	records := decodeBatch(t, `[
		{"name": "Alice", "age": 30, "active": true},
		{"sku": "A-1", "price": 9.5, "note": null},
		{"tags": ["a", "b"], "meta": {"k": 1}}
	]`)

	res := engine.Screen(records)

	require.Len(t, res.Records, 2)
	assert.Equal(t, []string{"name", "age", "active"}, fieldNames(res.Records[0]))
	assert.Equal(t, []string{"sku", "price", "note"}, fieldNames(res.Records[1]))

	age, _ := res.Records[0].Get("age")
	n, ok := age.Number()
	assert.True(t, ok)
	assert.Equal(t, 30.0, n)

	note, _ := res.Records[1].Get("note")
	assert.Equal(t, KindNull, note.Kind())

	assert.Equal(t, Report{
		Received:       3,
		Accepted:       2,
		DroppedRecords: 1,
		DroppedFields:  2,
	}, res.Report)
}

func TestScreenNeverGrowsBatch(t *testing.T) {
	engine := NewEngine(DefaultRules())
	records := decodeBatch(t, `[{}, {"": 1}, {"ok": 1}, {"  ": "x"}]`)

	res := engine.Screen(records)

	assert.LessOrEqual(t, len(res.Records), len(records))
	require.Len(t, res.Records, 1)
	assert.Equal(t, 3, res.Report.DroppedRecords)
}

func TestScreenFieldNames(t *testing.T) {
	engine := NewEngine(Rules{MaxFieldNameLength: 5})
	records := decodeBatch(t, `[{"  na\u0000me ": 1, "abcdefgh": 2}]`)

	res := engine.Screen(records)

	require.Len(t, res.Records, 1)
	assert.Equal(t, []string{"name", "abcde"}, fieldNames(res.Records[0]))
}

func TestScreenDuplicateNamesKeepLastValue(t *testing.T) {
	engine := NewEngine(DefaultRules())
	records := decodeBatch(t, `[{"a": 1, "b": 2, " a": 3}]`)

	res := engine.Screen(records)

	require.Len(t, res.Records, 1)
	assert.Equal(t, []string{"a", "b"}, fieldNames(res.Records[0]))
	a, _ := res.Records[0].Get("a")
	n, _ := a.Number()
	assert.Equal(t, 3.0, n)
	assert.Equal(t, 1, res.Report.DroppedFields)
}

func TestScreenStrings(t *testing.T) {
	engine := NewEngine(DefaultRules())

	tests := []struct {
		name        string
		in          string
		want        string
		neutralized bool
	}{
		{"plain", "hello", "hello", false},
		{"trimmed", "  hi  ", "hi", false},
		{"control stripped", "a\u0007b", "ab", false},
		{"layout kept", "a\tb\nc", "a\tb\nc", false},
		{"formula", "=SUM(A1:A9)", "'=SUM(A1:A9)", true},
		{"plus formula", "+cmd", "'+cmd", true},
		{"at formula", "@import", "'@import", true},
		{"minus formula", "-2+3", "'-2+3", true},
		{"negative number text", "-5", "-5", false},
		{"signed decimal text", "+1.5e3", "+1.5e3", false},
		{"infinity text", "-inf", "'-inf", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := json.Marshal(map[string]string{"v": tc.in})
			require.NoError(t, err)
			records := decodeBatch(t, "["+string(raw)+"]")

			res := engine.Screen(records)

			require.Len(t, res.Records, 1)
			v, _ := res.Records[0].Get("v")
			s, ok := v.Str()
			require.True(t, ok)
			assert.Equal(t, tc.want, s)
			if tc.neutralized {
				assert.Equal(t, 1, res.Report.Neutralized)
			} else {
				assert.Zero(t, res.Report.Neutralized)
			}
		})
	}
}

func TestScreenTruncatesLongCells(t *testing.T) {
	engine := NewEngine(Rules{MaxCellLength: 4})
	records := decodeBatch(t, `[{"v": "héllo wörld"}]`)

	res := engine.Screen(records)

	v, _ := res.Records[0].Get("v")
	s, _ := v.Str()
	assert.Equal(t, "héll", s)
	assert.Equal(t, 1, res.Report.Truncated)
}

func TestScreenOversizedNumberKeptAsText(t *testing.T) {
	engine := NewEngine(DefaultRules())
	literal := "1" + strings.Repeat("0", 400)
	records := decodeBatch(t, `[{"big": `+literal+`}]`)

	res := engine.Screen(records)

	v, _ := res.Records[0].Get("big")
	s, ok := v.Str()
	require.True(t, ok)
	assert.Equal(t, literal, s)
}

func TestScreenCapsFieldsPerRecord(t *testing.T) {
	engine := NewEngine(Rules{MaxFieldsPerRecord: 2})
	records := decodeBatch(t, `[{"a": 1, "b": 2, "c": 3, "d": 4}]`)

	res := engine.Screen(records)

	assert.Equal(t, []string{"a", "b"}, fieldNames(res.Records[0]))
	assert.Equal(t, 2, res.Report.DroppedFields)
}

func TestNewEngineAppliesDefaults(t *testing.T) {
	assert.Equal(t, DefaultRules(), NewEngine(Rules{}).Rules())
}

func TestValueInterface(t *testing.T) {
	assert.Nil(t, NullValue().Interface())
	assert.Equal(t, "x", StringValue("x").Interface())
	assert.Equal(t, 1.5, NumberValue(1.5).Interface())
	assert.Equal(t, true, BoolValue(true).Interface())
	assert.Equal(t, "bool", KindBool.String())
}
