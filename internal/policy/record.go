package policy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotObject is returned when an incoming record is not a JSON object.
var ErrNotObject = errors.New("record must be a JSON object")

// RawField is one client-supplied field before screening.
type RawField struct {
	Name  string
	Value json.RawMessage
}

// IncomingRecord is a single client-supplied object. Field order follows the
// order in which the client wrote the keys.
type IncomingRecord struct {
	Fields []RawField
}

// UnmarshalJSON decodes a JSON object while preserving key order.
func (r *IncomingRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrNotObject
	}

	fields := make([]RawField, 0, 8)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		fields = append(fields, RawField{Name: key, Value: raw})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	r.Fields = fields
	return nil
}

// Field is a screened name/value pair.
type Field struct {
	Name  string
	Value Value
}

// CleanRecord is a record that satisfies every screening rule.
type CleanRecord struct {
	Fields []Field
}

// Get returns the value stored under name.
func (r CleanRecord) Get(name string) (Value, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Len returns the number of fields in the record.
func (r CleanRecord) Len() int { return len(r.Fields) }
