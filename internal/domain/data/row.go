package data

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Record represents a single table row
// Key = column name, Value = cell value
type Record map[string]Value

// Copy creates a copy of the record to prevent mutation
func (r Record) Copy() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Keys returns the column names in sorted order
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DecodeRecord reads a JSON object of scalar values.
// Integral numbers stay integers, nested objects and arrays are rejected.
func DecodeRecord(rd io.Reader) (Record, error) {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(rd)
	if err := dec.Decode(&raw); err != nil {
		if err == io.EOF {
			return Record{}, nil
		}
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("invalid JSON body: expected an object")
	}

	r := make(Record, len(raw))
	for k, msg := range raw {
		var v Value
		if err := v.UnmarshalJSON(msg); err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		r[k] = v
	}
	return r, nil
}
