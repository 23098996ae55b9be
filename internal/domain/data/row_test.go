package data

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestFromAnyNormalizesDriverValues(t *testing.T) {
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		in   interface{}
		kind Kind
		want interface{}
	}{
		{nil, KindNull, nil},
		{"alice", KindString, "alice"},
		{[]byte("bytes"), KindString, "bytes"},
		{int32(7), KindInt, int64(7)},
		{uint8(3), KindInt, int64(3)},
		{float32(1.5), KindFloat, float64(1.5)},
		{true, KindBool, true},
		{json.Number("42"), KindInt, int64(42)},
		{json.Number("4.2"), KindFloat, 4.2},
		{ts, KindString, "2024-01-01T12:00:00Z"},
	}

	for _, tt := range tests {
		v := FromAny(tt.in)
		if v.Kind() != tt.kind {
			t.Errorf("FromAny(%v): kind = %s, want %s", tt.in, v.Kind(), tt.kind)
		}
		if v.Interface() != tt.want {
			t.Errorf("FromAny(%v) = %v, want %v", tt.in, v.Interface(), tt.want)
		}
	}
}

func TestDecodeRecordKeepsIntegers(t *testing.T) {
	r, err := DecodeRecord(strings.NewReader(`{"id": 5, "price": 9.5, "name": "pen", "active": true, "note": null}`))
	if err != nil {
		t.Fatalf("DecodeRecord failed: %v", err)
	}

	if i, ok := r["id"].Int(); !ok || i != 5 {
		t.Errorf("Expected int 5, got %v (%s)", r["id"], r["id"].Kind())
	}
	if f, ok := r["price"].Float(); !ok || f != 9.5 {
		t.Errorf("Expected float 9.5, got %v", r["price"])
	}
	if !r["note"].IsNull() {
		t.Errorf("Expected null note, got %v", r["note"])
	}
	if b, ok := r["active"].Bool(); !ok || !b {
		t.Errorf("Expected true, got %v", r["active"])
	}
}

func TestDecodeRecordRejectsNested(t *testing.T) {
	if _, err := DecodeRecord(strings.NewReader(`{"tags": ["a"]}`)); err == nil {
		t.Error("Expected error for array value")
	}
	if _, err := DecodeRecord(strings.NewReader(`[1, 2]`)); err == nil {
		t.Error("Expected error for non-object body")
	}
	if _, err := DecodeRecord(strings.NewReader(`null`)); err == nil {
		t.Error("Expected error for null body")
	}
}

func TestDecodeRecordEmptyBody(t *testing.T) {
	r, err := DecodeRecord(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Expected empty body to decode, got %v", err)
	}
	if len(r) != 0 {
		t.Errorf("Expected empty record, got %v", r)
	}
}

func TestRecordJSONRoundTrip(t *testing.T) {
	r := Record{"id": Int(1), "name": String("Alice"), "score": Float(2.5), "deleted": Null()}

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(b) != `{"deleted":null,"id":1,"name":"Alice","score":2.5}` {
		t.Errorf("Unexpected JSON: %s", b)
	}

	back, err := DecodeRecord(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("DecodeRecord failed: %v", err)
	}
	for k, v := range r {
		if !back[k].Equal(v) {
			t.Errorf("Field %s: got %v, want %v", k, back[k], v)
		}
	}
}

func TestRecordCopyIsIndependent(t *testing.T) {
	r := Record{"name": String("Alice")}
	c := r.Copy()
	c["name"] = String("Bob")

	if s, _ := r["name"].Str(); s != "Alice" {
		t.Errorf("Original mutated: %v", r["name"])
	}
}
