package model

import (
	"maps"
	"reflect"
)

// Record is the schema-less key/value result parsed from a generative
// backend's raw text output. A nil Record means the backend produced nothing
// usable; an empty-but-present Record is treated as absent by arbitration,
// matching the truthiness semantics the pipelines were designed around.
type Record map[string]any

// Absent reports whether the record should be treated as missing.
// Both nil and empty records count.
func (r Record) Absent() bool {
	return len(r) == 0
}

// Clone returns a shallow copy of the record. Arbitration never mutates its
// inputs; every arbitrated result is a fresh record.
func (r Record) Clone() Record {
	if r == nil {
		return Record{}
	}
	out := make(Record, len(r)+1)
	maps.Copy(out, r)
	return out
}

// Equal reports deep equality of two records: same keys, same values,
// recursively.
func (r Record) Equal(other Record) bool {
	return reflect.DeepEqual(r, other)
}

// String returns the string value under key, or empty if missing or not a
// string.
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Float returns the numeric value under key coerced to float64, or 0 if the
// key is missing or not numeric. JSON decoding yields float64 for all
// numbers, but int is accepted for values set programmatically.
func (r Record) Float(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// List returns the list value under key, or nil if missing or not a list.
func (r Record) List(key string) []any {
	l, _ := r[key].([]any)
	return l
}
