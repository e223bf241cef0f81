// Package jsonkey looks up top-level keys in a JSON object held in a
// caller-owned buffer, and builds flat JSON objects into one.
package jsonkey

import (
	"math"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func lookup(buf []byte, key string, want jsoniter.ValueType) (jsoniter.Any, bool) {
	v := json.Get(buf, key)
	if v.ValueType() != want || v.LastError() != nil {
		return nil, false
	}
	return v, true
}

// String returns the string value of key.
func String(buf []byte, key string) (string, bool) {
	v, ok := lookup(buf, key, jsoniter.StringValue)
	if !ok {
		return "", false
	}
	return v.ToString(), true
}

// integer returns the value of key if it is a whole number within the int32
// range. Fractions such as 0.7 are rejected rather than truncated.
func integer(buf []byte, key string) (int64, bool) {
	v, ok := lookup(buf, key, jsoniter.NumberValue)
	if !ok {
		return 0, false
	}
	f := v.ToFloat64()
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxUint32 {
		return 0, false
	}
	return int64(f), true
}

// Uint returns the value of key as a non-negative integer.
func Uint(buf []byte, key string) (uint32, bool) {
	n, ok := integer(buf, key)
	if !ok || n < 0 {
		return 0, false
	}
	return uint32(n), true
}

// Int returns the value of key as an int.
func Int(buf []byte, key string) (int, bool) {
	n, ok := integer(buf, key)
	if !ok || n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}

// Bool returns the value of key as a bool.
func Bool(buf []byte, key string) (bool, bool) {
	v, ok := lookup(buf, key, jsoniter.BoolValue)
	if !ok {
		return false, false
	}
	return v.ToBool(), true
}

// Has reports whether key is present.
func Has(buf []byte, key string) bool {
	return json.Get(buf, key).ValueType() != jsoniter.InvalidValue
}

// Object reports whether buf holds a single valid JSON object.
func Object(buf []byte) bool {
	return json.Valid(buf) && json.Get(buf).ValueType() == jsoniter.ObjectValue
}

// Raw returns the raw bytes of a nested value, for a second lookup.
func Raw(buf []byte, key string) ([]byte, bool) {
	v := json.Get(buf, key)
	switch v.ValueType() {
	case jsoniter.InvalidValue:
		return nil, false
	case jsoniter.StringValue:
		// string Any holds the decoded value
		b, err := json.Marshal(v.ToString())
		return b, err == nil
	}
	return []byte(v.ToString()), true
}

// Keys returns the top-level keys of an object.
func Keys(buf []byte) []string {
	v := json.Get(buf)
	if v.ValueType() != jsoniter.ObjectValue {
		return nil
	}
	return v.Keys()
}

// Writer appends one flat JSON object to a caller-owned buffer.
type Writer struct {
	s     *jsoniter.Stream
	first bool
}

// NewWriter starts an object in buf[:0].
func NewWriter(buf []byte) *Writer {
	s := jsoniter.NewStream(json, nil, 0)
	s.SetBuffer(buf[:0])
	s.WriteObjectStart()
	return &Writer{s: s, first: true}
}

func (w *Writer) field(k string) {
	if !w.first {
		w.s.WriteMore()
	}
	w.first = false
	w.s.WriteObjectField(k)
}

func (w *Writer) Str(k, v string) *Writer {
	w.field(k)
	w.s.WriteString(v)
	return w
}

func (w *Writer) Uint(k string, v uint32) *Writer {
	w.field(k)
	w.s.WriteUint32(v)
	return w
}

func (w *Writer) Int(k string, v int) *Writer {
	w.field(k)
	w.s.WriteInt(v)
	return w
}

func (w *Writer) Bool(k string, v bool) *Writer {
	w.field(k)
	w.s.WriteBool(v)
	return w
}

// Bytes closes the object and returns the encoded bytes. The Writer must
// not be used afterwards.
func (w *Writer) Bytes() []byte {
	w.s.WriteObjectEnd()
	return w.s.Buffer()
}
