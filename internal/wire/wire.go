// Package wire is the single deserialization boundary between the upstream
// TransSync REST API and the console's typed domain model.
//
// Upstream responses have historically named the same field several ways
// (idVehiculo, id_vehiculo, vehiculoId, ...). Every lookup here walks an
// ordered candidate list, so the rest of the code base only ever sees
// domain types. Decoding a single record never fails: missing or malformed
// fields become zero values.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is one upstream JSON object, decoded with json.Number preserved.
type Record map[string]any

// envelopeKeys are the wrapper keys the upstream uses around payloads.
var envelopeKeys = []string{"data", "result", "items"}

// DecodeList parses a list response. Both a bare array and an envelope
// object ({"data": [...]}) are accepted. Non-object elements are skipped.
func DecodeList(body []byte) ([]Record, error) {
	v, err := decode(body)
	if err != nil {
		return nil, fmt.Errorf("wire.DecodeList: %w", err)
	}
	if obj, ok := v.(map[string]any); ok {
		v = unwrap(obj)
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("wire.DecodeList: expected array, got %T", v)
	}
	out := make([]Record, 0, len(arr))
	for _, item := range arr {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, Record(obj))
		}
	}
	return out, nil
}

// DecodeOne parses a single-object response, unwrapping an envelope when present.
func DecodeOne(body []byte) (Record, error) {
	v, err := decode(body)
	if err != nil {
		return nil, fmt.Errorf("wire.DecodeOne: %w", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("wire.DecodeOne: expected object, got %T", v)
	}
	if inner, ok := unwrap(obj).(map[string]any); ok {
		return Record(inner), nil
	}
	return Record(obj), nil
}

func decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// unwrap returns the first envelope payload found in obj, or obj itself.
func unwrap(obj map[string]any) any {
	for _, k := range envelopeKeys {
		if inner, ok := obj[k]; ok {
			switch inner.(type) {
			case []any, map[string]any:
				return inner
			}
		}
	}
	return obj
}

// String returns the first candidate field holding a non-empty value,
// stringified and trimmed. Numbers are rendered without exponent.
func (r Record) String(candidates ...string) string {
	for _, key := range candidates {
		v, ok := r[key]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case json.Number:
			s = t.String()
		case float64:
			s = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			s = strconv.FormatBool(t)
		default:
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// ID returns the first candidate field that coerces to a positive integer,
// or 0 when none does. "7", 7, 7.0 and "7.0" all yield 7.
func (r Record) ID(candidates ...string) int64 {
	for _, key := range candidates {
		if id := coerceID(r[key]); id > 0 {
			return id
		}
	}
	return 0
}

// Float returns the first candidate field that parses as a finite number.
func (r Record) Float(candidates ...string) (float64, bool) {
	for _, key := range candidates {
		var (
			f   float64
			err error
		)
		switch t := r[key].(type) {
		case json.Number:
			f, err = t.Float64()
		case string:
			f, err = strconv.ParseFloat(strings.TrimSpace(t), 64)
		case float64:
			f = t
		default:
			continue
		}
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, true
		}
	}
	return 0, false
}

// Object returns the first candidate field holding a nested object.
func (r Record) Object(candidates ...string) Record {
	for _, key := range candidates {
		if obj, ok := r[key].(map[string]any); ok {
			return Record(obj)
		}
	}
	return nil
}

func coerceID(v any) int64 {
	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = strings.TrimSpace(t)
	case float64:
		return floatID(t)
	case int:
		return int64(t)
	case int64:
		return t
	default:
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return floatID(f)
	}
	return 0
}

func floatID(f float64) int64 {
	if f != math.Trunc(f) || f <= 0 || f > math.MaxInt64 {
		return 0
	}
	return int64(f)
}
