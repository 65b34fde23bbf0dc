// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

// Package flexjson decodes JSON values that arrive in more than one shape.
// Backend payloads and Firestore documents are not consistent about numbers
// versus numeric strings or about timestamp formats, so each field class has
// an ordered list of decode strategies that are tried until one succeeds.
package flexjson

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Strategy is one interpretation of a raw JSON value. Decode returns false
// when the value does not match this interpretation, letting the next
// strategy in the list run.
type Strategy[T any] struct {
	// Name identifies the interpretation, for tests and logging.
	Name string

	// Decode attempts to produce a value from the raw JSON.
	Decode func(raw json.RawMessage) (T, bool)
}

var nullBytes = []byte("null")

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, nullBytes)
}

// First applies strategies in order and returns the first successful value,
// or def when the value is absent, null, or matches no strategy.
func First[T any](raw json.RawMessage, def T, strategies []Strategy[T]) T {
	if v, ok := FirstPresent(raw, strategies); ok {
		return v
	}
	return def
}

// FirstPresent is First without a default, reporting whether any strategy
// succeeded. Used for fields that stay absent rather than defaulting.
func FirstPresent[T any](raw json.RawMessage, strategies []Strategy[T]) (T, bool) {
	var zero T
	if !present(raw) {
		return zero, false
	}
	for _, s := range strategies {
		if v, ok := s.Decode(raw); ok {
			return v, true
		}
	}
	return zero, false
}

// List decodes a JSON array of T. An absent, null, or malformed array decodes
// to an empty slice, never nil and never an error.
func List[T any](raw json.RawMessage) []T {
	if !present(raw) {
		return []T{}
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return []T{}
	}
	return out
}

func decodeString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func decodeInt(raw json.RawMessage) (int, bool) {
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	return n, true
}

// String accepts only a JSON string.
var String = []Strategy[string]{
	{Name: "string", Decode: decodeString},
}

// Float accepts a JSON number or a numeric string.
var Float = []Strategy[float64]{
	{Name: "number", Decode: func(raw json.RawMessage) (float64, bool) {
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return 0, false
		}
		return f, true
	}},
	{Name: "numeric string", Decode: func(raw json.RawMessage) (float64, bool) {
		s, ok := decodeString(raw)
		if !ok {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}},
}

// Int accepts a JSON integer or a numeric string.
var Int = []Strategy[int]{
	{Name: "integer", Decode: decodeInt},
	{Name: "numeric string", Decode: func(raw json.RawMessage) (int, bool) {
		s, ok := decodeString(raw)
		if !ok {
			return 0, false
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, false
		}
		return n, true
	}},
}

// MinuteLabel accepts a free-text duration label or an integer minute count,
// which is coerced to "<n> min".
var MinuteLabel = []Strategy[string]{
	{Name: "string", Decode: decodeString},
	{Name: "integer minutes", Decode: func(raw json.RawMessage) (string, bool) {
		n, ok := decodeInt(raw)
		if !ok {
			return "", false
		}
		return strconv.Itoa(n) + " min", true
	}},
}

// NumberLabel accepts a free-text label or an integer, which is coerced to
// its decimal text.
var NumberLabel = []Strategy[string]{
	{Name: "string", Decode: decodeString},
	{Name: "integer", Decode: func(raw json.RawMessage) (string, bool) {
		n, ok := decodeInt(raw)
		if !ok {
			return "", false
		}
		return strconv.Itoa(n), true
	}},
}

// Time accepts RFC 3339 with fractional seconds, RFC 3339 without, or a Unix
// seconds number, tried in that order.
var Time = []Strategy[time.Time]{
	{Name: "RFC 3339 with fractional seconds", Decode: func(raw json.RawMessage) (time.Time, bool) {
		s, ok := decodeString(raw)
		if !ok {
			return time.Time{}, false
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}},
	{Name: "RFC 3339", Decode: func(raw json.RawMessage) (time.Time, bool) {
		s, ok := decodeString(raw)
		if !ok {
			return time.Time{}, false
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}},
	{Name: "unix seconds", Decode: func(raw json.RawMessage) (time.Time, bool) {
		var sec int64
		if err := json.Unmarshal(raw, &sec); err != nil {
			return time.Time{}, false
		}
		return time.Unix(sec, 0).UTC(), true
	}},
}
