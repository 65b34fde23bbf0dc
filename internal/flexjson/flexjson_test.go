// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package flexjson

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFirst_StrategyOrder(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{name: "number wins first", raw: `4.5`, want: 4.5},
		{name: "numeric string second", raw: `"4.5"`, want: 4.5},
		{name: "padded numeric string", raw: `" 4.5 "`, want: 4.5},
		{name: "malformed uses default", raw: `"five"`, want: -1},
		{name: "null uses default", raw: `null`, want: -1},
		{name: "absent uses default", raw: ``, want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, First(json.RawMessage(tt.raw), -1, Float))
		})
	}
}

func TestFirstPresent(t *testing.T) {
	v, ok := FirstPresent(json.RawMessage(`7`), Int)
	assert.True(t, ok)
	assert.Equal(t, 7, v)

	_, ok = FirstPresent(json.RawMessage(`"sometime"`), Time)
	assert.False(t, ok)

	_, ok = FirstPresent(nil, Int)
	assert.False(t, ok)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "30 min", First(json.RawMessage(`30`), "N/A", MinuteLabel))
	assert.Equal(t, "half an hour", First(json.RawMessage(`"half an hour"`), "N/A", MinuteLabel))
	assert.Equal(t, "250", First(json.RawMessage(`250`), "N/A", NumberLabel))
	assert.Equal(t, "N/A", First(json.RawMessage(`true`), "N/A", NumberLabel))
}

func TestTime_UnixSeconds(t *testing.T) {
	v, ok := FirstPresent(json.RawMessage(`1714559400`), Time)
	assert.True(t, ok)
	assert.Equal(t, time.Unix(1714559400, 0).UTC(), v)
}

func TestList(t *testing.T) {
	assert.Equal(t, []int{1, 2}, List[int](json.RawMessage(`[1, 2]`)))
	assert.Equal(t, []int{}, List[int](json.RawMessage(`"nope"`)))
	assert.Equal(t, []int{}, List[int](json.RawMessage(`null`)))
	assert.Equal(t, []int{}, List[int](nil))
}
