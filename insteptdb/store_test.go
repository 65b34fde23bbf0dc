// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package insteptdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkIDs(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
		want [][]string
	}{
		{
			name: "empty",
			ids:  nil,
			want: nil,
		},
		{
			name: "under the bound",
			ids:  []string{"a", "b"},
			want: [][]string{{"a", "b"}},
		},
		{
			name: "exactly the bound",
			ids:  []string{"a", "b", "c"},
			want: [][]string{{"a", "b", "c"}},
		},
		{
			name: "over the bound",
			ids:  []string{"a", "b", "c", "d", "e"},
			want: [][]string{{"a", "b", "c"}, {"d", "e"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, chunkIDs(tt.ids, 3))
		})
	}
}
