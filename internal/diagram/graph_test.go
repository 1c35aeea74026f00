package diagram

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidGraph(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{
			name: "single task node",
			raw:  `[{"id":"1","type":"task","data":{"label":"x"}}]`,
			want: true,
		},
		{
			name: "node with children",
			raw:  `[{"id":"1","type":"gateway","data":{"label":"check"},"children":["2","3"]}]`,
			want: true,
		},
		{
			name: "later nodes unchecked",
			raw:  `[{"id":"1","type":"event","data":{"label":"start"}},{"id":"","type":""}]`,
			want: true,
		},
		{
			name: "empty payload",
			raw:  ``,
			want: false,
		},
		{
			name: "null",
			raw:  `null`,
			want: false,
		},
		{
			name: "empty array",
			raw:  `[]`,
			want: false,
		},
		{
			name: "object instead of array",
			raw:  `{"id":"1","type":"task","data":{}}`,
			want: false,
		},
		{
			name: "first node missing id",
			raw:  `[{"type":"task","data":{"label":"x"}}]`,
			want: false,
		},
		{
			name: "first node missing type",
			raw:  `[{"id":"1","data":{"label":"x"}}]`,
			want: false,
		},
		{
			name: "first node missing data",
			raw:  `[{"id":"1","type":"task"}]`,
			want: false,
		},
		{
			name: "first node null data",
			raw:  `[{"id":"1","type":"task","data":null}]`,
			want: false,
		},
		{
			name: "not json at all",
			raw:  `not json`,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidGraph(json.RawMessage(tt.raw)))
		})
	}
}

func TestMessageHasData(t *testing.T) {
	t.Run("with payload", func(t *testing.T) {
		m := Message{Data: json.RawMessage(`[{"id":"1"}]`)}
		assert.True(t, m.HasData())
	})

	t.Run("nil payload", func(t *testing.T) {
		assert.False(t, Message{}.HasData())
	})

	t.Run("json null payload", func(t *testing.T) {
		m := Message{Data: json.RawMessage(`null`)}
		assert.False(t, m.HasData())
	})
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAssistant.Valid())
	assert.False(t, Role("system").Valid())
	assert.False(t, Role("").Valid())
}
