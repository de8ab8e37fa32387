package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"-Users-alice-Documents-myapp", "myapp"},
		{"-Users-alice-Documents-my-app", "my-app"},
		{"-Users-alice-dev-scour", "dev-scour"},
		{"-home-bob-project", "project"},
		{"-home-bob", "~home"},
		{"-Users-alice", "~home"},
		{"-Users-alice-Documents", "~Documents"},
		{"-Users-alice-Desktop", "~Desktop"},
		{"standalone", "standalone"},
		{"-srv-data-app", "srv-data-app"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.in))
		})
	}
}

func TestCursorDisplayName(t *testing.T) {
	assert.Equal(t, "cursor:proj", CursorDisplayName("/Users/alice/proj"))
	assert.Equal(t, "cursor:unknown", CursorDisplayName("<unknown-cwd>"))
	assert.Equal(t, "cursor:unknown", CursorDisplayName(""))
}
