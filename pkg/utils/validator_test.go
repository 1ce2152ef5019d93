package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeNote(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "approved", "approved"},
		{"trims", "  approved \n", "approved"},
		{"strips control", "ok\x00\x07 done", "ok done"},
		{"keeps newline inside", "line one\nline two", "line one\nline two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeNote(tt.in))
		})
	}
}

func TestValidateNote(t *testing.T) {
	assert.NoError(t, ValidateNote("short"))
	assert.NoError(t, ValidateNote(strings.Repeat("م", MaxNoteLength)))
	assert.Error(t, ValidateNote(strings.Repeat("a", MaxNoteLength+1)))
}

func TestNoteOrDefault(t *testing.T) {
	assert.Equal(t, "fallback", NoteOrDefault("   ", "fallback"))
	assert.Equal(t, "given", NoteOrDefault(" given ", "fallback"))
}
