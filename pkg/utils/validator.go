package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)

// MaxNoteLength bounds free-text notes sent with status changes
const MaxNoteLength = 1000

// SanitizeNote strips control characters (newlines and tabs survive) and
// surrounding whitespace from user supplied note text.
func SanitizeNote(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}

// ValidateNote checks a sanitized note against MaxNoteLength
func ValidateNote(note string) error {
	if n := len([]rune(note)); n > MaxNoteLength {
		return fmt.Errorf("note exceeds %d characters: %d", MaxNoteLength, n)
	}
	return nil
}

// NoteOrDefault returns the sanitized note, or fallback when it is empty
func NoteOrDefault(note, fallback string) string {
	if s := SanitizeNote(note); s != "" {
		return s
	}
	return fallback
}
