package handlers

import (
	"strings"
	"unicode"
)

// playModes is the device's fixed play mode vocabulary.
var playModes = []string{
	"NORMAL",
	"REPEAT_ONE",
	"REPEAT_ALL",
	"SHUFFLE",
	"SHUFFLE_NOREPEAT",
	"SHUFFLE_REPEAT_ONE",
}

// NormalizePlayMode converts user input to the device's canonical form:
// "repeat all", "RepeatAll" and "repeat_all" all become "REPEAT_ALL".
func NormalizePlayMode(input string) string {
	var words []string
	var current []rune
	prevLower := false
	flush := func() {
		if len(current) > 0 {
			words = append(words, strings.ToUpper(string(current)))
			current = nil
		}
	}
	for _, r := range input {
		switch {
		case r == ' ' || r == '_' || r == '-':
			flush()
			prevLower = false
		case unicode.IsUpper(r):
			if prevLower {
				flush()
			}
			current = append(current, r)
			prevLower = false
		default:
			current = append(current, r)
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		}
	}
	flush()
	return strings.Join(words, "_")
}

func IsValidPlayMode(mode string) bool {
	for _, known := range playModes {
		if mode == known {
			return true
		}
	}
	return false
}

// humanPlayMode renders a canonical mode for chat: lowercase, spaces.
func humanPlayMode(mode string) string {
	return strings.ToLower(strings.ReplaceAll(mode, "_", " "))
}

// playModeList renders every recognized mode for the rejection reply.
func playModeList() string {
	parts := make([]string, 0, len(playModes))
	for _, mode := range playModes {
		parts = append(parts, "*"+humanPlayMode(mode)+"*")
	}
	return strings.Join(parts, ", ")
}
