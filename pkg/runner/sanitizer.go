package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxInputSize bounds a single input line or payload.
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize overrides DefaultMaxInputSize.
	EnvMaxInputSize = "VAUDIO_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// arrowKeys maps the final byte of an ANSI cursor sequence to a keyboard trigger.
var arrowKeys = map[byte]string{
	'A': "arrowup",
	'B': "arrowdown",
	'C': "arrowright",
	'D': "arrowleft",
}

// SanitizeLine cleans one line typed at a terminal. Arrow key escape sequences become
// their trigger names ("arrowup"), other escape sequences and control characters are
// dropped, tabs become spaces and surrounding space is trimmed.
func SanitizeLine(input string) (string, error) {
	if err := check(input); err != nil {
		return "", err
	}
	if !strings.ContainsFunc(input, unicode.IsControl) {
		return strings.TrimSpace(input), nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for i := 0; i < len(input); i++ {
		c := input[i]
		switch {
		case c == 0x1b:
			name, n := escape(input[i:])
			b.WriteString(name)
			i += n - 1
		case c == '\t':
			b.WriteByte(' ')
		case c < utf8.RuneSelf && unicode.IsControl(rune(c)):
		default:
			r, size := utf8.DecodeRuneInString(input[i:])
			if !unicode.IsControl(r) {
				b.WriteString(input[i : i+size])
			}
			i += size - 1
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// SanitizePayload cleans a structured payload (a JSON device event). Newlines, tabs and
// carriage returns survive; every other control character is dropped.
func SanitizePayload(input string) (string, error) {
	if err := check(input); err != nil {
		return "", err
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' {
			return -1
		}
		return r
	}, input), nil
}

// escape consumes an escape sequence at the start of s and returns the trigger it
// names, if any, and its length. Only CSI sequences ("ESC [ params final") are parsed;
// a lone ESC consumes one byte.
func escape(s string) (string, int) {
	if len(s) < 2 || (s[1] != '[' && s[1] != 'O') {
		return "", 1
	}
	for i := 2; i < len(s); i++ {
		c := s[i]
		if c >= 0x40 && c <= 0x7e {
			if i == 2 || s[1] == 'O' {
				return arrowKeys[c], i + 1
			}
			return "", i + 1
		}
	}
	return "", len(s)
}

func check(input string) error {
	limit := maxInputSize()
	if len(input) > limit {
		return fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return ErrInvalidUTF8
	}
	return nil
}

func maxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
