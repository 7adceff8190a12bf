package availability

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxHandleRunes is the DNS label limit; no probe accepts anything longer.
const MaxHandleRunes = 63

var (
	ErrEmptyHandle    = errors.New("availability: handle is empty")
	ErrNonLatinHandle = errors.New("availability: name contains non-Latin letters; a Latin handle is required")
	ErrHandleTooLong  = errors.New("availability: handle exceeds 63 characters")
)

// ResolveHandle picks the identifier used against domain, social, package
// and github probes: latin when given, otherwise the display name, with all
// whitespace removed and lower-cased.
func ResolveHandle(name, latin string) (string, error) {
	src := strings.TrimSpace(latin)
	if src == "" {
		src = strings.TrimSpace(name)
	}
	handle := strings.ToLower(strings.Join(strings.Fields(src), ""))
	if handle == "" {
		return "", ErrEmptyHandle
	}
	if HasNonLatin(handle) {
		return "", ErrNonLatinHandle
	}
	if utf8.RuneCountInString(handle) > MaxHandleRunes {
		return "", ErrHandleTooLong
	}
	return handle, nil
}

// HasNonLatin reports whether text has letters outside the Latin script.
// Digits, punctuation and symbols are ignored.
func HasNonLatin(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return true
		}
	}
	return false
}
