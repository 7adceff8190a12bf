// Package locale resolves the UI locale a verdict is written for.
package locale

import (
	"strings"

	"golang.org/x/text/language"
)

type Locale string

const Default Locale = "en"

// Supported locales; the first entry is the fallback.
var Supported = []Locale{"en", "ko", "ja", "zh-Hans", "zh-Hant", "es", "fr", "de", "pt"}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, 0, len(Supported))
	for _, l := range Supported {
		tags = append(tags, language.MustParse(string(l)))
	}
	return language.NewMatcher(tags)
}()

// Parse returns the supported locale spelled by raw (case-insensitive).
func Parse(raw string) (Locale, bool) {
	raw = strings.TrimSpace(raw)
	for _, l := range Supported {
		if strings.EqualFold(raw, string(l)) {
			return l, true
		}
	}
	return "", false
}

// OrDefault maps unsupported values to Default.
func OrDefault(raw string) Locale {
	if l, ok := Parse(raw); ok {
		return l
	}
	return Default
}

// Negotiate picks the locale for a request: an explicit supported cookie
// value wins, then the Accept-Language header by q-value, then Default.
// Chinese resolves by script or region (TW, HK, MO are Traditional).
func Negotiate(cookie, acceptLanguage string) Locale {
	if l, ok := Parse(cookie); ok {
		return l
	}
	if strings.TrimSpace(acceptLanguage) == "" {
		return Default
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	return Supported[idx]
}
