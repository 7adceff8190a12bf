package locale

import "testing"

func TestNegotiate(t *testing.T) {
	cases := []struct {
		cookie, header string
		want           Locale
	}{
		{"", "", "en"},
		{"", "ko-KR,ko;q=0.9,en;q=0.8", "ko"},
		{"", "en-US;q=0.1, ja;q=0.9", "ja"},
		{"", "zh-TW", "zh-Hant"},
		{"", "zh-HK,en;q=0.5", "zh-Hant"},
		{"", "zh-Hant", "zh-Hant"},
		{"", "zh-CN", "zh-Hans"},
		{"", "zh", "zh-Hans"},
		{"", "pt-BR", "pt"},
		{"", "sw", "en"},
		{"fr", "ja", "fr"},
		{"klingon", "de", "de"},
		{"", ";;;garbage", "en"},
	}
	for _, tc := range cases {
		if got := Negotiate(tc.cookie, tc.header); got != tc.want {
			t.Fatalf("Negotiate(%q, %q) = %q, want %q", tc.cookie, tc.header, got, tc.want)
		}
	}
}

func TestOrDefault(t *testing.T) {
	if got := OrDefault("ZH-hant"); got != "zh-Hant" {
		t.Fatalf("got %q", got)
	}
	if got := OrDefault("xx"); got != Default {
		t.Fatalf("got %q", got)
	}
}
