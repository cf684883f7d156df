package language_test

import (
	"testing"

	"scribe/internal/language"
)

func TestToISO2(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"en", "en"},
		{"eng", "en"},
		{"English", "en"},
		{"DEU", "de"},
		{"ger", "de"},
		{"fre", "fr"},
		{"fra", "fr"},
		{"  japanese  ", "ja"},
		{"xx", "xx"},
		{"klingon", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := language.ToISO2(tc.input); got != tc.want {
			t.Fatalf("ToISO2(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestEngineCode(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"en", "en"},
		{"German", "de"},
		{"AUTO", "auto"},
		{"", ""},
		{"made-up-language", ""},
	}
	for _, tc := range cases {
		if got := language.EngineCode(tc.input); got != tc.want {
			t.Fatalf("EngineCode(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"en", "English"},
		{"deu", "German"},
		{"auto", "Auto-detect"},
		{"", "Default"},
		{"qq", "QQ"},
	}
	for _, tc := range cases {
		if got := language.DisplayName(tc.input); got != tc.want {
			t.Fatalf("DisplayName(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
