package topics

import (
	"testing"

	"botagent/internal/domain"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		code string
		want domain.Language
	}{
		{"pt", domain.LanguagePT},
		{"pt-BR", domain.LanguagePT},
		{"en", domain.LanguageEN},
		{"en-US", domain.LanguageEN},
		{"es", domain.LanguageES},
		{"es-419", domain.LanguageES},
	}
	for _, tc := range cases {
		got, err := Normalize(tc.code)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", tc.code, err)
		}
		if got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	if _, err := Normalize("!!"); err == nil {
		t.Fatalf("invalid code accepted")
	}
}

func TestTrendingPicksFromLanguagePool(t *testing.T) {
	picker := NewTrending(42)
	for _, lang := range domain.Languages {
		theme, subthemes := picker.Pick(lang, domain.JobKindLong)
		pool := themes[lang]
		found := false
		for _, candidate := range pool {
			if candidate == theme {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("theme %q not in %s pool", theme, lang)
		}
		if len(subthemes) == 0 {
			t.Fatalf("no subthemes for %s", lang)
		}
	}
}

func TestTrendingUnknownLanguageFallsBack(t *testing.T) {
	picker := NewTrending(1)
	theme, _ := picker.Pick(domain.Language("fr"), domain.JobKindShort)
	found := false
	for _, candidate := range themes[domain.LanguageEN] {
		if candidate == theme {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("fallback theme %q not from English pool", theme)
	}
}
