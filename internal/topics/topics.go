// Package topics selects the trending theme a scheduled run will build its kit
// around, and normalizes locale input to the supported language set.
package topics

import (
	"fmt"
	"math/rand"

	"golang.org/x/text/language"

	"botagent/internal/domain"
)

var supported = []language.Tag{
	language.Portuguese,
	language.English,
	language.Spanish,
}

var matcher = language.NewMatcher(supported)

var byIndex = []domain.Language{domain.LanguagePT, domain.LanguageEN, domain.LanguageES}

// Normalize resolves a free-form locale code ("pt-BR", "en_US", "es") to one of
// the supported languages.
func Normalize(code string) (domain.Language, error) {
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("parse language %q: %w", code, err)
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return "", fmt.Errorf("unsupported language %q", code)
	}
	return byIndex[idx], nil
}

var themes = map[domain.Language][]string{
	domain.LanguagePT: {"Cura da Ansiedade", "Prosperidade Financeira", "Dormir em Paz", "Proteção da Família", "Gratidão Matinal"},
	domain.LanguageES: {"Sanación de la Ansiedad", "Prosperidad Financiera", "Dormir en Paz", "Protección Familiar", "Gratitud Matutina"},
	domain.LanguageEN: {"Healing Anxiety", "Financial Prosperity", "Sleep in Peace", "Family Protection", "Morning Gratitude"},
}

var defaultSubthemes = []string{"Introduction", "Deep Dive", "Closing"}

// Picker draws a theme for one scheduled run.
type Picker interface {
	Pick(lang domain.Language, kind domain.JobKind) (theme string, subthemes []string)
}

// Trending picks a pseudo-random trending theme per language. The kind is part
// of the contract so a real trend source can differentiate formats.
type Trending struct {
	rand *rand.Rand
}

// NewTrending builds a Trending picker seeded from the given source, or the
// global source when seed is zero.
func NewTrending(seed int64) *Trending {
	if seed == 0 {
		return &Trending{}
	}
	return &Trending{rand: rand.New(rand.NewSource(seed))}
}

func (t *Trending) Pick(lang domain.Language, kind domain.JobKind) (string, []string) {
	pool, ok := themes[lang]
	if !ok {
		pool = themes[domain.LanguageEN]
	}
	var n int
	if t.rand != nil {
		n = t.rand.Intn(len(pool))
	} else {
		n = rand.Intn(len(pool))
	}
	return pool[n], append([]string(nil), defaultSubthemes...)
}

var _ Picker = (*Trending)(nil)
