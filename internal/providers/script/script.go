// Package script produces the text assets of a content kit: the narration
// script, the social/long-form post metadata and the visual prompts derived
// from them.
package script

import (
	"context"

	"botagent/internal/domain"
)

// Generator is the contract the pipeline consumes for all text synthesis.
type Generator interface {
	// Script writes a narration script for the theme, sized to the target
	// duration in minutes.
	Script(ctx context.Context, theme string, lang domain.Language, durationMinutes int) (string, error)
	// LongPost builds full video metadata for a long kit.
	LongPost(ctx context.Context, theme string, subthemes []string, lang domain.Language, durationMinutes int) (*domain.LongFormPost, error)
	// ShortPost builds caption metadata for a short kit from its script.
	ShortPost(ctx context.Context, script string, lang domain.Language) (*domain.SocialPost, error)
	// ThumbnailPrompt derives an image-generation prompt from the post title.
	ThumbnailPrompt(ctx context.Context, title, description, script string, lang domain.Language) (string, error)
	// MediaPrompt derives an artistic background prompt from the script, used
	// for on-demand video renders.
	MediaPrompt(ctx context.Context, script string, lang domain.Language) (string, error)
}

// languageNames maps supported locales to the names used inside prompts.
var languageNames = map[domain.Language]string{
	domain.LanguagePT: "Português",
	domain.LanguageEN: "Inglês",
	domain.LanguageES: "Espanhol",
}

func languageName(lang domain.Language) string {
	if name, ok := languageNames[lang]; ok {
		return name
	}
	return languageNames[domain.LanguageEN]
}

func channelName(lang domain.Language) string {
	if lang == domain.LanguagePT {
		return "Fé em 10 Minutos"
	}
	return "Faith in 10 Minutes"
}
