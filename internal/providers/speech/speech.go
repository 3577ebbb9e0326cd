// Package speech turns narration text into raw PCM audio, one segment at a
// time, and maps script speakers onto the prebuilt synthesis voices.
package speech

import (
	"context"

	"github.com/google/uuid"

	"botagent/internal/providers/genai"
)

// Synthesizer is the per-segment synthesis contract the pipeline consumes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// Gemini synthesizes speech through the Gemini native-audio model.
type Gemini struct {
	client *genai.Client
}

func NewGemini(client *genai.Client) *Gemini {
	return &Gemini{client: client}
}

func (g *Gemini) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	return g.client.GenerateSpeech(ctx, genai.SpeechRequest{
		Text:      text,
		Voice:     voice,
		RequestID: uuid.NewString(),
	})
}

var _ Synthesizer = (*Gemini)(nil)
