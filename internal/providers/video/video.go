// Package video renders on-demand video clips for completed kits.
package video

import (
	"context"

	"github.com/google/uuid"

	"botagent/internal/providers/genai"
)

// GenerateRequest describes one clip to render.
type GenerateRequest struct {
	Prompt      string
	AspectRatio string
}

// Generator is the contract implemented by all video providers. Generate
// blocks until the remote operation settles; the provider bounds the wait and
// surfaces domain.ErrTimeout when it is exceeded.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]byte, error)
}

// Gemini renders clips through the Veo long-running endpoint.
type Gemini struct {
	client *genai.Client
}

func NewGemini(client *genai.Client) *Gemini {
	return &Gemini{client: client}
}

func (g *Gemini) Generate(ctx context.Context, req GenerateRequest) ([]byte, error) {
	return g.client.GenerateVideo(ctx, genai.VideoRequest{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		RequestID:   uuid.NewString(),
	})
}

var _ Generator = (*Gemini)(nil)
