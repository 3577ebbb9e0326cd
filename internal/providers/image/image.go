// Package image generates the kit thumbnail.
package image

import (
	"context"

	"github.com/google/uuid"

	"botagent/internal/providers/genai"
)

// Aspect ratios by kit format.
const (
	AspectPortrait  = "9:16"
	AspectLandscape = "16:9"
)

// GenerateRequest describes one thumbnail to render.
type GenerateRequest struct {
	Prompt      string
	AspectRatio string
}

// Generator is the contract implemented by all image providers.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) ([]byte, error)
}

// Gemini renders thumbnails through the Imagen endpoint.
type Gemini struct {
	client *genai.Client
}

func NewGemini(client *genai.Client) *Gemini {
	return &Gemini{client: client}
}

func (g *Gemini) Generate(ctx context.Context, req GenerateRequest) ([]byte, error) {
	return g.client.GenerateImage(ctx, genai.ImageRequest{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		RequestID:   uuid.NewString(),
	})
}

var _ Generator = (*Gemini)(nil)
