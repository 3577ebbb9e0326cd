package script

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"botagent/internal/domain"
	"botagent/internal/providers/genai"
)

// Script pacing: scripts are sized by word count so the narrated audio lands
// close to the target duration, and generated in blocks so the model keeps
// coherence over long sessions.
const (
	wordsPerMinute   = 160
	maxWordsPerBlock = 800
)

// The two fixed narrators every script is written for.
const (
	SpeakerGuide = "Roberta Erickson"
	SpeakerDeep  = "Milton Dilts"
)

// Gemini generates text assets through the Gemini client.
type Gemini struct {
	client *genai.Client
}

func NewGemini(client *genai.Client) *Gemini {
	return &Gemini{client: client}
}

func (g *Gemini) Script(ctx context.Context, theme string, lang domain.Language, durationMinutes int) (string, error) {
	if durationMinutes <= 0 {
		durationMinutes = 10
	}
	totalWords := durationMinutes * wordsPerMinute
	blocks := (totalWords + maxWordsPerBlock - 1) / maxWordsPerBlock
	if blocks < 1 {
		blocks = 1
	}
	wordsPerBlock := totalWords / blocks

	var full strings.Builder
	lastContext := ""
	for i := 0; i < blocks; i++ {
		text, err := g.scriptBlock(ctx, theme, lang, i, blocks, wordsPerBlock, lastContext)
		if err != nil {
			// Partial output is still usable narration; an empty result is
			// the caller's failure signal.
			break
		}
		full.WriteString(text)
		full.WriteString("\n\n")
		lastContext = text
	}
	return full.String(), nil
}

func (g *Gemini) scriptBlock(ctx context.Context, theme string, lang domain.Language, index, total, targetWords int, lastContext string) (string, error) {
	isFirst := index == 0
	isLast := index == total-1

	var stack []string
	if isFirst {
		stack = append(stack, `- PHASE: INDUCTION & HOOK (Opening)
- Start with a provocative question or deep validation of the listener's pain.
- Establish the central biblical archetype or metaphor for this session early on.`)
	} else {
		stack = append(stack, `- PHASE: CONTINUATION
- Continue the narrative flow seamlessly from the previous block. Do not repeat greetings.`)
	}
	stack = append(stack, fmt.Sprintf(`- PHASE: DEEPENING
- Use sensory descriptions and gentle embedded suggestions.
- Apply biblical metaphors to modern struggles.
- Expand on the theme: %q. Be verbose and descriptive, do not rush.`, theme))
	if isLast {
		stack = append(stack, fmt.Sprintf(`- PHASE: RESOLUTION & CALL TO ACTION
- Anchor the feelings of peace and resolution.
- Before the final blessing, warmly ask the listener to subscribe to the channel %q.
- End with a final blessing.`, channelName(lang)))
	}

	system := fmt.Sprintf(`You are a master of guided prayer writing a deeply therapeutic dialogue script.

CRITICAL RULES:
1. CHARACTERS: The dialogue is exclusively between %q (soft guiding voice) and %q (deep hypnotic voice).
2. FORMAT: Every line starts with "%s:" or "%s:". Do not use any other names.
3. LANGUAGE: Write strictly in %s.
4. NO META-DATA: No introductions, summaries or stage directions. Just the dialogue.
5. TONE: Slow, rhythmic, spiritual, grounded.

INSTRUCTIONS FOR THIS BLOCK (part %d of %d):
%s`,
		SpeakerGuide, SpeakerDeep, SpeakerGuide, SpeakerDeep,
		languageName(lang), index+1, total, strings.Join(stack, "\n"))
	if !isFirst && lastContext != "" {
		tail := lastContext
		if len(tail) > 300 {
			tail = tail[len(tail)-300:]
		}
		system += fmt.Sprintf("\n\nCONTEXT FROM PREVIOUS BLOCK: \"...%s\"", tail)
	}

	prompt := fmt.Sprintf(`Write part %d/%d of the prayer about %q.

LENGTH CONSTRAINT: write approximately %d words for this section. Do not summarize.
Keep the flow continuous. Start directly with a character name.`, index+1, total, theme, targetWords)

	return g.client.GenerateText(ctx, genai.TextRequest{
		System:      system,
		Prompt:      prompt,
		Temperature: 0.7,
		RequestID:   uuid.NewString(),
	})
}

func (g *Gemini) ShortPost(ctx context.Context, script string, lang domain.Language) (*domain.SocialPost, error) {
	excerpt := script
	if len(excerpt) > 500 {
		excerpt = excerpt[:500]
	}
	prompt := fmt.Sprintf(`You are a social media manager for a spiritual channel.
Create a viral short-video caption for this prayer: %q...

CRITICAL: the title, description and hashtags MUST be in %s.

Output format JSON:
{
  "title": "catchy hook (max 50 chars)",
  "description": "engaging caption (max 300 chars)",
  "hashtags": ["tag1", "tag2", "tag3", "tag4", "tag5"]
}`, excerpt, languageName(lang))

	raw, err := g.client.GenerateText(ctx, genai.TextRequest{
		Prompt:    prompt,
		JSON:      true,
		RequestID: uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}
	var post domain.SocialPost
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &post); err != nil {
		return nil, fmt.Errorf("decode social post: %w", err)
	}
	return &post, nil
}

func (g *Gemini) LongPost(ctx context.Context, theme string, subthemes []string, lang domain.Language, durationMinutes int) (*domain.LongFormPost, error) {
	system := fmt.Sprintf(`You are the SEO expert for the channel %q.
Task: create metadata for a %d-minute guided prayer video about %q.

CRITICAL LANGUAGE RULE: all output MUST be in %s.

OUTPUT RULES:
1. Title: high-urgency, caps and emojis, mentioning the duration and the channel name.
2. Description: a three-sentence hook repeating the title, then a keyword-rich paragraph, then three strong hashtags.
3. Tags: 20 high-volume tags mixed with long-tail keywords.
4. Timestamps: a chapter list based on the subthemes, without time codes.`,
		channelName(lang), durationMinutes, theme, strings.ToUpper(languageName(lang)))

	prompt := fmt.Sprintf(`Generate JSON for this video:
Theme: %s
Subthemes: %s

Output schema:
{
  "title": "string",
  "description": "string",
  "hashtags": ["#string", "#string", "#string"],
  "timestamps": "string (multiline list of topics, no time codes)",
  "tags": ["string", "string"]
}`, theme, strings.Join(subthemes, ", "))

	raw, err := g.client.GenerateText(ctx, genai.TextRequest{
		System:    system,
		Prompt:    prompt,
		JSON:      true,
		RequestID: uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}
	var post domain.LongFormPost
	if err := json.Unmarshal([]byte(stripJSONFences(raw)), &post); err != nil {
		return nil, fmt.Errorf("decode long post: %w", err)
	}
	return &post, nil
}

func (g *Gemini) ThumbnailPrompt(ctx context.Context, title, description, script string, lang domain.Language) (string, error) {
	excerpt := script
	if len(excerpt) > 100 {
		excerpt = excerpt[:100]
	}
	system := fmt.Sprintf(`You are a thumbnail strategist generating a prompt for an image model.

CRITICAL RULES:
1. SOURCE OF TRUTH: analyze ONLY the marketing title to determine the hook.
2. LANGUAGE MATCHING: text rendered inside the image MUST be in %s.
3. OUTPUT FORMAT: return ONLY the raw prompt string, in English.
4. TEXT STRUCTURE: the overlay is two short phrases, headline plus subheadline
   of at least three words, using synonyms of the title.

VISUAL FORMULA: highly expressive close-up face or divine silhouette with a
glowing aura, massive high-contrast 3D text overlay, hyper-realistic,
cinematic lighting.`, languageName(lang))

	prompt := fmt.Sprintf(`MARKETING TITLE: %q
(Analyze only this title for the visual hook and text.)

CONTEXT (mood only, do not use for text):
Description: %q
Prayer theme: %q...

Generate the full image prompt describing the visual and the exact text to render.`, title, description, excerpt)

	out, err := g.client.GenerateText(ctx, genai.TextRequest{
		System:    system,
		Prompt:    prompt,
		RequestID: uuid.NewString(),
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		out = "Spiritual cinematic background with text overlay"
	}
	return out, nil
}

func (g *Gemini) MediaPrompt(ctx context.Context, script string, lang domain.Language) (string, error) {
	excerpt := script
	if len(excerpt) > 500 {
		excerpt = excerpt[:500]
	}
	prompt := fmt.Sprintf(`Create a prompt for an AI video generator: a cinematic, spiritual background
matching the themes of this prayer: %q...
Style: ethereal, hyper-realistic, cinematic lighting, peaceful, divine atmosphere.
No text in the image. Return ONLY the prompt, in English.`, excerpt)

	out, err := g.client.GenerateText(ctx, genai.TextRequest{
		Prompt:    prompt,
		RequestID: uuid.NewString(),
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		out = "Ethereal spiritual background, cinematic lighting"
	}
	return out, nil
}

// stripJSONFences removes markdown code fences some models wrap JSON output in.
func stripJSONFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(raw, "```")
	}
	return strings.TrimSpace(raw)
}

var _ Generator = (*Gemini)(nil)
