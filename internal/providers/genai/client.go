// Package genai is a lightweight facade over the Gemini REST surface covering
// the four remote capabilities the pipeline consumes: text, speech, image and
// video generation.
package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"botagent/internal/domain"
	"botagent/internal/infra"
)

// Options controls how the client is configured.
type Options struct {
	APIKey       string
	BaseURL      string
	TextModel    string
	SpeechModel  string
	ImageModel   string
	VideoModel   string
	HTTPClient   *http.Client
	Logger       *infra.Logger
	PollInterval time.Duration
	VideoTimeout time.Duration
}

// Client translates normalized requests into Gemini API calls. Providers build
// on top of it so they can focus on prompt construction.
type Client struct {
	apiKey       string
	baseURL      string
	textModel    string
	speechModel  string
	imageModel   string
	videoModel   string
	httpClient   *http.Client
	logger       *infra.Logger
	pollInterval time.Duration
	videoTimeout time.Duration
}

// TextRequest asks for one block of generated text.
type TextRequest struct {
	System      string
	Prompt      string
	Temperature float64
	JSON        bool
	RequestID   string
}

// SpeechRequest asks for one narration segment as raw PCM bytes.
type SpeechRequest struct {
	Text      string
	Voice     string
	RequestID string
}

// ImageRequest asks for one generated image.
type ImageRequest struct {
	Prompt      string
	AspectRatio string
	RequestID   string
}

// VideoRequest asks for one generated video clip.
type VideoRequest struct {
	Prompt      string
	AspectRatio string
	RequestID   string
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature        float64             `json:"temperature,omitempty"`
	ResponseMimeType   string              `json:"responseMimeType,omitempty"`
	ResponseModalities []string            `json:"responseModalities,omitempty"`
	SpeechConfig       *geminiSpeechConfig `json:"speechConfig,omitempty"`
}

type geminiSpeechConfig struct {
	VoiceConfig geminiVoiceConfig `json:"voiceConfig"`
}

type geminiVoiceConfig struct {
	PrebuiltVoiceConfig geminiPrebuiltVoice `json:"prebuiltVoiceConfig"`
}

type geminiPrebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type geminiGenerateContentRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type imagenPredictRequest struct {
	Instances  []imagenInstance  `json:"instances"`
	Parameters *imagenParameters `json:"parameters,omitempty"`
}

type imagenInstance struct {
	Prompt string `json:"prompt"`
}

type imagenParameters struct {
	SampleCount    int    `json:"sampleCount,omitempty"`
	AspectRatio    string `json:"aspectRatio,omitempty"`
	OutputMimeType string `json:"outputMimeType,omitempty"`
	Resolution     string `json:"resolution,omitempty"`
}

type imagenPredictResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
}

type videoOperation struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Response struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI                string `json:"uri"`
					BytesBase64Encoded string `json:"bytesBase64Encoded"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response"`
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
		Status  string `json:"status,omitempty"`
	} `json:"error"`
}

// NewClient constructs a client with sane defaults. Callers may provide a nil
// HTTP client; a reusable one with sensible timeouts will be created.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("genai: api key is required")
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	videoTimeout := opts.VideoTimeout
	if videoTimeout <= 0 {
		videoTimeout = 10 * time.Minute
	}

	return &Client{
		apiKey:       strings.TrimSpace(opts.APIKey),
		baseURL:      baseURL,
		textModel:    defaultString(opts.TextModel, "gemini-2.5-flash"),
		speechModel:  defaultString(opts.SpeechModel, "gemini-2.5-flash-native-audio-preview-09-2025"),
		imageModel:   defaultString(opts.ImageModel, "imagen-4.0-generate-001"),
		videoModel:   defaultString(opts.VideoModel, "veo-3.1-fast-generate-preview"),
		httpClient:   client,
		logger:       logger,
		pollInterval: pollInterval,
		videoTimeout: videoTimeout,
	}, nil
}

// GenerateText runs one text-generation call and returns the concatenated
// candidate text.
func (c *Client) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: req.Prompt}},
		}},
	}
	if req.System != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	cfg := &geminiGenerationConfig{Temperature: req.Temperature}
	if req.JSON {
		cfg.ResponseMimeType = "application/json"
	}
	payload.GenerationConfig = cfg

	var response geminiGenerateContentResponse
	if err := c.invoke(ctx, http.MethodPost, fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.textModel)), payload, &response); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			b.WriteString(part.Text)
		}
	}
	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", c.textModel).
		Int("chars", b.Len()).
		Msg("genai: text generated")
	return b.String(), nil
}

// GenerateSpeech synthesizes one narration segment with the given prebuilt
// voice and returns the raw decoded PCM bytes.
func (c *Client) GenerateSpeech(ctx context.Context, req SpeechRequest) ([]byte, error) {
	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{{Text: req.Text}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &geminiSpeechConfig{
				VoiceConfig: geminiVoiceConfig{
					PrebuiltVoiceConfig: geminiPrebuiltVoice{VoiceName: req.Voice},
				},
			},
		},
	}

	var response geminiGenerateContentResponse
	if err := c.invoke(ctx, http.MethodPost, fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.speechModel)), payload, &response); err != nil {
		return nil, err
	}

	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("genai: decode audio data: %w", err)
			}
			c.logger.Debug().
				Str("request_id", req.RequestID).
				Str("voice", req.Voice).
				Int("bytes", len(data)).
				Msg("genai: speech segment generated")
			return data, nil
		}
	}
	return nil, fmt.Errorf("genai: no audio content returned")
}

// GenerateImage returns the encoded bytes of one generated image.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) ([]byte, error) {
	payload := imagenPredictRequest{
		Instances: []imagenInstance{{Prompt: req.Prompt}},
		Parameters: &imagenParameters{
			SampleCount:    1,
			AspectRatio:    req.AspectRatio,
			OutputMimeType: "image/png",
		},
	}

	var response imagenPredictResponse
	if err := c.invoke(ctx, http.MethodPost, fmt.Sprintf("/models/%s:predict", url.PathEscape(c.imageModel)), payload, &response); err != nil {
		return nil, err
	}
	if len(response.Predictions) == 0 || response.Predictions[0].BytesBase64Encoded == "" {
		return nil, fmt.Errorf("genai: no image content returned")
	}
	data, err := base64.StdEncoding.DecodeString(response.Predictions[0].BytesBase64Encoded)
	if err != nil {
		return nil, fmt.Errorf("genai: decode image data: %w", err)
	}
	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", c.imageModel).
		Int("bytes", len(data)).
		Msg("genai: image generated")
	return data, nil
}

// GenerateVideo starts a long-running video generation and polls it to
// completion. The overall wait is bounded; exceeding it surfaces
// domain.ErrTimeout.
func (c *Client) GenerateVideo(ctx context.Context, req VideoRequest) ([]byte, error) {
	payload := imagenPredictRequest{
		Instances: []imagenInstance{{Prompt: req.Prompt}},
		Parameters: &imagenParameters{
			AspectRatio: req.AspectRatio,
			Resolution:  "720p",
		},
	}

	var op videoOperation
	if err := c.invoke(ctx, http.MethodPost, fmt.Sprintf("/models/%s:predictLongRunning", url.PathEscape(c.videoModel)), payload, &op); err != nil {
		return nil, err
	}
	if op.Name == "" {
		return nil, fmt.Errorf("genai: video operation has no name")
	}

	deadline := time.Now().Add(c.videoTimeout)
	for !op.Done {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("genai: video operation %s: %w", op.Name, domain.ErrTimeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
		op = videoOperation{Name: op.Name}
		if err := c.invoke(ctx, http.MethodGet, "/"+strings.TrimLeft(op.Name, "/"), nil, &op); err != nil {
			return nil, err
		}
	}
	if op.Error.Message != "" {
		return nil, fmt.Errorf("genai: video operation failed: code %d", op.Error.Code)
	}

	samples := op.Response.GenerateVideoResponse.GeneratedSamples
	if len(samples) == 0 {
		return nil, fmt.Errorf("genai: no video content returned")
	}
	if inline := samples[0].Video.BytesBase64Encoded; inline != "" {
		data, err := base64.StdEncoding.DecodeString(inline)
		if err != nil {
			return nil, fmt.Errorf("genai: decode video data: %w", err)
		}
		return data, nil
	}
	if uri := samples[0].Video.URI; uri != "" {
		return c.downloadFile(ctx, uri)
	}
	return nil, fmt.Errorf("genai: video sample has no payload")
}

func (c *Client) invoke(ctx context.Context, method, path string, payload, out any) error {
	endpoint := c.baseURL + path
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}
	return nil
}

// statusError maps provider failures onto the domain taxonomy so callers can
// distinguish rate limiting and missing resources from generic failure.
func (c *Client) statusError(resp *http.Response) error {
	var apiErr geminiErrorResponse
	data, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(data, &apiErr)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests,
		strings.Contains(apiErr.Error.Status, "RESOURCE_EXHAUSTED"):
		return fmt.Errorf("gemini status %d: %w", resp.StatusCode, domain.ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("gemini status %d: %w", resp.StatusCode, domain.ErrNotFound)
	}
	if apiErr.Error.Message != "" {
		return fmt.Errorf("gemini status %d: %s", resp.StatusCode, apiErr.Error.Message)
	}
	if len(data) > 0 {
		return fmt.Errorf("gemini status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return fmt.Errorf("gemini status %d", resp.StatusCode)
}

func (c *Client) downloadFile(ctx context.Context, uri string) ([]byte, error) {
	target := uri
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(uri, "/")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, c.statusError(resp)
	}
	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return blob, nil
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
