package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"botagent/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Options{
		APIKey:       "test-key",
		BaseURL:      server.URL,
		PollInterval: time.Millisecond,
		VideoTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestGenerateTextConcatenatesCandidates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key query param")
		}
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req geminiGenerateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.SystemInstruction == nil {
			t.Errorf("system instruction not forwarded")
		}
		json.NewEncoder(w).Encode(geminiGenerateContentResponse{
			Candidates: []geminiCandidate{{
				Content: geminiContent{Parts: []geminiPart{{Text: "Hello "}, {Text: "world"}}},
			}},
		})
	})

	got, err := client.GenerateText(context.Background(), TextRequest{System: "be calm", Prompt: "greet"})
	if err != nil {
		t.Fatalf("generate text: %v", err)
	}
	if got != "Hello world" {
		t.Fatalf("text = %q", got)
	}
}

func TestGenerateSpeechDecodesInlineData(t *testing.T) {
	pcm := []byte{0, 1, 2, 3}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req geminiGenerateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		cfg := req.GenerationConfig
		if cfg == nil || cfg.SpeechConfig == nil || cfg.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName != "Aoede" {
			t.Errorf("voice config not forwarded: %+v", cfg)
		}
		json.NewEncoder(w).Encode(geminiGenerateContentResponse{
			Candidates: []geminiCandidate{{
				Content: geminiContent{Parts: []geminiPart{{
					InlineData: &geminiInlineData{Data: base64.StdEncoding.EncodeToString(pcm)},
				}}},
			}},
		})
	})

	got, err := client.GenerateSpeech(context.Background(), SpeechRequest{Text: "hi", Voice: "Aoede"})
	if err != nil {
		t.Fatalf("generate speech: %v", err)
	}
	if len(got) != len(pcm) {
		t.Fatalf("pcm len = %d, want %d", len(got), len(pcm))
	}
}

func TestGenerateImageDecodesPrediction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":predict") {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprintf(w, `{"predictions":[{"bytesBase64Encoded":%q}]}`, base64.StdEncoding.EncodeToString([]byte("png")))
	})

	got, err := client.GenerateImage(context.Background(), ImageRequest{Prompt: "sunrise", AspectRatio: "16:9"})
	if err != nil {
		t.Fatalf("generate image: %v", err)
	}
	if string(got) != "png" {
		t.Fatalf("image = %q", got)
	}
}

func TestGenerateVideoPollsToCompletion(t *testing.T) {
	polls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, ":predictLongRunning") {
			fmt.Fprint(w, `{"name":"operations/op-1","done":false}`)
			return
		}
		polls++
		if polls < 2 {
			fmt.Fprint(w, `{"name":"operations/op-1","done":false}`)
			return
		}
		fmt.Fprintf(w, `{"name":"operations/op-1","done":true,"response":{"generateVideoResponse":{"generatedSamples":[{"video":{"bytesBase64Encoded":%q}}]}}}`,
			base64.StdEncoding.EncodeToString([]byte("mp4")))
	})

	got, err := client.GenerateVideo(context.Background(), VideoRequest{Prompt: "clouds"})
	if err != nil {
		t.Fatalf("generate video: %v", err)
	}
	if string(got) != "mp4" {
		t.Fatalf("video = %q", got)
	}
	if polls < 2 {
		t.Fatalf("polls = %d, want at least 2", polls)
	}
}

func TestGenerateVideoTimesOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"operations/op-1","done":false}`)
	}))
	defer server.Close()

	client, err := NewClient(Options{
		APIKey:       "test-key",
		BaseURL:      server.URL,
		PollInterval: time.Millisecond,
		VideoTimeout: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.GenerateVideo(context.Background(), VideoRequest{Prompt: "clouds"})
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("err = %v, want timeout", err)
	}
}

func TestStatusErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"too many requests", http.StatusTooManyRequests, `{}`, domain.ErrRateLimited},
		{"resource exhausted", http.StatusForbidden, `{"error":{"status":"RESOURCE_EXHAUSTED"}}`, domain.ErrRateLimited},
		{"not found", http.StatusNotFound, `{}`, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			})
			_, err := client.GenerateText(context.Background(), TextRequest{Prompt: "x"})
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestStatusErrorKeepsMessageOutOfTaxonomy(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"backend exploded"}}`)
	})
	_, err := client.GenerateText(context.Background(), TextRequest{Prompt: "x"})
	if err == nil || errors.Is(err, domain.ErrRateLimited) || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want generic failure", err)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Options{}); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}
