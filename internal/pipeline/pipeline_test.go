package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"botagent/internal/domain"
	"botagent/internal/history"
	"botagent/internal/providers/image"
	"botagent/internal/providers/script"
	"botagent/internal/providers/speech"
	"botagent/internal/providers/video"
	"botagent/internal/schedule"
	"botagent/internal/state"
	"botagent/internal/storage"
	"botagent/internal/topics"
)

type stubScript struct {
	mu          sync.Mutex
	scriptText  string
	scriptCalls []domain.Language
	failScript  map[domain.Language]error
}

func (s *stubScript) Script(ctx context.Context, theme string, lang domain.Language, durationMinutes int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scriptCalls = append(s.scriptCalls, lang)
	if err := s.failScript[lang]; err != nil {
		return "", err
	}
	if s.scriptText != "" {
		return s.scriptText, nil
	}
	return fmt.Sprintf("A guided prayer about %s. Breathe in. Breathe out.", theme), nil
}

func (s *stubScript) LongPost(ctx context.Context, theme string, subthemes []string, lang domain.Language, durationMinutes int) (*domain.LongFormPost, error) {
	return &domain.LongFormPost{Title: "Long: " + theme, Description: "desc"}, nil
}

func (s *stubScript) ShortPost(ctx context.Context, scriptText string, lang domain.Language) (*domain.SocialPost, error) {
	return &domain.SocialPost{Title: "Short", Description: "desc"}, nil
}

func (s *stubScript) ThumbnailPrompt(ctx context.Context, title, description, scriptText string, lang domain.Language) (string, error) {
	return "thumbnail: " + title, nil
}

func (s *stubScript) MediaPrompt(ctx context.Context, scriptText string, lang domain.Language) (string, error) {
	return "media prompt", nil
}

func (s *stubScript) calledLangs() []domain.Language {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Language(nil), s.scriptCalls...)
}

type stubSpeech struct {
	mu     sync.Mutex
	voices []string
	chunk  []byte
	err    error
}

func (s *stubSpeech) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voices = append(s.voices, voice)
	if s.err != nil {
		return nil, s.err
	}
	return s.chunk, nil
}

func (s *stubSpeech) usedVoices() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.voices...)
}

type stubImage struct {
	mu      sync.Mutex
	aspects []string
	data    []byte
	err     error
}

func (s *stubImage) Generate(ctx context.Context, req image.GenerateRequest) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aspects = append(s.aspects, req.AspectRatio)
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}

type stubVideo struct {
	data []byte
	err  error
}

func (s *stubVideo) Generate(ctx context.Context, req video.GenerateRequest) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}

type fixedTopics struct{}

func (fixedTopics) Pick(lang domain.Language, kind domain.JobKind) (string, []string) {
	return "Evening Calm", []string{"Opening", "Closing"}
}

type testEnv struct {
	pipe    *Pipeline
	history *history.Service
	blobs   *storage.FileStore
	script  *stubScript
	speech  *stubSpeech
	image   *stubImage
	video   *stubVideo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := state.NewMemoryStore()
	hist := history.New(store)
	if err := hist.Load(context.Background()); err != nil {
		t.Fatalf("load history: %v", err)
	}
	blobs, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}

	env := &testEnv{
		history: hist,
		blobs:   blobs,
		script:  &stubScript{failScript: map[domain.Language]error{}},
		speech:  &stubSpeech{chunk: []byte{1, 2, 3, 4}},
		image:   &stubImage{data: []byte("png")},
		video:   &stubVideo{data: []byte("mp4")},
	}
	env.pipe, err = New(Options{
		Script:  env.script,
		Speech:  env.speech,
		Images:  env.image,
		Videos:  env.video,
		Blobs:   blobs,
		History: hist,
		Tracker: schedule.NewTracker(),
		Topics:  fixedTopics{},
		Logger:  zerolog.Nop(),
		Clock: func() time.Time {
			return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
		},
	})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return env
}

var _ topics.Picker = fixedTopics{}

func TestRunShortPersistsKit(t *testing.T) {
	env := newTestEnv(t)

	if err := env.pipe.RunShort(context.Background(), domain.LanguageEN); err != nil {
		t.Fatalf("run short: %v", err)
	}

	items := env.history.Items()
	if len(items) != 1 {
		t.Fatalf("history len = %d, want 1", len(items))
	}
	item := items[0]
	if item.Kind != domain.JobKindShort || item.Language != domain.LanguageEN {
		t.Fatalf("item = %+v", item)
	}
	if item.SocialPost == nil || item.LongPost != nil {
		t.Fatalf("short item carries wrong post variant")
	}
	if !strings.HasPrefix(item.AudioBlobKey, domain.AudioBlobPrefix) {
		t.Fatalf("audio key = %q", item.AudioBlobKey)
	}

	wav, err := env.blobs.Read(context.Background(), item.AudioBlobKey)
	if err != nil {
		t.Fatalf("read audio blob: %v", err)
	}
	if !bytes.HasPrefix(wav, []byte("RIFF")) {
		t.Fatalf("audio blob is not a WAV container")
	}
	if _, err := env.blobs.Read(context.Background(), item.ImageBlobKey); err != nil {
		t.Fatalf("read image blob: %v", err)
	}
}

func TestRunLongBatchSharesThemeAcrossLanguages(t *testing.T) {
	env := newTestEnv(t)

	if err := env.pipe.RunLongBatch(context.Background(), 12); err != nil {
		t.Fatalf("run long batch: %v", err)
	}

	items := env.history.Items()
	if len(items) != 3 {
		t.Fatalf("history len = %d, want 3", len(items))
	}
	seen := map[domain.Language]bool{}
	for _, item := range items {
		if item.Theme != "Evening Calm" {
			t.Fatalf("theme = %q, want shared theme", item.Theme)
		}
		if item.Kind != domain.JobKindLong || item.LongPost == nil {
			t.Fatalf("item = %+v", item)
		}
		seen[item.Language] = true
	}
	for _, lang := range domain.Languages {
		if !seen[lang] {
			t.Fatalf("language %s missing from batch", lang)
		}
	}
}

func TestRunLongBatchAbortsOnFirstFailure(t *testing.T) {
	env := newTestEnv(t)
	env.script.failScript[domain.LanguageEN] = errors.New("model unavailable")

	err := env.pipe.RunLongBatch(context.Background(), 12)
	if !errors.Is(err, domain.ErrTextGeneration) {
		t.Fatalf("err = %v, want text generation failure", err)
	}

	// Portuguese persisted before the failure, Spanish never started.
	items := env.history.Items()
	if len(items) != 1 || items[0].Language != domain.LanguagePT {
		t.Fatalf("items = %+v", items)
	}
	for _, lang := range env.script.calledLangs() {
		if lang == domain.LanguageES {
			t.Fatalf("batch continued past the failed language")
		}
	}
}

func TestMediaStageRateLimitWins(t *testing.T) {
	env := newTestEnv(t)
	env.image.err = fmt.Errorf("quota: %w", domain.ErrRateLimited)

	err := env.pipe.RunShort(context.Background(), domain.LanguagePT)
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("err = %v, want rate limited", err)
	}
	if len(env.history.Items()) != 0 {
		t.Fatalf("failed run reached history")
	}
}

func TestAudioRateLimitDiscardsFinishedImage(t *testing.T) {
	env := newTestEnv(t)
	env.speech.err = fmt.Errorf("quota: %w", domain.ErrRateLimited)

	err := env.pipe.RunShort(context.Background(), domain.LanguagePT)
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("err = %v, want rate limited", err)
	}
	// The image branch may have succeeded; its output must not be persisted.
	if len(env.history.Items()) != 0 {
		t.Fatalf("failed run reached history")
	}
}

func TestLongNarrationUsesRosterVoices(t *testing.T) {
	env := newTestEnv(t)
	env.script.scriptText = script.SpeakerGuide + ": Welcome to this meditation.\n" +
		script.SpeakerDeep + ": Let the day settle."

	if err := env.pipe.RunLongBatch(context.Background(), 12); err != nil {
		t.Fatalf("run long batch: %v", err)
	}

	voices := env.speech.usedVoices()
	var soft, deep bool
	for _, v := range voices {
		soft = soft || v == speech.VoiceSoft
		deep = deep || v == speech.VoiceDeep
	}
	if !soft || !deep {
		t.Fatalf("voices = %v, want both roster voices", voices)
	}
}

func TestShortNarrationUsesSingleVoice(t *testing.T) {
	env := newTestEnv(t)
	env.script.scriptText = "Someone: First line.\nNarrator: Second line."

	if err := env.pipe.RunShort(context.Background(), domain.LanguageES); err != nil {
		t.Fatalf("run short: %v", err)
	}
	for _, v := range env.speech.usedVoices() {
		if v != speech.DefaultVoice {
			t.Fatalf("short narration used voice %q", v)
		}
	}
}

func TestEmptyAudioFailsTheRun(t *testing.T) {
	env := newTestEnv(t)
	env.speech.chunk = nil

	err := env.pipe.RunShort(context.Background(), domain.LanguagePT)
	if !errors.Is(err, domain.ErrAudioGeneration) {
		t.Fatalf("err = %v, want audio generation failure", err)
	}
}

func TestRenderVideoAttachesBlob(t *testing.T) {
	env := newTestEnv(t)
	if err := env.pipe.RunShort(context.Background(), domain.LanguageEN); err != nil {
		t.Fatalf("seed run: %v", err)
	}
	id := env.history.Items()[0].ID

	key, err := env.pipe.RenderVideo(context.Background(), id)
	if err != nil {
		t.Fatalf("render video: %v", err)
	}
	if !strings.HasPrefix(key, domain.VideoBlobPrefix) {
		t.Fatalf("video key = %q", key)
	}
	item, ok := env.history.Get(id)
	if !ok || item.VideoBlobKey != key {
		t.Fatalf("video key not attached: %+v", item)
	}
	if _, err := env.blobs.Read(context.Background(), key); err != nil {
		t.Fatalf("read video blob: %v", err)
	}
}

func TestRenderVideoUnknownItem(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.pipe.RenderVideo(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestRenderVideoTimeoutSurfaces(t *testing.T) {
	env := newTestEnv(t)
	if err := env.pipe.RunShort(context.Background(), domain.LanguageEN); err != nil {
		t.Fatalf("seed run: %v", err)
	}
	id := env.history.Items()[0].ID
	env.video.err = fmt.Errorf("operation pending: %w", domain.ErrTimeout)

	if _, err := env.pipe.RenderVideo(context.Background(), id); !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("err = %v, want timeout", err)
	}
}
