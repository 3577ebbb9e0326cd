// Package pipeline runs the three-stage generation flow that turns one
// scheduled slot into a persisted content kit: text first, then audio and
// image in parallel, then an all-or-nothing history write.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"botagent/internal/audio"
	"botagent/internal/domain"
	"botagent/internal/history"
	"botagent/internal/infra"
	"botagent/internal/providers/image"
	"botagent/internal/providers/script"
	"botagent/internal/providers/speech"
	"botagent/internal/providers/video"
	"botagent/internal/schedule"
	"botagent/internal/storage"
	"botagent/internal/topics"
)

// shortDurationMinutes sizes the narration script of a short kit.
const shortDurationMinutes = 2

// Pipeline orchestrates the providers for one run. All methods are safe for
// concurrent use; independent runs only share the tracker and the history
// service, both of which synchronize internally.
type Pipeline struct {
	script  script.Generator
	speech  speech.Synthesizer
	images  image.Generator
	videos  video.Generator
	blobs   *storage.FileStore
	history *history.Service
	tracker *schedule.Tracker
	topics  topics.Picker
	logger  infra.Logger

	longRoster  *speech.Roster
	shortRoster *speech.Roster

	segmentDelay time.Duration
	now          func() time.Time
}

// Options wires a Pipeline.
type Options struct {
	Script       script.Generator
	Speech       speech.Synthesizer
	Images       image.Generator
	Videos       video.Generator
	Blobs        *storage.FileStore
	History      *history.Service
	Tracker      *schedule.Tracker
	Topics       topics.Picker
	Logger       infra.Logger
	SegmentDelay time.Duration
	Clock        func() time.Time
}

// New builds a Pipeline. The narration roster is validated here so a bad
// speaker entry fails at startup, not mid-run.
func New(opts Options) (*Pipeline, error) {
	longRoster, err := speech.NewRoster([]speech.Speaker{
		{Name: script.SpeakerGuide, Voice: speech.VoiceSoft},
		{Name: script.SpeakerDeep, Voice: speech.VoiceDeep},
	}, speech.DefaultVoice)
	if err != nil {
		return nil, fmt.Errorf("pipeline: roster: %w", err)
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	delay := opts.SegmentDelay
	if delay < 0 {
		delay = 0
	}
	return &Pipeline{
		script:       opts.Script,
		speech:       opts.Speech,
		images:       opts.Images,
		videos:       opts.Videos,
		blobs:        opts.Blobs,
		history:      opts.History,
		tracker:      opts.Tracker,
		topics:       opts.Topics,
		logger:       opts.Logger,
		longRoster:   longRoster,
		shortRoster:  speech.SingleVoice(),
		segmentDelay: delay,
		now:          clock,
	}, nil
}

// RunLongBatch produces one long kit per language, sequentially in canonical
// order, all sharing a single theme drawn once. The first language failure
// aborts the remainder of the batch; kits already persisted stay persisted.
func (p *Pipeline) RunLongBatch(ctx context.Context, durationMinutes int) error {
	for _, lang := range domain.Languages {
		id := domain.JobID(lang, domain.JobKindLong)
		p.tracker.Begin(id)
		defer p.tracker.End(id)
	}

	theme, subthemes := p.topics.Pick(domain.LanguagePT, domain.JobKindLong)
	p.logger.Info().Str("theme", theme).Int("minutes", durationMinutes).Msg("pipeline: long batch started")

	for _, lang := range domain.Languages {
		if err := p.produce(ctx, lang, domain.JobKindLong, theme, subthemes, durationMinutes); err != nil {
			return fmt.Errorf("long batch %s: %w", lang, err)
		}
		p.tracker.End(domain.JobID(lang, domain.JobKindLong))
	}
	return nil
}

// RunShort produces one short kit for a single language.
func (p *Pipeline) RunShort(ctx context.Context, lang domain.Language) error {
	id := domain.JobID(lang, domain.JobKindShort)
	p.tracker.Begin(id)
	defer p.tracker.End(id)

	theme, subthemes := p.topics.Pick(lang, domain.JobKindShort)
	p.logger.Info().Str("lang", string(lang)).Str("theme", theme).Msg("pipeline: short run started")

	if err := p.produce(ctx, lang, domain.JobKindShort, theme, subthemes, shortDurationMinutes); err != nil {
		return fmt.Errorf("short %s: %w", lang, err)
	}
	return nil
}

// produce runs the three stages for one kit and records the result.
func (p *Pipeline) produce(ctx context.Context, lang domain.Language, kind domain.JobKind, theme string, subthemes []string, durationMinutes int) error {
	kit, err := p.generateText(ctx, lang, kind, theme, subthemes, durationMinutes)
	if err != nil {
		p.logger.Error().Err(err).Str("lang", string(lang)).Str("kind", string(kind)).Msg("pipeline: text stage failed")
		return err
	}

	wav, thumb, err := p.generateMedia(ctx, lang, kind, kit)
	if err != nil {
		p.logger.Error().Err(err).Str("lang", string(lang)).Str("kind", string(kind)).Msg("pipeline: media stage failed")
		return err
	}

	if err := p.persist(ctx, lang, kind, kit, wav, thumb); err != nil {
		p.logger.Error().Err(err).Str("lang", string(lang)).Str("kind", string(kind)).Msg("pipeline: persist stage failed")
		return err
	}
	return nil
}

// generateText is stage one. Long kits run the script and the post metadata
// concurrently since the post derives from the theme, not the script; short
// kits must wait for the script because the caption is written from it.
func (p *Pipeline) generateText(ctx context.Context, lang domain.Language, kind domain.JobKind, theme string, subthemes []string, durationMinutes int) (*domain.ContentKit, error) {
	kit := &domain.ContentKit{Theme: theme, Subthemes: subthemes}

	if kind == domain.JobKindLong {
		var wg sync.WaitGroup
		var scriptErr, postErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			kit.Script, scriptErr = p.script.Script(ctx, theme, lang, durationMinutes)
		}()
		go func() {
			defer wg.Done()
			kit.LongPost, postErr = p.script.LongPost(ctx, theme, subthemes, lang, durationMinutes)
		}()
		wg.Wait()
		if err := firstError(scriptErr, postErr); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrTextGeneration, err)
		}
	} else {
		var err error
		kit.Script, err = p.script.Script(ctx, theme, lang, durationMinutes)
		if err == nil {
			kit.SocialPost, err = p.script.ShortPost(ctx, kit.Script, lang)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrTextGeneration, err)
		}
	}

	if kit.Script == "" {
		return nil, fmt.Errorf("%w: empty script", domain.ErrTextGeneration)
	}
	return kit, nil
}

// generateMedia is stage two: audio and image rendered in parallel, joined
// with fail-if-either semantics. When both branches fail, a rate-limit error
// wins the classification so callers can surface a retryable condition.
func (p *Pipeline) generateMedia(ctx context.Context, lang domain.Language, kind domain.JobKind, kit *domain.ContentKit) (wav, thumb []byte, err error) {
	var wg sync.WaitGroup
	var audioErr, imageErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		wav, audioErr = p.synthesizeAudio(ctx, kind, kit.Script)
	}()
	go func() {
		defer wg.Done()
		thumb, imageErr = p.renderThumbnail(ctx, lang, kind, kit)
	}()
	wg.Wait()

	if audioErr != nil || imageErr != nil {
		if errors.Is(imageErr, domain.ErrRateLimited) && !errors.Is(audioErr, domain.ErrRateLimited) {
			return nil, nil, imageErr
		}
		return nil, nil, firstError(audioErr, imageErr)
	}
	return wav, thumb, nil
}

// synthesizeAudio voices the script segment by segment and assembles one WAV.
// Synthesis is sequential with a short pause between calls; the first failed
// segment aborts the branch.
func (p *Pipeline) synthesizeAudio(ctx context.Context, kind domain.JobKind, text string) ([]byte, error) {
	roster := p.shortRoster
	if kind == domain.JobKindLong {
		roster = p.longRoster
	}

	segments := audio.SplitDialogue(text, audio.MaxSegmentChars)
	var pcm []byte
	synthesized := 0
	for i, seg := range segments {
		clean := audio.CleanForSpeech(seg.Text)
		if clean == "" {
			continue
		}
		if synthesized > 0 && p.segmentDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", domain.ErrAudioGeneration, ctx.Err())
			case <-time.After(p.segmentDelay):
			}
		}
		chunk, err := p.speech.Synthesize(ctx, clean, roster.Voice(seg.Speaker))
		if err != nil {
			return nil, fmt.Errorf("%w: segment %d: %w", domain.ErrAudioGeneration, i+1, err)
		}
		pcm = append(pcm, chunk...)
		synthesized++
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("%w: no audio produced", domain.ErrAudioGeneration)
	}
	return audio.EncodeWAV(pcm), nil
}

// renderThumbnail derives the image prompt from the kit's post metadata and
// renders it in the kind's aspect ratio.
func (p *Pipeline) renderThumbnail(ctx context.Context, lang domain.Language, kind domain.JobKind, kit *domain.ContentKit) ([]byte, error) {
	prompt, err := p.script.ThumbnailPrompt(ctx, kit.PostTitle(), kit.PostDescription(), kit.Script, lang)
	if err != nil {
		return nil, fmt.Errorf("%w: prompt: %w", domain.ErrImageGeneration, err)
	}
	data, err := p.images.Generate(ctx, image.GenerateRequest{
		Prompt:      prompt,
		AspectRatio: aspectFor(kind),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrImageGeneration, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", domain.ErrImageGeneration)
	}
	return data, nil
}

// persist is stage three. Blob writes precede the history record so a crash
// can leave an orphaned file but never a history entry pointing at nothing.
func (p *Pipeline) persist(ctx context.Context, lang domain.Language, kind domain.JobKind, kit *domain.ContentKit, wav, thumb []byte) error {
	millis := p.now().UnixMilli()
	id := domain.HistoryID(millis, lang, kind)

	audioKey, err := p.blobs.Write(ctx, domain.AudioBlobPrefix+id+".wav", wav)
	if err != nil {
		return fmt.Errorf("%w: audio blob: %w", domain.ErrPersistence, err)
	}
	imageKey, err := p.blobs.Write(ctx, domain.ImageBlobPrefix+id+".png", thumb)
	if err != nil {
		return fmt.Errorf("%w: image blob: %w", domain.ErrPersistence, err)
	}

	item := domain.HistoryItem{
		ID:           id,
		Timestamp:    millis,
		Kind:         kind,
		Language:     lang,
		Theme:        kit.Theme,
		Subthemes:    kit.Subthemes,
		Script:       kit.Script,
		SocialPost:   kit.SocialPost,
		LongPost:     kit.LongPost,
		AudioBlobKey: audioKey,
		ImageBlobKey: imageKey,
	}
	if err := p.history.Add(ctx, item); err != nil {
		return fmt.Errorf("%w: history: %w", domain.ErrPersistence, err)
	}
	p.logger.Info().Str("id", id).Str("lang", string(lang)).Str("kind", string(kind)).Msg("pipeline: kit persisted")
	return nil
}

// RenderVideo renders the on-demand clip for a persisted history item and
// attaches the blob key to the record. It blocks until the remote render
// settles or times out.
func (p *Pipeline) RenderVideo(ctx context.Context, id string) (string, error) {
	item, ok := p.history.Get(id)
	if !ok {
		return "", fmt.Errorf("history item %s: %w", id, domain.ErrNotFound)
	}

	prompt, err := p.script.MediaPrompt(ctx, item.Script, item.Language)
	if err != nil {
		return "", fmt.Errorf("%w: prompt: %w", domain.ErrVideoGeneration, err)
	}
	data, err := p.videos.Generate(ctx, video.GenerateRequest{
		Prompt:      prompt,
		AspectRatio: aspectFor(item.Kind),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrVideoGeneration, err)
	}

	key, err := p.blobs.Write(ctx, domain.VideoBlobPrefix+id+".mp4", data)
	if err != nil {
		return "", fmt.Errorf("%w: video blob: %w", domain.ErrPersistence, err)
	}
	if err := p.history.SetVideoKey(ctx, id, key); err != nil {
		return "", fmt.Errorf("%w: history: %w", domain.ErrPersistence, err)
	}
	p.logger.Info().Str("id", id).Msg("pipeline: video attached")
	return key, nil
}

func aspectFor(kind domain.JobKind) string {
	if kind == domain.JobKindLong {
		return image.AspectLandscape
	}
	return image.AspectPortrait
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
