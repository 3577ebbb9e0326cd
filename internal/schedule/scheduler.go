package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"botagent/internal/domain"
	"botagent/internal/infra"
	"botagent/internal/state"
)

// Runner dispatches one pipeline execution. The scheduler never retries a
// failed run; a slot is consumed the moment its time arrives.
type Runner interface {
	RunLongBatch(ctx context.Context, durationMinutes int) error
	RunShort(ctx context.Context, lang domain.Language) error
}

// Persisted state keys, kept compatible with earlier versions of the agent.
const (
	keyLongEnabled  = "agent_isLongActive"
	keyShortEnabled = "agent_isShortActive"
	keyLongCadence  = "agent_longVideoCadence"
	keyShortCadence = "agent_shortVideoCadence"
	keyLongDuration = "agent_longDuration"
)

// Cadence and duration bounds.
const (
	maxCadence         = 3
	minLongDuration    = 5
	maxLongDuration    = 60
	defaultLongMinutes = 10
)

// Startup and loop pacing (reference values from the original agent).
const (
	startupDelay    = 10 * time.Second
	statusLookahead = 2 // calendar days scanned for the next due slot
	pruneInterval   = 24 * time.Hour
)

// schedulerState is the persisted configuration the loop re-derives its
// behavior from after a restart.
type schedulerState struct {
	LongEnabled  bool
	ShortEnabled bool
	LongCadence  int
	ShortCadence int
	LongDuration int
}

// Scheduler is the top-level control loop: once per tick it checks the
// timetable against the ledger and dispatches due pipelines fire-and-forget.
type Scheduler struct {
	mu      sync.Mutex
	cfg     schedulerState
	store   state.Store
	ledger  *Ledger
	tracker *Tracker
	runner  Runner
	logger  infra.Logger

	tickInterval    time.Duration
	ledgerRetention time.Duration
	clock           func() time.Time
	dispatches      sync.WaitGroup
}

// Options configures a Scheduler.
type Options struct {
	Store           state.Store
	Ledger          *Ledger
	Tracker         *Tracker
	Runner          Runner
	Logger          infra.Logger
	TickInterval    time.Duration
	LedgerRetention time.Duration
	Clock           func() time.Time
}

func New(opts Options) *Scheduler {
	tick := opts.TickInterval
	if tick <= 0 {
		tick = 30 * time.Second
	}
	retention := opts.LedgerRetention
	if retention <= 0 {
		retention = 14 * 24 * time.Hour
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{
		cfg: schedulerState{
			LongCadence:  1,
			ShortCadence: 1,
			LongDuration: defaultLongMinutes,
		},
		store:           opts.Store,
		ledger:          opts.Ledger,
		tracker:         opts.Tracker,
		runner:          opts.Runner,
		logger:          opts.Logger,
		tickInterval:    tick,
		ledgerRetention: retention,
		clock:           clock,
	}
}

// LoadState restores persisted flags and cadences. Missing keys keep their
// defaults.
func (s *Scheduler) LoadState(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadValue(ctx, keyLongEnabled, &s.cfg.LongEnabled); err != nil {
		return err
	}
	if err := s.loadValue(ctx, keyShortEnabled, &s.cfg.ShortEnabled); err != nil {
		return err
	}
	if err := s.loadValue(ctx, keyLongCadence, &s.cfg.LongCadence); err != nil {
		return err
	}
	if err := s.loadValue(ctx, keyShortCadence, &s.cfg.ShortCadence); err != nil {
		return err
	}
	if err := s.loadValue(ctx, keyLongDuration, &s.cfg.LongDuration); err != nil {
		return err
	}
	s.cfg.LongCadence = clamp(s.cfg.LongCadence, 1, maxCadence)
	s.cfg.ShortCadence = clamp(s.cfg.ShortCadence, 0, maxCadence)
	s.cfg.LongDuration = clamp(s.cfg.LongDuration, minLongDuration, maxLongDuration)
	return nil
}

func (s *Scheduler) loadValue(ctx context.Context, key string, out any) error {
	data, err := s.store.Load(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("scheduler: load %q: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("scheduler: decode %q: %w", key, err)
	}
	return nil
}

func (s *Scheduler) saveValue(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("scheduler: encode %q: %w", key, err)
	}
	if err := s.store.Save(ctx, key, data); err != nil {
		return fmt.Errorf("scheduler: persist %q: %w", key, err)
	}
	return nil
}

// Run drives the scheduler until the context is canceled. The first check is
// delayed so a restart during a burst of traffic does not immediately stack
// remote calls on top of process startup.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info().Msg("scheduler: started")

	select {
	case <-ctx.Done():
		return
	case <-time.After(startupDelay):
	}

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()
	pruner := time.NewTicker(pruneInterval)
	defer pruner.Stop()

	s.Tick(ctx, s.clock())
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("scheduler: stopping")
			s.dispatches.Wait()
			return
		case now := <-ticker.C:
			s.Tick(ctx, now)
		case now := <-pruner.C:
			if err := s.ledger.Prune(ctx, now.Add(-s.ledgerRetention)); err != nil {
				s.logger.Error().Err(err).Msg("scheduler: ledger prune failed")
			}
		}
	}
}

// Tick checks every active slot against the clock and the ledger. A slot is
// due when its fire time on the current date has been reached and its key is
// absent from the ledger, so a missed tick (or a restart) can delay a run but
// never lose or duplicate it. All due slots of one job are consumed in the
// same pass yet dispatched at most once: a catch-up over several missed slots
// collapses into a single run, and nothing is dispatched while the same job
// identifiers are still in flight.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()

	if cfg.LongEnabled {
		if s.consumeDue(ctx, ActiveSlots(LongBatchSlots(), cfg.LongCadence), now) {
			if s.tracker.Running(isKind(domain.JobKindLong)) {
				s.logger.Warn().Msg("scheduler: long batch still in flight, slot consumed without dispatch")
			} else {
				duration := cfg.LongDuration
				s.dispatch(ctx, "long-batch", func(ctx context.Context) error {
					return s.runner.RunLongBatch(ctx, duration)
				})
			}
		}
	}

	if cfg.ShortEnabled {
		for _, lang := range domain.Languages {
			lang := lang // per-iteration copy for the dispatched closure (pre-1.22 loopvar)
			if !s.consumeDue(ctx, ActiveSlots(ShortSlots(lang), cfg.ShortCadence), now) {
				continue
			}
			id := domain.JobID(lang, domain.JobKindShort)
			if s.tracker.Running(func(jobID string) bool { return jobID == id }) {
				s.logger.Warn().Str("job", id).Msg("scheduler: job still in flight, slot consumed without dispatch")
				continue
			}
			s.dispatch(ctx, id, func(ctx context.Context) error {
				return s.runner.RunShort(ctx, lang)
			})
		}
	}
}

// consumeDue claims every reached, unfired slot in the list and reports
// whether any was claimed. Claiming all of them before a single dispatch is
// what keeps a catch-up burst from starting parallel runs of one job.
func (s *Scheduler) consumeDue(ctx context.Context, slots []Slot, now time.Time) bool {
	consumed := false
	for _, slot := range slots {
		if s.consumeSlot(ctx, slot, now) {
			consumed = true
		}
	}
	return consumed
}

func isKind(kind domain.JobKind) func(string) bool {
	suffix := "-" + string(kind)
	return func(jobID string) bool { return strings.HasSuffix(jobID, suffix) }
}

// consumeSlot atomically claims a due slot. The ledger write happens before
// dispatch and is never rolled back: a slot whose time has arrived is
// consumed regardless of pipeline outcome.
func (s *Scheduler) consumeSlot(ctx context.Context, slot Slot, now time.Time) bool {
	if slot.At(now).After(now) {
		return false
	}
	key := slot.Key(now)
	if s.ledger.HasRun(key) {
		return false
	}
	if err := s.ledger.MarkRun(ctx, key, now); err != nil {
		s.logger.Error().Err(err).Str("slot", key).Msg("scheduler: ledger write failed, skipping slot")
		return false
	}
	s.logger.Info().
		Str("slot", key).
		Str("kind", string(slot.Kind)).
		Msg("scheduler: slot due")
	return true
}

// dispatch runs a pipeline fire-and-forget. Failures are logged and isolated:
// one job's failure never blocks or corrupts another's schedule state.
func (s *Scheduler) dispatch(ctx context.Context, name string, run func(context.Context) error) {
	s.dispatches.Add(1)
	go func() {
		defer s.dispatches.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error().Interface("panic", r).Str("job", name).Msg("scheduler: dispatch panicked")
			}
		}()
		if err := run(ctx); err != nil {
			s.logger.Error().Err(err).Str("job", name).Msg("scheduler: job failed")
		} else {
			s.logger.Info().Str("job", name).Msg("scheduler: job completed")
		}
	}()
}

// Wait blocks until all in-flight dispatches settle. Used by shutdown and
// tests.
func (s *Scheduler) Wait() {
	s.dispatches.Wait()
}

// NextDue scans forward up to two calendar days and returns the earliest
// future slot of the kind whose key is not yet in the ledger, together with
// the language codes firing at that instant. It never mutates the ledger.
func (s *Scheduler) NextDue(kind domain.JobKind, now time.Time) (time.Time, []string, bool) {
	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()

	type candidate struct {
		at    time.Time
		langs []string
	}

	var slots []Slot
	switch kind {
	case domain.JobKindLong:
		slots = ActiveSlots(LongBatchSlots(), cfg.LongCadence)
	default:
		for _, lang := range domain.Languages {
			slots = append(slots, ActiveSlots(ShortSlots(lang), cfg.ShortCadence)...)
		}
	}

	var best *candidate
	for _, slot := range slots {
		at, ok := s.nextFire(slot, now)
		if !ok {
			continue
		}
		langs := slotLangs(slot)
		switch {
		case best == nil || at.Before(best.at):
			best = &candidate{at: at, langs: langs}
		case at.Equal(best.at):
			best.langs = append(best.langs, langs...)
		}
	}
	if best == nil {
		return time.Time{}, nil, false
	}
	return best.at, best.langs, true
}

// nextFire walks the slot's cron schedule forward and returns its first
// future occurrence within the lookahead window that has not fired yet.
func (s *Scheduler) nextFire(slot Slot, now time.Time) (time.Time, bool) {
	sched := slot.Schedule()
	horizon := now.AddDate(0, 0, statusLookahead)
	for at := sched.Next(now); !at.After(horizon); at = sched.Next(at) {
		if !s.ledger.HasRun(slot.Key(at)) {
			return at, true
		}
	}
	return time.Time{}, false
}

func slotLangs(slot Slot) []string {
	if slot.Kind == domain.JobKindLong {
		langs := make([]string, 0, len(domain.Languages))
		for _, lang := range domain.Languages {
			langs = append(langs, strings.ToUpper(string(lang)))
		}
		return langs
	}
	return []string{strings.ToUpper(string(slot.Group))}
}

// Status renders the read-only per-kind status string exposed to the UI
// collaborator: "disabled", "running: <languages>" or
// "next run at <time>: <languages>". A kind that is enabled but has no
// upcoming slot (short cadence zero) reads "disabled" as well, since it will
// not run until reconfigured.
func (s *Scheduler) Status(kind domain.JobKind, now time.Time) string {
	if langs := s.tracker.RunningLangs(kind); len(langs) > 0 {
		return "running: " + strings.Join(langs, ", ")
	}

	s.mu.Lock()
	enabled := s.cfg.LongEnabled
	if kind == domain.JobKindShort {
		enabled = s.cfg.ShortEnabled
	}
	s.mu.Unlock()
	if !enabled {
		return "disabled"
	}

	at, langs, ok := s.NextDue(kind, now)
	if !ok {
		return "disabled"
	}
	return fmt.Sprintf("next run at %s: %s", at.Format("15:04"), strings.Join(langs, ", "))
}

// SetEnabled toggles one job kind and persists the flag synchronously.
func (s *Scheduler) SetEnabled(ctx context.Context, kind domain.JobKind, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := keyLongEnabled
	if kind == domain.JobKindShort {
		key = keyShortEnabled
		s.cfg.ShortEnabled = enabled
	} else {
		s.cfg.LongEnabled = enabled
	}
	s.logger.Info().Str("kind", string(kind)).Bool("enabled", enabled).Msg("scheduler: toggled")
	return s.saveValue(ctx, key, enabled)
}

// SetCadence updates how many of a kind's daily slots are active. Long runs
// at least once per day when enabled; short may be dialed down to zero.
func (s *Scheduler) SetCadence(ctx context.Context, kind domain.JobKind, cadence int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := keyLongCadence
	if kind == domain.JobKindShort {
		key = keyShortCadence
		cadence = clamp(cadence, 0, maxCadence)
		s.cfg.ShortCadence = cadence
	} else {
		cadence = clamp(cadence, 1, maxCadence)
		s.cfg.LongCadence = cadence
	}
	s.logger.Info().Str("kind", string(kind)).Int("cadence", cadence).Msg("scheduler: cadence updated")
	return s.saveValue(ctx, key, cadence)
}

// SetLongDuration updates the target narration length of long kits.
func (s *Scheduler) SetLongDuration(ctx context.Context, minutes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	minutes = clamp(minutes, minLongDuration, maxLongDuration)
	s.cfg.LongDuration = minutes
	s.logger.Info().Int("minutes", minutes).Msg("scheduler: long duration updated")
	return s.saveValue(ctx, keyLongDuration, minutes)
}

// Config returns a snapshot of the persisted configuration.
func (s *Scheduler) Config() (longEnabled, shortEnabled bool, longCadence, shortCadence, longDuration int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.LongEnabled, s.cfg.ShortEnabled, s.cfg.LongCadence, s.cfg.ShortCadence, s.cfg.LongDuration
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
