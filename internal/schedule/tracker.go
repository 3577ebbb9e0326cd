package schedule

import (
	"strings"
	"sync"

	"botagent/internal/domain"
)

// Tracker is the in-memory registry of in-flight job identifiers. Membership
// reflects pipelines currently executing; it is never persisted. Duplicate
// prevention lives in the scheduler's ledger, not here: Begin is an idempotent
// set insert.
type Tracker struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{active: make(map[string]struct{})}
}

// Begin registers a job as in flight.
func (t *Tracker) Begin(jobID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active[jobID] = struct{}{}
}

// End removes a job. Safe to call for absent identifiers.
func (t *Tracker) End(jobID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.active, jobID)
}

// Running reports whether any in-flight job matches the predicate.
func (t *Tracker) Running(match func(jobID string) bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id := range t.active {
		if match(id) {
			return true
		}
	}
	return false
}

// RunningLangs returns the uppercase language codes of in-flight jobs of the
// given kind, in canonical language order.
func (t *Tracker) RunningLangs(kind domain.JobKind) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	suffix := "-" + string(kind)
	var langs []string
	for _, lang := range domain.Languages {
		if _, ok := t.active[domain.JobID(lang, kind)]; ok {
			langs = append(langs, strings.ToUpper(string(lang)))
		}
	}
	// Catch identifiers outside the canonical language set.
	for id := range t.active {
		if !strings.HasSuffix(id, suffix) {
			continue
		}
		lang := strings.ToUpper(strings.TrimSuffix(id, suffix))
		if !contains(langs, lang) {
			langs = append(langs, lang)
		}
	}
	return langs
}

func contains(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}
