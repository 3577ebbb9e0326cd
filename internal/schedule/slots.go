// Package schedule decides when content-generation jobs run: it owns the daily
// timetable, the at-most-once last-run ledger, the in-flight job tracker and
// the scheduler loop that ties them together.
package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"botagent/internal/domain"
)

// Slot is one daily trigger point for a (language group, kind) pair. Minute
// offsets stagger languages that share an hour so their remote calls never
// land at the same instant.
type Slot struct {
	Group  domain.Language
	Kind   domain.JobKind
	Hour   int
	Minute int
}

// Daily timetable. Long kits run as one atomic batch covering every language,
// keyed off the Portuguese slots; short kits run per language at shared hours
// with staggered minutes.
var (
	longHours = map[domain.Language][]int{
		domain.LanguagePT: {6, 12, 18},
		domain.LanguageEN: {7, 13, 19},
		domain.LanguageES: {8, 14, 20},
	}
	shortHours    = []int{9, 12, 18}
	minuteOffsets = map[domain.Language]int{
		domain.LanguagePT: 0,
		domain.LanguageEN: 20,
		domain.LanguageES: 40,
	}
)

// LongBatchSlots returns the ordered daily slots of the long batch.
func LongBatchSlots() []Slot {
	hours := longHours[domain.LanguagePT]
	slots := make([]Slot, 0, len(hours))
	for _, hour := range hours {
		slots = append(slots, Slot{
			Group:  domain.LanguagePT,
			Kind:   domain.JobKindLong,
			Hour:   hour,
			Minute: minuteOffsets[domain.LanguagePT],
		})
	}
	return slots
}

// ShortSlots returns the ordered daily slots for one language's short runs.
func ShortSlots(lang domain.Language) []Slot {
	slots := make([]Slot, 0, len(shortHours))
	for _, hour := range shortHours {
		slots = append(slots, Slot{
			Group:  lang,
			Kind:   domain.JobKindShort,
			Hour:   hour,
			Minute: minuteOffsets[lang],
		})
	}
	return slots
}

// ActiveSlots returns the leading cadence slots of an ordered slot list.
// Cadence N activates exactly the first N slots, so raising the cadence only
// ever adds later slots.
func ActiveSlots(slots []Slot, cadence int) []Slot {
	if cadence <= 0 {
		return nil
	}
	if cadence > len(slots) {
		cadence = len(slots)
	}
	return slots[:cadence]
}

// Key builds the ledger key for this slot on the given day. The long batch
// keeps its historical "long_batch" token so ledgers written by earlier
// versions stay valid.
func (s Slot) Key(day time.Time) string {
	token := string(s.Kind)
	if s.Kind == domain.JobKindLong {
		token = "long_batch"
	}
	return fmt.Sprintf("%s_%s_%s_%d:%d", day.Format("2006-01-02"), s.Group, token, s.Hour, s.Minute)
}

// At returns the slot's fire time on the given day, in that day's location.
func (s Slot) At(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), s.Hour, s.Minute, 0, 0, day.Location())
}

// Schedule compiles the slot into a recurring cron schedule usable for
// forward scans.
func (s Slot) Schedule() cron.Schedule {
	sched, err := cron.ParseStandard(fmt.Sprintf("%d %d * * *", s.Minute, s.Hour))
	if err != nil {
		// Hour and minute are validated table constants; a parse failure is a
		// programming error.
		panic(fmt.Sprintf("schedule: invalid slot %+v: %v", s, err))
	}
	return sched
}
