package audio

import (
	"regexp"
	"strings"
)

// DefaultSpeaker is attributed to any script text that carries no speaker tag.
const DefaultSpeaker = "Narrator"

// MaxSegmentChars caps the length of a single synthesis request. Longer
// passages are re-split at sentence boundaries before being sent out.
const MaxSegmentChars = 800

// Segment is one speaker-attributed run of script text, sized to fit a single
// remote synthesis call.
type Segment struct {
	Speaker string
	Text    string
}

var (
	speakerRe  = regexp.MustCompile(`^([A-Za-zÀ-ÖØ-öø-ÿ ]+):`)
	sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+|[^.!?]+$`)
)

// SplitDialogue partitions a narration script into ordered, speaker-attributed
// segments. A line beginning with "Name:" switches the current speaker;
// untagged text belongs to the speaker in effect, starting with
// DefaultSpeaker. Segments longer than maxChars are re-split at sentence
// boundaries so that no emitted segment exceeds the cap.
func SplitDialogue(script string, maxChars int) []Segment {
	if maxChars <= 0 {
		maxChars = MaxSegmentChars
	}

	var raw []Segment
	speaker := DefaultSpeaker
	var buf strings.Builder

	flush := func() {
		text := strings.TrimSpace(buf.String())
		if text != "" {
			raw = append(raw, Segment{Speaker: speaker, Text: text})
		}
		buf.Reset()
	}

	for _, line := range strings.Split(script, "\n") {
		if m := speakerRe.FindStringSubmatch(line); m != nil {
			flush()
			speaker = strings.TrimSpace(m[1])
			buf.WriteString(strings.TrimSpace(line[len(m[0]):]))
			continue
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			if buf.Len() > 0 {
				buf.WriteString(" ")
			}
			buf.WriteString(trimmed)
		}
	}
	flush()

	var out []Segment
	for _, seg := range raw {
		if len(seg.Text) <= maxChars {
			out = append(out, seg)
			continue
		}
		out = append(out, splitAtSentences(seg, maxChars)...)
	}
	return out
}

// splitAtSentences carves an oversized segment into cap-respecting pieces,
// breaking only at sentence boundaries. A single sentence longer than the cap
// is emitted as its own segment rather than cut mid-sentence.
func splitAtSentences(seg Segment, maxChars int) []Segment {
	sentences := sentenceRe.FindAllString(seg.Text, -1)
	if len(sentences) == 0 {
		return []Segment{seg}
	}

	var out []Segment
	var current string
	for _, sentence := range sentences {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		candidate := sentence
		if current != "" {
			candidate = current + " " + sentence
		}
		if len(candidate) > maxChars && current != "" {
			out = append(out, Segment{Speaker: seg.Speaker, Text: current})
			current = sentence
			continue
		}
		current = candidate
	}
	if current != "" {
		out = append(out, Segment{Speaker: seg.Speaker, Text: current})
	}
	return out
}
