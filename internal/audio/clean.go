package audio

import (
	"regexp"
	"strings"
)

var (
	stageDirectionRes = []*regexp.Regexp{
		regexp.MustCompile(`\([^)]*\)`),
		regexp.MustCompile(`\[[^\]]*\]`),
		regexp.MustCompile(`\*[^*]*\*`),
		regexp.MustCompile(`_[^_]*_`),
	}
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// CleanForSpeech strips everything that trips up the synthesis engine before a
// segment is sent out: stage directions, emojis, symbols and decorative
// punctuation. Dashes become plain spaces so pacing survives without the
// engine trying to vocalize them.
func CleanForSpeech(text string) string {
	for _, re := range stageDirectionRes {
		text = re.ReplaceAllString(text, "")
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case isEmoji(r):
			// drop
		case strings.ContainsRune(`#$@^&\|<>~*`, r):
			// drop
		case r == '“' || r == '”' || r == '‘' || r == '’':
			// drop smart quotes
		case r == '-' || r == '–' || r == '—' || r == '‑':
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}

	return strings.TrimSpace(whitespaceRe.ReplaceAllString(b.String(), " "))
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x2190 && r <= 0x2BFF: // arrows, misc symbols, dingbats
		return true
	case r >= 0x1F000 && r <= 0x1FAFF: // emoji planes
		return true
	case r >= 0xE000 && r <= 0xF8FF: // private use
		return true
	case r == 0xFE0F || r == 0x200D: // variation selector, ZWJ
		return true
	}
	return false
}
