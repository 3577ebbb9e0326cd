package speech

import (
	"fmt"
	"strings"
)

// Prebuilt voices used by the narration roster.
const (
	VoiceSoft = "Aoede"
	VoiceDeep = "Enceladus"
)

// DefaultVoice is used for single-voice narration and for speakers the roster
// does not know.
const DefaultVoice = VoiceSoft

// Speaker binds one script speaker name to a synthesis voice.
type Speaker struct {
	Name  string
	Voice string
}

// Roster is an explicit speaker-to-voice mapping, validated up front so a bad
// entry fails before any synthesis call is spent. Lookup matches on the
// speaker's first name, case-insensitively.
type Roster struct {
	byFirstName map[string]string
	fallback    string
}

// NewRoster validates the entries and builds the mapping. The fallback voice
// covers untagged or unknown speakers.
func NewRoster(speakers []Speaker, fallback string) (*Roster, error) {
	if strings.TrimSpace(fallback) == "" {
		fallback = DefaultVoice
	}
	byFirstName := make(map[string]string, len(speakers))
	for _, s := range speakers {
		first := firstName(s.Name)
		if first == "" {
			return nil, fmt.Errorf("speech: roster entry has empty name")
		}
		if strings.TrimSpace(s.Voice) == "" {
			return nil, fmt.Errorf("speech: roster entry %q has empty voice", s.Name)
		}
		byFirstName[first] = s.Voice
	}
	return &Roster{byFirstName: byFirstName, fallback: fallback}, nil
}

// SingleVoice is the roster for single-narrator kits: every speaker resolves
// to the default voice.
func SingleVoice() *Roster {
	return &Roster{fallback: DefaultVoice}
}

// Voice resolves a script speaker to a synthesis voice.
func (r *Roster) Voice(speaker string) string {
	if voice, ok := r.byFirstName[firstName(speaker)]; ok {
		return voice
	}
	return r.fallback
}

func firstName(name string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
