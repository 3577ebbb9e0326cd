package speech

import "testing"

func TestRosterMatchesFirstNameCaseInsensitive(t *testing.T) {
	roster, err := NewRoster([]Speaker{
		{Name: "Roberta Erickson", Voice: VoiceSoft},
		{Name: "Milton Dilts", Voice: VoiceDeep},
	}, DefaultVoice)
	if err != nil {
		t.Fatalf("new roster: %v", err)
	}

	cases := []struct {
		speaker string
		want    string
	}{
		{"Roberta Erickson", VoiceSoft},
		{"roberta", VoiceSoft},
		{"MILTON", VoiceDeep},
		{"Milton D.", VoiceDeep},
		{"Narrator", DefaultVoice},
		{"", DefaultVoice},
	}
	for _, tc := range cases {
		if got := roster.Voice(tc.speaker); got != tc.want {
			t.Fatalf("Voice(%q) = %q, want %q", tc.speaker, got, tc.want)
		}
	}
}

func TestNewRosterRejectsBadEntries(t *testing.T) {
	if _, err := NewRoster([]Speaker{{Name: "  ", Voice: VoiceSoft}}, DefaultVoice); err == nil {
		t.Fatalf("empty name accepted")
	}
	if _, err := NewRoster([]Speaker{{Name: "Roberta", Voice: ""}}, DefaultVoice); err == nil {
		t.Fatalf("empty voice accepted")
	}
}

func TestSingleVoice(t *testing.T) {
	roster := SingleVoice()
	if got := roster.Voice("Anyone At All"); got != DefaultVoice {
		t.Fatalf("voice = %q, want %q", got, DefaultVoice)
	}
}
