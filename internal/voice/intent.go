package voice

import "strings"

type Intent int

const (
	Unrecognized Intent = iota
	Play
	Pause
	Stop
	Describe
	Transcript
)

func (i Intent) String() string {
	switch i {
	case Play:
		return "play"
	case Pause:
		return "pause"
	case Stop:
		return "stop"
	case Describe:
		return "describe"
	case Transcript:
		return "transcript"
	default:
		return "unrecognized"
	}
}

// Playback intents are answered locally; the rest need session data.
func (i Intent) Playback() bool {
	return i == Play || i == Pause || i == Stop
}

type rule struct {
	intent   Intent
	keywords []string
}

// Checked in order; the first rule with a matching keyword wins, so
// "pause and describe" is a pause.
var rules = []rule{
	{Play, []string{"play", "resume"}},
	{Pause, []string{"pause"}},
	{Stop, []string{"stop"}},
	{Describe, []string{"describe"}},
	{Transcript, []string{"transcript", "transcribe"}},
}

// Classify matches text against the keyword rules, case-insensitively, by
// substring.
func Classify(text string) Intent {
	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.intent
			}
		}
	}
	return Unrecognized
}
