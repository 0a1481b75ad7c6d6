package tools

import (
	"context"
	"log"

	"github.com/kdimtricp/vidagent/internal/voice"
)

var playbackMessages = map[voice.Intent]string{
	voice.Play:  "Playing video",
	voice.Pause: "Video paused",
	voice.Stop:  "Video stopped",
}

// VoiceCommand routes free text to a playback action or, for describe and
// transcript, to the matching retrieval for sessionID.
func (t *Toolset) VoiceCommand(ctx context.Context, command, sessionID string) Result {
	intent := voice.Classify(command)
	log.Printf("[TOOLS] Voice command %q classified as %s", command, intent)

	if intent.Playback() {
		return Result{Action: intent.String(), Message: playbackMessages[intent]}
	}

	var retrieve func(context.Context, string, *float64) Result
	switch intent {
	case voice.Describe:
		retrieve = t.GetScenes
	case voice.Transcript:
		retrieve = t.GetTranscript
	default:
		return failure(msgUnrecognized, ErrUnrecognizedCommand)
	}

	if sessionID == "" {
		return Result{Action: intent.String(), Message: msgNoSession}
	}

	r := retrieve(ctx, sessionID, nil)
	if r.Failed() {
		return Result{Action: intent.String(), Error: r.Error, err: r.err}
	}
	return Result{Action: intent.String(), Data: r.Data}
}
