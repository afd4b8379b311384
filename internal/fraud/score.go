// Package fraud derives a bounded anomaly score from a natural-language
// signal description. Scoring is deterministic post-processing of text
// produced by the external vision/transcription service, not perception.
package fraud

import "strings"

// visualIndicators flags objects and scenes that should not appear in a
// candidate's webcam frame.
var visualIndicators = []string{
	"multiple people",
	"phone",
	"screen",
	"reflection",
	"device",
	"notebook",
	"paper",
	"suspicious",
}

// audioIndicators flags speech patterns that suggest an assisted or
// scripted response.
var audioIndicators = []string{
	"hesitation",
	"prompted",
	"coached",
	"reading",
	"inconsistent",
	"scripted",
	"background voice",
	"whisper",
}

// Result is the outcome of scoring a single signal.
type Result struct {
	Detected   bool
	Confidence float64
	Indicators []string
}

// Score matches a visual analysis text against the visual vocabulary.
// Empty input yields a zero result rather than an error: absence of signal
// must never block session flow.
func Score(analysis string) Result {
	return match(analysis, visualIndicators)
}

// ScoreAudio runs the same technique against the speech vocabulary.
func ScoreAudio(transcript string) Result {
	return match(transcript, audioIndicators)
}

func match(text string, vocabulary []string) Result {
	if text == "" {
		return Result{}
	}
	lowered := strings.ToLower(text)

	var matched []string
	for _, indicator := range vocabulary {
		if strings.Contains(lowered, indicator) {
			matched = append(matched, indicator)
		}
	}

	return Result{
		Detected:   len(matched) > 0,
		Confidence: float64(len(matched)) / float64(len(vocabulary)),
		Indicators: matched,
	}
}
