package fraud

import (
	"math"
	"testing"
)

func TestScoreMatchesVisualIndicators(t *testing.T) {
	result := Score("I see a phone and a reflection on the screen")

	if !result.Detected {
		t.Fatal("expected detection")
	}

	want := map[string]bool{"phone": true, "reflection": true, "screen": true}
	for _, indicator := range result.Indicators {
		delete(want, indicator)
	}
	if len(want) > 0 {
		t.Fatalf("missing indicators: %v", want)
	}

	expected := float64(len(result.Indicators)) / float64(len(visualIndicators))
	if math.Abs(result.Confidence-expected) > 1e-9 {
		t.Fatalf("expected confidence %f, got %f", expected, result.Confidence)
	}
}

func TestScoreIsCaseInsensitive(t *testing.T) {
	result := Score("MULTIPLE PEOPLE visible behind the candidate")
	if !result.Detected {
		t.Fatal("expected detection for upper-case input")
	}
	if result.Indicators[0] != "multiple people" {
		t.Fatalf("expected multiple people, got %v", result.Indicators)
	}
}

func TestScoreEmptyInput(t *testing.T) {
	result := Score("")
	if result.Detected {
		t.Fatal("expected no detection for empty input")
	}
	if result.Confidence != 0 {
		t.Fatalf("expected zero confidence, got %f", result.Confidence)
	}
	if len(result.Indicators) != 0 {
		t.Fatalf("expected no indicators, got %v", result.Indicators)
	}
}

func TestScoreCleanDescription(t *testing.T) {
	result := Score("A single person sitting at a desk in a well-lit room")
	if result.Detected {
		t.Fatalf("expected no detection, got indicators %v", result.Indicators)
	}
}

func TestScoreAudio(t *testing.T) {
	result := ScoreAudio("noticeable hesitation, answer sounds scripted")
	if !result.Detected {
		t.Fatal("expected detection")
	}
	if len(result.Indicators) != 2 {
		t.Fatalf("expected 2 indicators, got %v", result.Indicators)
	}

	clean := ScoreAudio("fluent and confident answer")
	if clean.Detected {
		t.Fatalf("expected no detection, got %v", clean.Indicators)
	}
}
