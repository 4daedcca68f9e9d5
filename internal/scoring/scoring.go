// Package scoring derives final and live metrics from session state.
package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/sbsidd17/type-scribe-zen/internal/model"
)

// Leaderboard qualification thresholds. These gate externally visible
// ranking eligibility and must not drift.
const (
	QualifyingKeystrokeAccuracy = 85.0
	QualifyingSeconds           = 600
	QualifyingWords             = 400
)

// Input is the frozen session state handed over on completion.
type Input struct {
	ReferenceWords    []string
	TypedWords        []string
	WrongWordIndices  []int
	TotalKeystrokes   int
	CorrectKeystrokes int
	StartedAt         *time.Time
	EndedAt           time.Time
	TimeLimitSeconds  int
	OriginalText      string
}

// Compute derives the full result set for a finished session. All
// divisions are zero-guarded so a session with no keystrokes still
// yields a complete, all-zero result.
func Compute(in Input) model.TestResults {
	elapsed := ElapsedSeconds(in.StartedAt, in.EndedAt, in.TimeLimitSeconds)
	typed := len(in.TypedWords)
	correct := CorrectWordCount(in.TypedWords, in.ReferenceWords)

	accuracy := 0.0
	if typed > 0 {
		accuracy = Round2(float64(correct) / float64(typed) * 100)
	}
	keystrokeAccuracy := 0.0
	if in.TotalKeystrokes > 0 {
		keystrokeAccuracy = Round2(float64(in.CorrectKeystrokes) / float64(in.TotalKeystrokes) * 100)
	}

	return model.TestResults{
		NetWPM:                   WPM(correct, elapsed),
		GrossWPM:                 WPM(typed, elapsed),
		AccuracyPercent:          accuracy,
		KeystrokeAccuracyPercent: keystrokeAccuracy,
		TotalWords:               len(in.ReferenceWords),
		TypedWordCount:           typed,
		CorrectWordCount:         correct,
		IncorrectWordCount:       typed - correct,
		TotalKeystrokes:          in.TotalKeystrokes,
		CorrectKeystrokes:        in.CorrectKeystrokes,
		ErrorWordCount:           len(in.WrongWordIndices),
		ElapsedSeconds:           elapsed,
		TotalTimeSeconds:         in.TimeLimitSeconds,
		QualifiesForLeaderboard:  Qualifies(keystrokeAccuracy, elapsed, typed),
		OriginalText:             in.OriginalText,
		TypedText:                strings.Join(in.TypedWords, " "),
		WrongWordIndices:         in.WrongWordIndices,
	}
}

// ElapsedSeconds returns the scoring denominator in whole seconds,
// clamped to at least 1. A session that never saw a keystroke has no
// start instant and is scored over the full configured time limit.
func ElapsedSeconds(startedAt *time.Time, endedAt time.Time, timeLimitSeconds int) int {
	if startedAt == nil {
		return timeLimitSeconds
	}
	elapsed := int(math.Round(endedAt.Sub(*startedAt).Seconds()))
	if elapsed < 1 {
		elapsed = 1
	}
	return elapsed
}

// CorrectWordCount counts typed words that exactly match their
// reference word by position.
func CorrectWordCount(typed, reference []string) int {
	count := 0
	for i, word := range typed {
		if i < len(reference) && word == reference[i] {
			count++
		}
	}
	return count
}

// WPM converts a word count over elapsed seconds to rounded
// words-per-minute.
func WPM(words, elapsedSeconds int) int {
	if elapsedSeconds <= 0 {
		return 0
	}
	return int(math.Round(float64(words) / (float64(elapsedSeconds) / 60.0)))
}

// Qualifies applies the leaderboard eligibility policy: keystroke-level
// accuracy at or above the threshold, over a long-enough or
// large-enough session.
func Qualifies(keystrokeAccuracy float64, elapsedSeconds, typedWords int) bool {
	if keystrokeAccuracy < QualifyingKeystrokeAccuracy {
		return false
	}
	return elapsedSeconds >= QualifyingSeconds || typedWords >= QualifyingWords
}

// Round2 rounds half away from zero at two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
