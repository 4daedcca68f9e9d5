// Package model defines shared data structures.
package model

import "time"

// BackspaceMode selects the correction policy for a session.
type BackspaceMode string

// Supported correction policies.
const (
	BackspaceFull      BackspaceMode = "full"
	BackspaceWordLevel BackspaceMode = "word"
	BackspaceDisabled  BackspaceMode = "disabled"
)

// Valid reports whether the mode is one of the supported policies.
func (m BackspaceMode) Valid() bool {
	switch m {
	case BackspaceFull, BackspaceWordLevel, BackspaceDisabled:
		return true
	}
	return false
}

// SessionConfig defines a single typing attempt.
type SessionConfig struct {
	ReferenceText    string
	TimeLimitSeconds int
	Mode             BackspaceMode
}

// TestResults is the frozen outcome of a finished session.
type TestResults struct {
	NetWPM                   int     `json:"netWpm"`
	GrossWPM                 int     `json:"grossWpm"`
	AccuracyPercent          float64 `json:"accuracyPercent"`
	KeystrokeAccuracyPercent float64 `json:"keystrokeAccuracyPercent"`
	TotalWords               int     `json:"totalWords"`
	TypedWordCount           int     `json:"typedWordCount"`
	CorrectWordCount         int     `json:"correctWordCount"`
	IncorrectWordCount       int     `json:"incorrectWordCount"`
	TotalKeystrokes          int     `json:"totalKeystrokes"`
	CorrectKeystrokes        int     `json:"correctKeystrokes"`
	ErrorWordCount           int     `json:"errorWordCount"`
	ElapsedSeconds           int     `json:"elapsedSeconds"`
	TotalTimeSeconds         int     `json:"totalTimeSeconds"`
	QualifiesForLeaderboard  bool    `json:"qualifiesForLeaderboard"`
	OriginalText             string  `json:"originalText"`
	TypedText                string  `json:"typedText"`
	WrongWordIndices         []int   `json:"wrongWordIndices"`
}

// Text is a curated reference passage.
type Text struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	WordCount int       `json:"wordCount"`
	CharCount int       `json:"charCount"`
	CreatedAt time.Time `json:"createdAt"`
}

// ResultRecord is a persisted session outcome.
type ResultRecord struct {
	ID        int64         `json:"id"`
	TextID    int64         `json:"textId"`
	Username  string        `json:"username"`
	Mode      BackspaceMode `json:"mode"`
	StartedAt time.Time     `json:"startedAt"`
	EndedAt   time.Time     `json:"endedAt"`
	Results   TestResults   `json:"results"`
}

// ResultFilter selects stored results for reporting.
type ResultFilter struct {
	Username string
	Since    *time.Time
	Last     int
}

// LeaderboardEntry is one ranked row of qualifying results.
type LeaderboardEntry struct {
	Username                 string    `json:"username"`
	NetWPM                   int       `json:"netWpm"`
	KeystrokeAccuracyPercent float64   `json:"keystrokeAccuracyPercent"`
	TypedWordCount           int       `json:"typedWordCount"`
	EndedAt                  time.Time `json:"endedAt"`
}
