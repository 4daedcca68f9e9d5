package scoring

import (
	"testing"
	"time"
)

func TestComputeZeroInput(t *testing.T) {
	end := time.Unix(1000, 0)
	res := Compute(Input{
		ReferenceWords:   []string{"a", "b", "c"},
		EndedAt:          end,
		TimeLimitSeconds: 5,
	})
	if res.NetWPM != 0 || res.GrossWPM != 0 {
		t.Fatalf("expected zero WPM, got %+v", res)
	}
	if res.AccuracyPercent != 0 || res.KeystrokeAccuracyPercent != 0 {
		t.Fatalf("expected zero accuracy, got %+v", res)
	}
	if res.ElapsedSeconds != 5 {
		t.Fatalf("expected time limit as elapsed, got %d", res.ElapsedSeconds)
	}
	if res.QualifiesForLeaderboard {
		t.Fatalf("zero input must not qualify")
	}
}

func TestComputeBasicSession(t *testing.T) {
	start := time.Unix(1000, 0)
	end := start.Add(30 * time.Second)
	res := Compute(Input{
		ReferenceWords:    []string{"the", "quick", "fox"},
		TypedWords:        []string{"teh", "quick", "fox"},
		WrongWordIndices:  []int{0},
		TotalKeystrokes:   13,
		CorrectKeystrokes: 11,
		StartedAt:         &start,
		EndedAt:           end,
		TimeLimitSeconds:  60,
		OriginalText:      "the quick fox",
	})
	if res.CorrectWordCount != 2 || res.IncorrectWordCount != 1 {
		t.Fatalf("unexpected word counts: %+v", res)
	}
	// 2 correct words over half a minute.
	if res.NetWPM != 4 {
		t.Fatalf("expected net WPM 4, got %d", res.NetWPM)
	}
	if res.GrossWPM != 6 {
		t.Fatalf("expected gross WPM 6, got %d", res.GrossWPM)
	}
	if res.AccuracyPercent != 66.67 {
		t.Fatalf("expected 66.67, got %v", res.AccuracyPercent)
	}
	if res.KeystrokeAccuracyPercent != 84.62 {
		t.Fatalf("expected 84.62, got %v", res.KeystrokeAccuracyPercent)
	}
	if res.ErrorWordCount != 1 {
		t.Fatalf("expected 1 error word, got %d", res.ErrorWordCount)
	}
	if res.TypedText != "teh quick fox" {
		t.Fatalf("unexpected typed text: %q", res.TypedText)
	}
}

func TestElapsedClampedToOne(t *testing.T) {
	start := time.Unix(1000, 0)
	if got := ElapsedSeconds(&start, start, 60); got != 1 {
		t.Fatalf("expected clamp to 1, got %d", got)
	}
	if got := ElapsedSeconds(&start, start.Add(400*time.Millisecond), 60); got != 1 {
		t.Fatalf("expected clamp to 1 for sub-second session, got %d", got)
	}
	if got := ElapsedSeconds(nil, start, 45); got != 45 {
		t.Fatalf("expected time limit fallback, got %d", got)
	}
}

func TestQualifies(t *testing.T) {
	cases := []struct {
		name     string
		accuracy float64
		elapsed  int
		words    int
		want     bool
	}{
		{"long accurate session", 90, 600, 100, true},
		{"large accurate session", 90, 120, 450, true},
		{"accurate but short and small", 90, 599, 399, false},
		{"long but inaccurate", 80, 600, 450, false},
		{"threshold accuracy", 85, 600, 0, true},
		{"just under accuracy", 84.99, 600, 450, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Qualifies(tc.accuracy, tc.elapsed, tc.words); got != tc.want {
				t.Fatalf("Qualifies(%v, %d, %d) = %v, want %v", tc.accuracy, tc.elapsed, tc.words, got, tc.want)
			}
		})
	}
}

func TestRound2HalfAwayFromZero(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{66.666666, 66.67},
		{66.664, 66.66},
		{0.005, 0.01},
		{100, 100},
	}
	for _, tc := range cases {
		if got := Round2(tc.in); got != tc.want {
			t.Fatalf("Round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestWPMRounding(t *testing.T) {
	// 7 words in 90 seconds is 4.67 WPM, rounds to 5.
	if got := WPM(7, 90); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
	// 1 word in 90 seconds is 0.67 WPM, rounds to 1.
	if got := WPM(1, 90); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := WPM(5, 0); got != 0 {
		t.Fatalf("expected zero-guard, got %d", got)
	}
}
