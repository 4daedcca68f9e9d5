// Package stats contains history reporting for stored results.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/sbsidd17/type-scribe-zen/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Summary aggregates a set of stored results.
type Summary struct {
	Sessions     int
	AvgNetWPM    float64
	BestNetWPM   int
	AvgAccuracy  float64
	AvgKeystroke float64
	Qualifying   int
}

// Summarize computes aggregate metrics over stored results.
func Summarize(records []model.ResultRecord) Summary {
	s := Summary{Sessions: len(records)}
	if len(records) == 0 {
		return s
	}
	var totalWPM, totalAcc, totalKeystroke float64
	for _, rec := range records {
		totalWPM += float64(rec.Results.NetWPM)
		totalAcc += rec.Results.AccuracyPercent
		totalKeystroke += rec.Results.KeystrokeAccuracyPercent
		if rec.Results.NetWPM > s.BestNetWPM {
			s.BestNetWPM = rec.Results.NetWPM
		}
		if rec.Results.QualifiesForLeaderboard {
			s.Qualifying++
		}
	}
	count := float64(len(records))
	s.AvgNetWPM = totalWPM / count
	s.AvgAccuracy = totalAcc / count
	s.AvgKeystroke = totalKeystroke / count
	return s
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints a summary block followed by a WPM sparkline.
func RenderSummary(w io.Writer, records []model.ResultRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No results found.")
		return err
	}
	s := Summarize(records)
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", s.Sessions),
		fmt.Sprintf("Avg Net WPM: %.2f", s.AvgNetWPM),
		fmt.Sprintf("Best Net WPM: %d", s.BestNetWPM),
		fmt.Sprintf("Avg Accuracy: %.2f%%", s.AvgAccuracy),
		fmt.Sprintf("Avg Keystroke Accuracy: %.2f%%", s.AvgKeystroke),
		fmt.Sprintf("Qualifying: %d", s.Qualifying),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	wpms := make([]float64, len(records))
	for i, rec := range records {
		wpms[i] = float64(rec.Results.NetWPM)
	}
	// Smooth the trend line so one outlier session does not dominate.
	if _, err := fmt.Fprintf(w, "WPM %s\n\n", Sparkline(MovingAverage(wpms, 5))); err != nil {
		return err
	}
	return nil
}

// RenderHistory prints one table row per stored result, oldest first.
func RenderHistory(w io.Writer, records []model.ResultRecord) error {
	if len(records) == 0 {
		return nil
	}
	headers := []string{"Date", "User", "Mode", "Net WPM", "Gross", "Accuracy", "Keystroke", "Words", "Qualifies"}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		qualifies := "no"
		if rec.Results.QualifiesForLeaderboard {
			qualifies = "yes"
		}
		rows = append(rows, []string{
			rec.EndedAt.Format("2006-01-02 15:04"),
			rec.Username,
			string(rec.Mode),
			fmt.Sprintf("%d", rec.Results.NetWPM),
			fmt.Sprintf("%d", rec.Results.GrossWPM),
			fmt.Sprintf("%.2f%%", rec.Results.AccuracyPercent),
			fmt.Sprintf("%.2f%%", rec.Results.KeystrokeAccuracyPercent),
			fmt.Sprintf("%d", rec.Results.TypedWordCount),
			qualifies,
		})
	}
	rightAlign := map[int]bool{3: true, 4: true, 5: true, 6: true, 7: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderLeaderboard prints ranked qualifying entries.
func RenderLeaderboard(w io.Writer, entries []model.LeaderboardEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No qualifying results yet.")
		return err
	}
	headers := []string{"Rank", "User", "Net WPM", "Keystroke", "Words", "Date"}
	rows := make([][]string, 0, len(entries))
	for i, entry := range entries {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			entry.Username,
			fmt.Sprintf("%d", entry.NetWPM),
			fmt.Sprintf("%.2f%%", entry.KeystrokeAccuracyPercent),
			fmt.Sprintf("%d", entry.TypedWordCount),
			entry.EndedAt.Format("2006-01-02"),
		})
	}
	rightAlign := map[int]bool{0: true, 2: true, 3: true, 4: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
