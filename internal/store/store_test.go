package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sbsidd17/type-scribe-zen/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "typescribe.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return st
}

func testResultRecord(textID int64, username string, netWPM int, qualifies bool, endedAt time.Time) model.ResultRecord {
	return model.ResultRecord{
		TextID:    textID,
		Username:  username,
		Mode:      model.BackspaceFull,
		StartedAt: endedAt.Add(-60 * time.Second),
		EndedAt:   endedAt,
		Results: model.TestResults{
			NetWPM:                   netWPM,
			GrossWPM:                 netWPM + 2,
			AccuracyPercent:          92.31,
			KeystrokeAccuracyPercent: 95.5,
			TotalWords:               500,
			TypedWordCount:           420,
			CorrectWordCount:         400,
			IncorrectWordCount:       20,
			ErrorWordCount:           20,
			TotalKeystrokes:          2100,
			CorrectKeystrokes:        2006,
			ElapsedSeconds:           60,
			TotalTimeSeconds:         60,
			QualifiesForLeaderboard:  qualifies,
		},
	}
}

func TestInsertAndGetText(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	text := model.Text{
		Title:     "pangram",
		Body:      "the quick brown fox",
		WordCount: 4,
		CharCount: 19,
		CreatedAt: time.Now(),
	}
	id, err := st.InsertText(ctx, text)
	if err != nil {
		t.Fatalf("InsertText failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero text ID")
	}

	got, err := st.GetText(ctx, id)
	if err != nil {
		t.Fatalf("GetText failed: %v", err)
	}
	if got.Title != text.Title || got.Body != text.Body {
		t.Errorf("got %q/%q, want %q/%q", got.Title, got.Body, text.Title, text.Body)
	}
	if got.WordCount != text.WordCount || got.CharCount != text.CharCount {
		t.Errorf("got counts %d/%d, want %d/%d", got.WordCount, got.CharCount, text.WordCount, text.CharCount)
	}
}

func TestGetTextMissing(t *testing.T) {
	st := openTestStore(t)
	_, err := st.GetText(context.Background(), 999)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestRandomText(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, err := st.RandomText(ctx); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows on empty table, got %v", err)
	}

	titles := map[string]bool{"one": true, "two": true, "three": true}
	for title := range titles {
		if _, err := st.InsertText(ctx, model.Text{
			Title: title, Body: "body text here", WordCount: 3, CharCount: 14, CreatedAt: time.Now(),
		}); err != nil {
			t.Fatalf("InsertText failed: %v", err)
		}
	}
	got, err := st.RandomText(ctx)
	if err != nil {
		t.Fatalf("RandomText failed: %v", err)
	}
	if !titles[got.Title] {
		t.Errorf("RandomText returned unknown title %q", got.Title)
	}
}

func TestListTexts(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, title := range []string{"old", "mid", "new"} {
		if _, err := st.InsertText(ctx, model.Text{
			Title: title, Body: "words go here", WordCount: 3, CharCount: 13,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatalf("InsertText failed: %v", err)
		}
	}

	list, err := st.ListTexts(ctx)
	if err != nil {
		t.Fatalf("ListTexts failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 texts, got %d", len(list))
	}
	if list[0].Title != "new" || list[2].Title != "old" {
		t.Errorf("expected newest-first ordering, got %q..%q", list[0].Title, list[2].Title)
	}
}

func TestInsertAndListResults(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	records := []model.ResultRecord{
		testResultRecord(1, "ada", 70, true, base),
		testResultRecord(1, "bob", 55, false, base.Add(time.Hour)),
		testResultRecord(2, "ada", 80, true, base.Add(2*time.Hour)),
	}
	for _, rec := range records {
		if _, err := st.InsertResult(ctx, rec); err != nil {
			t.Fatalf("InsertResult failed: %v", err)
		}
	}

	all, err := st.ListResults(ctx, model.ResultFilter{})
	if err != nil {
		t.Fatalf("ListResults failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 results, got %d", len(all))
	}
	if all[0].Username != "ada" || all[0].Results.NetWPM != 70 {
		t.Errorf("expected oldest-first ordering, got %s/%d first", all[0].Username, all[0].Results.NetWPM)
	}
	if !all[0].Results.QualifiesForLeaderboard || all[1].Results.QualifiesForLeaderboard {
		t.Error("qualifies flag did not round-trip")
	}
	if all[0].Mode != model.BackspaceFull {
		t.Errorf("mode did not round-trip: got %q", all[0].Mode)
	}
	if !all[0].EndedAt.Equal(base) {
		t.Errorf("ended_at did not round-trip: got %v, want %v", all[0].EndedAt, base)
	}
}

func TestListResultsFilters(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		username := "ada"
		if i%2 == 1 {
			username = "bob"
		}
		rec := testResultRecord(1, username, 50+i, false, base.Add(time.Duration(i)*time.Hour))
		if _, err := st.InsertResult(ctx, rec); err != nil {
			t.Fatalf("InsertResult failed: %v", err)
		}
	}

	byUser, err := st.ListResults(ctx, model.ResultFilter{Username: "ada"})
	if err != nil {
		t.Fatalf("ListResults failed: %v", err)
	}
	if len(byUser) != 3 {
		t.Fatalf("expected 3 results for ada, got %d", len(byUser))
	}
	for _, rec := range byUser {
		if rec.Username != "ada" {
			t.Errorf("username filter leaked %q", rec.Username)
		}
	}

	since := base.Add(3 * time.Hour)
	bySince, err := st.ListResults(ctx, model.ResultFilter{Since: &since})
	if err != nil {
		t.Fatalf("ListResults failed: %v", err)
	}
	if len(bySince) != 2 {
		t.Fatalf("expected 2 results since %v, got %d", since, len(bySince))
	}

	last, err := st.ListResults(ctx, model.ResultFilter{Last: 2})
	if err != nil {
		t.Fatalf("ListResults failed: %v", err)
	}
	if len(last) != 2 {
		t.Fatalf("expected last 2 results, got %d", len(last))
	}
	if last[0].Results.NetWPM != 53 || last[1].Results.NetWPM != 54 {
		t.Errorf("Last kept wrong window: got %d,%d", last[0].Results.NetWPM, last[1].Results.NetWPM)
	}
}

func TestLeaderboard(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	inserts := []struct {
		username  string
		netWPM    int
		qualifies bool
		endedAt   time.Time
	}{
		{"slow", 40, true, base},
		{"fast", 90, true, base.Add(time.Hour)},
		{"cheat", 120, false, base.Add(2 * time.Hour)},
		{"tie-late", 90, true, base.Add(3 * time.Hour)},
	}
	for _, in := range inserts {
		rec := testResultRecord(1, in.username, in.netWPM, in.qualifies, in.endedAt)
		if _, err := st.InsertResult(ctx, rec); err != nil {
			t.Fatalf("InsertResult failed: %v", err)
		}
	}

	entries, err := st.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("Leaderboard failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 qualifying entries, got %d", len(entries))
	}
	if entries[0].Username != "fast" || entries[1].Username != "tie-late" || entries[2].Username != "slow" {
		t.Errorf("unexpected ranking: %s, %s, %s", entries[0].Username, entries[1].Username, entries[2].Username)
	}

	limited, err := st.Leaderboard(ctx, 1)
	if err != nil {
		t.Fatalf("Leaderboard failed: %v", err)
	}
	if len(limited) != 1 || limited[0].Username != "fast" {
		t.Errorf("limit not honored: got %v", limited)
	}
}

func TestOpenCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dirs", "typescribe.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
