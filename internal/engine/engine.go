// Package engine implements the typing-session state machine.
package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sbsidd17/type-scribe-zen/internal/model"
	"github.com/sbsidd17/type-scribe-zen/internal/policy"
	"github.com/sbsidd17/type-scribe-zen/internal/scoring"
)

// State identifies the session lifecycle phase.
type State string

// Session states. Finished is terminal.
const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateFinished State = "finished"
)

// Key values with special handling.
const (
	KeySpace = " "
	KeyTab   = "Tab"
)

// Engine owns one typing attempt against a fixed reference text. It is
// not safe for concurrent use; the host must deliver key, buffer, and
// tick events from a single goroutine, in arrival order.
type Engine struct {
	now func() time.Time

	originalText   string
	referenceWords []string
	timeLimit      int
	mode           model.BackspaceMode

	state             State
	currentWordIndex  int
	typedWords        []string
	buffer            string
	wrongWords        map[int]struct{}
	totalKeystrokes   int
	correctKeystrokes int
	startedAt         *time.Time
	endedAt           *time.Time
	remaining         int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New validates the configuration and returns an idle session.
func New(cfg model.SessionConfig, opts ...Option) (*Engine, error) {
	if strings.TrimSpace(cfg.ReferenceText) == "" {
		return nil, ErrEmptyText
	}
	if cfg.TimeLimitSeconds <= 0 {
		return nil, ErrInvalidTimeLimit
	}
	if !cfg.Mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, cfg.Mode)
	}
	e := &Engine{
		now:            time.Now,
		originalText:   cfg.ReferenceText,
		referenceWords: strings.Split(cfg.ReferenceText, " "),
		timeLimit:      cfg.TimeLimitSeconds,
		remaining:      cfg.TimeLimitSeconds,
		mode:           cfg.Mode,
		state:          StateIdle,
		wrongWords:     map[int]struct{}{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// OnKeyEvent processes one physical key press, before the host input
// control mutates its buffer. The first accepted key starts the clock.
// The space key is a word delimiter, never buffer content. Events after
// completion are discarded.
func (e *Engine) OnKeyEvent(key string) {
	if e.state == StateFinished {
		return
	}
	if key == KeyTab {
		return
	}
	if e.state == StateIdle {
		now := e.now()
		e.startedAt = &now
		e.state = StateRunning
	}
	e.totalKeystrokes++
	if key == KeySpace {
		e.commitWord()
	}
}

// OnBufferChange ingests the current word's new buffer value after the
// host input control changed. Deletions are subject to the session's
// correction policy; a rejected deletion leaves all state untouched.
// Typing the final reference word exactly completes the session without
// a trailing delimiter.
func (e *Engine) OnBufferChange(value string) {
	if e.state != StateRunning {
		return
	}
	if len(value) < len(e.buffer) && !policy.DeletionAllowed(e.mode, e.buffer, value, e.typedWords) {
		return
	}
	e.buffer = value
	e.recomputeCorrectKeystrokes()

	ref := e.referenceWords[e.currentWordIndex]
	if e.buffer != "" && !strings.HasPrefix(ref, e.buffer) {
		e.wrongWords[e.currentWordIndex] = struct{}{}
	}
	if e.currentWordIndex == len(e.referenceWords)-1 && e.buffer == ref {
		e.complete()
	}
}

// Tick advances the 1-second countdown. Reaching zero forces
// completion, even for a session that never saw a keystroke.
func (e *Engine) Tick() {
	if e.state == StateFinished {
		return
	}
	e.remaining--
	if e.remaining <= 0 {
		e.complete()
	}
}

// Submit ends the session early, through the same completion path as a
// timeout. Safe to call more than once.
func (e *Engine) Submit() {
	e.complete()
}

func (e *Engine) commitWord() {
	// A space after the final word has already committed it; further
	// delimiters are no-ops.
	if len(e.typedWords) > e.currentWordIndex {
		return
	}
	ref := e.referenceWords[e.currentWordIndex]
	if e.buffer != ref {
		e.wrongWords[e.currentWordIndex] = struct{}{}
	}
	e.typedWords = append(e.typedWords, e.buffer)
	if e.currentWordIndex < len(e.referenceWords)-1 {
		e.currentWordIndex++
		e.buffer = ""
	}
	// A matching commit credits the word's characters plus the
	// delimiter itself toward gross throughput.
	e.recomputeCorrectKeystrokes()
}

// recomputeCorrectKeystrokes rebuilds the character-correctness counter
// from scratch so it self-corrects under any edit order. Committed
// correct words contribute their length plus the delimiter; the
// in-progress buffer contributes its positional matches.
func (e *Engine) recomputeCorrectKeystrokes() {
	total := 0
	for i, word := range e.typedWords {
		if i < len(e.referenceWords) && word == e.referenceWords[i] {
			total += len([]rune(word)) + 1
		}
	}
	// Skip the buffer when the word under the cursor is already
	// committed (space pressed on the final word), so it is not
	// counted twice.
	if len(e.typedWords) == e.currentWordIndex {
		ref := []rune(e.referenceWords[e.currentWordIndex])
		buf := []rune(e.buffer)
		n := len(buf)
		if len(ref) < n {
			n = len(ref)
		}
		for i := 0; i < n; i++ {
			if buf[i] == ref[i] {
				total++
			}
		}
	}
	e.correctKeystrokes = total
}

// complete freezes the session. Idempotent: completion triggers from
// timeout, submit, and final-word match all funnel through here, and
// late triggers are no-ops.
func (e *Engine) complete() {
	if e.state == StateFinished {
		return
	}
	now := e.now()
	e.endedAt = &now
	if e.buffer != "" && len(e.typedWords) == e.currentWordIndex {
		e.typedWords = append(e.typedWords, e.buffer)
	}
	e.state = StateFinished
}

// Results derives the final scores from the frozen session. It returns
// ErrNotFinished while the session is still idle or running.
func (e *Engine) Results() (model.TestResults, error) {
	if e.state != StateFinished {
		return model.TestResults{}, ErrNotFinished
	}
	return scoring.Compute(scoring.Input{
		ReferenceWords:    e.referenceWords,
		TypedWords:        e.typedWords,
		WrongWordIndices:  e.WrongWordIndices(),
		TotalKeystrokes:   e.totalKeystrokes,
		CorrectKeystrokes: e.correctKeystrokes,
		StartedAt:         e.startedAt,
		EndedAt:           *e.endedAt,
		TimeLimitSeconds:  e.timeLimit,
		OriginalText:      e.originalText,
	}), nil
}

// State returns the current lifecycle phase.
func (e *Engine) State() State {
	return e.state
}

// Buffer returns the in-progress text for the current word.
func (e *Engine) Buffer() string {
	return e.buffer
}

// CurrentWordIndex returns the 0-based index of the word under the
// cursor.
func (e *Engine) CurrentWordIndex() int {
	return e.currentWordIndex
}

// TypedWordCount returns the number of committed words.
func (e *Engine) TypedWordCount() int {
	return len(e.typedWords)
}

// WrongWordIndices returns the indices judged incorrect so far, in
// ascending order. The set only ever grows within a session.
func (e *Engine) WrongWordIndices() []int {
	indices := make([]int, 0, len(e.wrongWords))
	for i := range e.wrongWords {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices
}

// ProgressPercent reports committed words over total reference words.
func (e *Engine) ProgressPercent() float64 {
	if len(e.referenceWords) == 0 {
		return 0
	}
	return float64(len(e.typedWords)) / float64(len(e.referenceWords)) * 100
}

// CurrentWPM computes net WPM against the current instant, with the
// same formula as the final score.
func (e *Engine) CurrentWPM() int {
	if e.startedAt == nil {
		return 0
	}
	end := e.now()
	if e.endedAt != nil {
		end = *e.endedAt
	}
	elapsed := scoring.ElapsedSeconds(e.startedAt, end, e.timeLimit)
	return scoring.WPM(scoring.CorrectWordCount(e.typedWords, e.referenceWords), elapsed)
}

// RemainingSeconds returns the seconds left on the countdown.
func (e *Engine) RemainingSeconds() int {
	if e.remaining < 0 {
		return 0
	}
	return e.remaining
}
