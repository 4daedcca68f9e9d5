package server

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sbsidd17/type-scribe-zen/internal/engine"
	"github.com/sbsidd17/type-scribe-zen/internal/model"
	"github.com/sbsidd17/type-scribe-zen/internal/store"
)

// Message is the WebSocket envelope for both directions.
type Message struct {
	Type string    `json:"type"`
	Data any       `json:"data,omitempty"`
	Time time.Time `json:"timestamp"`
}

// clientEvent is an inbound frame from the typing client.
type clientEvent struct {
	Type  string `json:"type"`
	Key   string `json:"key,omitempty"`
	Value string `json:"value,omitempty"`
}

// progressFrame is pushed after every applied event while running.
type progressFrame struct {
	State            engine.State `json:"state"`
	ProgressPercent  float64      `json:"progressPercent"`
	CurrentWPM       int          `json:"currentWpm"`
	RemainingSeconds int          `json:"remainingSeconds"`
	CurrentWordIndex int          `json:"currentWordIndex"`
	TypedWordCount   int          `json:"typedWordCount"`
	WrongWordIndices []int        `json:"wrongWordIndices"`
}

// sessionStart is the first frame sent after the upgrade.
type sessionStart struct {
	SessionID        string              `json:"sessionId"`
	Text             model.Text          `json:"text"`
	TimeLimitSeconds int                 `json:"timeLimitSeconds"`
	Mode             model.BackspaceMode `json:"mode"`
}

// session is one live typing attempt. A single goroutine owns the
// engine and applies client events and ticks in arrival order; the
// reader goroutine only feeds the events channel.
type session struct {
	id       string
	conn     *websocket.Conn
	eng      *engine.Engine
	store    *store.Store
	username string
	textID   int64
	mode     model.BackspaceMode
	events   chan clientEvent
	done     chan struct{}
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		http.Error(w, "missing username", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	var text model.Text
	var err error
	if v := r.URL.Query().Get("text_id"); v != "" {
		id, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil {
			http.Error(w, "invalid text_id", http.StatusBadRequest)
			return
		}
		text, err = s.store.GetText(ctx, id)
	} else {
		text, err = s.store.RandomText(ctx)
	}
	if err != nil {
		log.Printf("text lookup failed: %v", err)
		http.Error(w, "no reference text available", http.StatusNotFound)
		return
	}

	timeLimit := s.cfg.DefaultTimeLimitSeconds
	if v := r.URL.Query().Get("time_limit"); v != "" {
		parsed, perr := strconv.Atoi(v)
		if perr != nil {
			http.Error(w, "invalid time_limit", http.StatusBadRequest)
			return
		}
		timeLimit = parsed
	}
	mode := s.cfg.DefaultMode
	if v := r.URL.Query().Get("mode"); v != "" {
		mode = model.BackspaceMode(v)
	}

	eng, err := engine.New(model.SessionConfig{
		ReferenceText:    text.Body,
		TimeLimitSeconds: timeLimit,
		Mode:             mode,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	sess := &session{
		id:       uuid.New().String(),
		conn:     conn,
		eng:      eng,
		store:    s.store,
		username: username,
		textID:   text.ID,
		mode:     mode,
		events:   make(chan clientEvent, 64),
		done:     make(chan struct{}),
	}
	log.Printf("session %s started: user=%s text=%d limit=%ds mode=%s", sess.id, username, text.ID, timeLimit, mode)
	go sess.run(sessionStart{
		SessionID:        sess.id,
		Text:             text,
		TimeLimitSeconds: timeLimit,
		Mode:             mode,
	})
}

// run owns the engine for the session's lifetime. It is the only
// goroutine that touches the engine or writes to the socket, which
// gives the per-session in-order guarantee the engine requires.
func (sess *session) run(start sessionStart) {
	defer func() {
		close(sess.done)
		if cerr := sess.conn.Close(); cerr != nil {
			// Best-effort close; the peer may already be gone.
			_ = cerr
		}
	}()

	if err := sess.send("session_start", start); err != nil {
		log.Printf("session %s: start frame failed: %v", sess.id, err)
		return
	}

	go sess.readLoop()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sess.events:
			if !ok {
				// Client went away; the attempt is abandoned.
				log.Printf("session %s: client disconnected", sess.id)
				return
			}
			sess.apply(ev)
		case <-ticker.C:
			sess.eng.Tick()
		}

		if sess.eng.State() == engine.StateFinished {
			sess.finish()
			return
		}
		if err := sess.sendProgress(); err != nil {
			log.Printf("session %s: progress frame failed: %v", sess.id, err)
			return
		}
	}
}

func (sess *session) readLoop() {
	for {
		var ev clientEvent
		if err := sess.conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("session %s: read error: %v", sess.id, err)
			}
			close(sess.events)
			return
		}
		select {
		case sess.events <- ev:
		case <-sess.done:
			return
		}
	}
}

func (sess *session) apply(ev clientEvent) {
	switch ev.Type {
	case "key":
		sess.eng.OnKeyEvent(ev.Key)
	case "buffer":
		sess.eng.OnBufferChange(ev.Value)
	case "submit":
		sess.eng.Submit()
	default:
		log.Printf("session %s: unknown event type %q", sess.id, ev.Type)
	}
}

func (sess *session) sendProgress() error {
	return sess.send("progress", progressFrame{
		State:            sess.eng.State(),
		ProgressPercent:  sess.eng.ProgressPercent(),
		CurrentWPM:       sess.eng.CurrentWPM(),
		RemainingSeconds: sess.eng.RemainingSeconds(),
		CurrentWordIndex: sess.eng.CurrentWordIndex(),
		TypedWordCount:   sess.eng.TypedWordCount(),
		WrongWordIndices: sess.eng.WrongWordIndices(),
	})
}

func (sess *session) finish() {
	results, err := sess.eng.Results()
	if err != nil {
		log.Printf("session %s: results unavailable: %v", sess.id, err)
		return
	}

	endedAt := time.Now()
	rec := model.ResultRecord{
		TextID:    sess.textID,
		Username:  sess.username,
		Mode:      sess.mode,
		StartedAt: endedAt.Add(-time.Duration(results.ElapsedSeconds) * time.Second),
		EndedAt:   endedAt,
		Results:   results,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := sess.store.InsertResult(ctx, rec); err != nil {
		log.Printf("session %s: failed to save result: %v", sess.id, err)
	}

	if err := sess.send("finished", results); err != nil {
		log.Printf("session %s: finished frame failed: %v", sess.id, err)
	}
	log.Printf("session %s finished: user=%s net=%d acc=%.2f qualifies=%v",
		sess.id, sess.username, results.NetWPM, results.KeystrokeAccuracyPercent, results.QualifiesForLeaderboard)
}

func (sess *session) send(msgType string, data any) error {
	return sess.conn.WriteJSON(Message{
		Type: msgType,
		Data: data,
		Time: time.Now(),
	})
}
