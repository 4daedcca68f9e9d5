// Package server hosts typing sessions over HTTP and WebSocket.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/sbsidd17/type-scribe-zen/internal/model"
	"github.com/sbsidd17/type-scribe-zen/internal/store"
)

// Config holds the server's listen address and session defaults.
type Config struct {
	Host                    string
	Port                    int
	AllowedOrigin           string
	DefaultTimeLimitSeconds int
	DefaultMode             model.BackspaceMode
}

// Server serves the typing API and live session sockets.
type Server struct {
	cfg      Config
	store    *store.Store
	upgrader websocket.Upgrader
}

// New builds a Server around an open store.
func New(cfg Config, st *store.Store) *Server {
	return &Server{
		cfg:   cfg,
		store: st,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// The engine trusts client-reported events as given;
				// origin checking is left to the deployment proxy.
				return true
			},
		},
	}
}

// Addr returns the host:port listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
}

// Handler builds the HTTP route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/session", s.handleSession)
	mux.HandleFunc("/api/texts", s.withCORS(s.handleTexts))
	mux.HandleFunc("/api/leaderboard", s.withCORS(s.handleLeaderboard))
	mux.HandleFunc("/api/results", s.withCORS(s.handleResults))
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

func (s *Server) withCORS(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.AllowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		handler(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		log.Printf("health write failed: %v", err)
	}
}

func (s *Server) handleTexts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	texts, err := s.store.ListTexts(r.Context())
	if err != nil {
		log.Printf("list texts failed: %v", err)
		http.Error(w, "failed to list texts", http.StatusInternalServerError)
		return
	}
	writeJSON(w, texts)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	entries, err := s.store.Leaderboard(r.Context(), limit)
	if err != nil {
		log.Printf("leaderboard query failed: %v", err)
		http.Error(w, "failed to load leaderboard", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	writeJSON(w, entries)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	filter := model.ResultFilter{Username: r.URL.Query().Get("username")}
	if v := r.URL.Query().Get("last"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			http.Error(w, "invalid last", http.StatusBadRequest)
			return
		}
		filter.Last = parsed
	}
	records, err := s.store.ListResults(r.Context(), filter)
	if err != nil {
		log.Printf("list results failed: %v", err)
		http.Error(w, "failed to list results", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []model.ResultRecord{}
	}
	writeJSON(w, records)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("response encode failed: %v", err)
	}
}
