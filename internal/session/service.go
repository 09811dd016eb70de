// Package session provides the HTTP handlers for creating game sessions
// and dispatching player actions through the resolver, reducer and flow
// rules.
//
// All monetary values use shopspring/decimal — never float64 for money.
package session

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/optwhisper/game-engine/internal/engine"
	"github.com/optwhisper/game-engine/internal/metrics"
	"github.com/optwhisper/game-engine/internal/model"
	"github.com/optwhisper/game-engine/internal/scenario"
	"github.com/optwhisper/game-engine/internal/state"
	"github.com/optwhisper/game-engine/internal/store"
)

// Service handles session operations. Uses a mutex for serialized dispatch
// (single-instance). For horizontal scaling, replace with distributed
// locking or database-level optimistic concurrency.
type Service struct {
	store   store.Store
	catalog *scenario.Catalog
	reducer *state.Reducer
	mu      sync.Mutex
	wsHub   *Hub // optional WebSocket hub for real-time broadcasts
}

// NewService creates a new session service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(st store.Store, cat *scenario.Catalog, red *state.Reducer, hub *Hub) *Service {
	return &Service{
		store:   st,
		catalog: cat,
		reducer: red,
		wsHub:   hub,
	}
}

// --- Request/Response types ---

// NameRequest is the JSON body for POST /sessions/{id}/name.
type NameRequest struct {
	Name string `json:"name"`
}

// ChoiceRequest is the JSON body for POST /sessions/{id}/choices. Action
// carries the wire-format identifier from the selected choice.
type ChoiceRequest struct {
	Action string `json:"action"`
}

// OpsRequest is the JSON body for POST /sessions/{id}/ops. Only the
// UI-owned operations (set_typing, show_tooltip) are honored; everything
// else on this endpoint is ignored.
type OpsRequest struct {
	Ops []state.Op `json:"ops"`
}

// DispatchResponse is returned from the name, choices and ops endpoints:
// the narrative lines appended by this dispatch plus the full session.
type DispatchResponse struct {
	Messages []string       `json:"messages"`
	Session  *model.Session `json:"session"`
}

// --- HTTP Handlers ---

// CreateSession handles POST /api/v1/sessions
func (s *Service) CreateSession(w http.ResponseWriter, r *http.Request) {
	st := model.InitialState()
	if intro, ok := s.catalog.Find(scenario.Intro); ok {
		st = s.reducer.Apply(st, state.Op{Type: state.OpSetScenario, Scenario: &intro})
		st = s.reducer.Apply(st, state.Op{Type: state.OpSetChoices, Choices: intro.Choices})
	}

	now := time.Now().UTC()
	sess := &model.Session{
		ID:        uuid.New().String(),
		State:     st,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateSession(r.Context(), sess); err != nil {
		slog.Error("create session failed", "err", err)
		writeError(w, "failed to create session", http.StatusInternalServerError)
		return
	}

	metrics.ActiveSessions.Inc()
	slog.Info("session created", "session_id", sess.ID)
	writeJSON(w, http.StatusCreated, sess)
}

// GetSession handles GET /api/v1/sessions/{sessionID}
func (s *Service) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sess, err := s.store.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, "session not found", http.StatusNotFound)
			return
		}
		writeError(w, "failed to load session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// SetName handles POST /api/v1/sessions/{sessionID}/name
//
// Naming the player is the one dispatch that bypasses the choice
// vocabulary: free text in, then the flow rules decide where the story
// goes next.
func (s *Service) SetName(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		writeError(w, "name is required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, "session not found", http.StatusNotFound)
			return
		}
		writeError(w, "failed to load session", http.StatusInternalServerError)
		return
	}

	st := s.reducer.Apply(sess.State, state.Op{Type: state.OpSetPlayerName, Name: req.Name})

	var messages []string
	if next, msg := engine.Advance(st); next != "" {
		if msg != "" {
			st = s.reducer.Apply(st, state.Op{Type: state.OpAddMessage, Message: msg})
			messages = append(messages, msg)
		}
		st = s.reducer.Apply(st, state.Op{Type: state.OpSetGamePhase, Phase: model.PhasePlaying})
		if sc, ok := s.catalog.Find(next); ok {
			st = s.reducer.Apply(st, state.Op{Type: state.OpSetScenario, Scenario: &sc})
			st = s.reducer.Apply(st, state.Op{Type: state.OpSetChoices, Choices: sc.Choices})
		}
	}

	sess.State = st
	sess.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveSession(r.Context(), sess); err != nil {
		slog.Error("save session failed", "session_id", sess.ID, "err", err)
		writeError(w, "failed to save session", http.StatusInternalServerError)
		return
	}

	s.broadcast(sess.ID, messages, st.CurrentScenario)
	slog.Info("player named", "session_id", sess.ID, "name", req.Name)
	writeJSON(w, http.StatusOK, DispatchResponse{Messages: messages, Session: sess})
}

// SubmitChoice handles POST /api/v1/sessions/{sessionID}/choices
//
// One dispatch runs the full pipeline: echo the selection, resolve the
// action into a patch, fold the patch through the reducer, commit any
// pending trade, advance the market the number of days the action costs,
// then move the narrative to its next scenario.
func (s *Service) SubmitChoice(w http.ResponseWriter, r *http.Request) {
	var req ChoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Action == "" {
		writeError(w, "action is required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, "session not found", http.StatusNotFound)
			return
		}
		writeError(w, "failed to load session", http.StatusInternalServerError)
		return
	}

	action := model.ParseAction(req.Action)
	metrics.ActionsTotal.WithLabelValues(string(action.Kind)).Inc()

	st, messages := s.dispatch(sess.State, action)

	sess.State = st
	sess.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveSession(r.Context(), sess); err != nil {
		slog.Error("save session failed", "session_id", sess.ID, "err", err)
		writeError(w, "failed to save session", http.StatusInternalServerError)
		return
	}

	s.broadcast(sess.ID, messages, st.CurrentScenario)
	slog.Info("choice dispatched",
		"session_id", sess.ID,
		"action", req.Action,
		"kind", string(action.Kind),
		"day", st.Market.CurrentDay,
		"cash", st.Player.Cash)
	writeJSON(w, http.StatusOK, DispatchResponse{Messages: messages, Session: sess})
}

// dispatch runs one action through the resolver, reducer and flow rules.
// It returns the new state and the narrative lines appended along the way.
func (s *Service) dispatch(st model.GameState, action model.Action) (model.GameState, []string) {
	var messages []string
	say := func(msg string) {
		st = s.reducer.Apply(st, state.Op{Type: state.OpAddMessage, Message: msg})
		messages = append(messages, msg)
	}

	// Echo the selected choice text before resolving, so the transcript
	// reads selection first, consequence second.
	for _, c := range st.CurrentChoices {
		if c.Action == action.Raw {
			say("You selected: " + c.Text)
			break
		}
	}

	res := engine.Resolve(action, st)

	if res.Patch.Player != nil {
		st = s.reducer.Apply(st, state.Op{Type: state.OpUpdatePlayer, Player: res.Patch.Player})
	}
	if res.Patch.Market != nil {
		st = s.reducer.Apply(st, state.Op{Type: state.OpUpdateMarket, Market: res.Patch.Market})
	}
	if res.Patch.Phase != nil {
		st = s.reducer.Apply(st, state.Op{Type: state.OpSetGamePhase, Phase: *res.Patch.Phase})
	}
	if res.Patch.Close != nil {
		st = s.reducer.Apply(st, state.Op{Type: state.OpCloseTrade, Close: res.Patch.Close})
		outcome := "loss"
		if res.Patch.Close.Profit.IsPositive() {
			outcome = "win"
		}
		metrics.TradesClosed.WithLabelValues(outcome).Inc()
	}
	if res.Message != "" {
		say(res.Message)
	}

	// A resolving action that opens a position parks it in CurrentTrade;
	// committing moves it into the trade history and settles the premium.
	if res.Patch.Player != nil && res.Patch.Player.CurrentTrade != nil {
		trade := res.Patch.Player.CurrentTrade
		st = s.reducer.Apply(st, state.Op{Type: state.OpAddTrade, Trade: trade})
		metrics.TradesOpened.WithLabelValues(trade.Type).Inc()
	}

	for i := 0; i < engine.DaysAfter(action); i++ {
		st = s.reducer.Apply(st, state.Op{Type: state.OpAdvanceDay})
	}

	next := engine.NextScenario(action)
	if next == "" && engine.ConsultsAdvancer(action) {
		var msg string
		next, msg = engine.Advance(st)
		if msg != "" {
			say(msg)
		}
	}

	if next != "" {
		if sc, ok := s.catalog.Find(next); ok {
			if len(res.Patch.Choices) > 0 {
				sc.Choices = res.Patch.Choices
			}
			st = s.reducer.Apply(st, state.Op{Type: state.OpSetScenario, Scenario: &sc})
			st = s.reducer.Apply(st, state.Op{Type: state.OpSetChoices, Choices: sc.Choices})
		}
	} else if len(res.Patch.Choices) > 0 {
		st = s.reducer.Apply(st, state.Op{Type: state.OpSetChoices, Choices: res.Patch.Choices})
	}

	return st, messages
}

// DispatchOps handles POST /api/v1/sessions/{sessionID}/ops
//
// The UI owns the typing indicator and tooltip; everything else goes
// through the choices endpoint. Unrecognized op types are ignored.
func (s *Service) DispatchOps(w http.ResponseWriter, r *http.Request) {
	var req OpsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, "session not found", http.StatusNotFound)
			return
		}
		writeError(w, "failed to load session", http.StatusInternalServerError)
		return
	}

	st := sess.State
	for _, op := range req.Ops {
		switch op.Type {
		case state.OpSetTyping, state.OpShowTooltip:
			st = s.reducer.Apply(st, op)
		}
	}

	sess.State = st
	sess.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveSession(r.Context(), sess); err != nil {
		writeError(w, "failed to save session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, DispatchResponse{Messages: []string{}, Session: sess})
}

// DeleteSession handles DELETE /api/v1/sessions/{sessionID}
func (s *Service) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.store.DeleteSession(r.Context(), id); err != nil {
		writeError(w, "failed to delete session", http.StatusInternalServerError)
		return
	}
	metrics.ActiveSessions.Dec()
	slog.Info("session ended", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// GetScenario handles GET /api/v1/scenarios/{scenarioID}
func (s *Service) GetScenario(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "scenarioID")
	sc, ok := s.catalog.Find(id)
	if !ok {
		writeError(w, "scenario not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// broadcast pushes the dispatch's narrative lines and scenario change to
// WebSocket clients, if a hub is attached.
func (s *Service) broadcast(sessionID string, messages []string, sc *model.Scenario) {
	if s.wsHub == nil {
		return
	}
	for _, msg := range messages {
		s.wsHub.Broadcast(Event{Type: "message", SessionID: sessionID, Message: msg})
	}
	if sc != nil {
		s.wsHub.Broadcast(Event{Type: "scenario", SessionID: sessionID, ScenarioID: sc.ID})
	}
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
