package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vishukulkarni/tutorflow/internal/config"
	"github.com/vishukulkarni/tutorflow/internal/observability"
	"github.com/vishukulkarni/tutorflow/internal/quiz"
	"github.com/vishukulkarni/tutorflow/internal/tutor"
)

// Server exposes the tutoring orchestrator over HTTP and websocket.
type Server struct {
	cfg      config.Config
	router   *tutor.Router
	engine   *quiz.Engine
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

func New(cfg config.Config, router *tutor.Router, engine *quiz.Engine, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		router:  router,
		engine:  engine,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only allow browser websocket connections from the same
				// origin. Non-browser clients omit Origin and are allowed.
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/welcome", s.handleWelcome)
	r.Post("/tutor", s.handleTutor)
	r.Get("/quizmaster/quiz_state", s.handleQuizState)
	r.Get("/quizmaster/run_test", s.handleRunTest)
	r.Get("/v1/chat/ws", s.handleChatWS)
	r.Get("/v1/perf/latency", s.handlePerfLatency)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"questions_loaded": s.engine.PoolSize(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":           "ready",
		"questions_loaded": s.engine.PoolSize(),
	})
}

type turnRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.CompletionTimeout)
	defer cancel()

	respondJSON(w, http.StatusOK, map[string]string{
		"welcome": s.router.Welcome(ctx, req.UserID),
	})
}

func (s *Server) handleTutor(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.CompletionTimeout)
	defer cancel()

	respondJSON(w, http.StatusOK, s.router.Handle(ctx, req.UserID, req.Message))
}

func (s *Server) handleQuizState(w http.ResponseWriter, r *http.Request) {
	owner := strings.TrimSpace(r.URL.Query().Get("user_id"))
	active := s.engine.ActiveAny()
	if owner != "" {
		active = s.engine.Active(owner)
	}
	respondJSON(w, http.StatusOK, map[string]bool{"active": active})
}

// handleRunTest is the operator diagnostic: it exercises the full quiz
// selection path against the live question pool with explicit params.
func (s *Server) handleRunTest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Get("token") != s.cfg.TestToken || s.cfg.TestToken == "" {
		respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	difficulty := q.Get("difficulty")
	if difficulty == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required parameter: difficulty"})
		return
	}
	rawNum := q.Get("num_questions")
	if rawNum == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required parameter: num_questions"})
		return
	}
	numQuestions, err := strconv.Atoi(rawNum)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "num_questions must be an integer"})
		return
	}
	subject := q.Get("subject")
	topic := q.Get("topic")
	if subject == "" && topic == "" {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "You must provide at least 'subject' or 'topic'."})
		return
	}

	chosenTopic := topic
	if chosenTopic == "" {
		chosenTopic = subject
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.CompletionTimeout)
	defer cancel()

	// Throwaway owner so the diagnostic never disturbs student quizzes.
	owner := "diag-" + uuid.NewString()
	output := s.engine.StartQuiz(ctx, owner, chosenTopic, difficulty, numQuestions)
	quizOK := s.engine.Active(owner)

	status := "ok"
	if !quizOK {
		status = "error"
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":                  status,
		"questions_loaded":        s.engine.PoolSize(),
		"subject_used":            subject,
		"topic_used":              topic,
		"difficulty_used":         difficulty,
		"num_questions_used":      numQuestions,
		"quiz_generation_success": quizOK,
		"sample_quiz_output":      output,
	})
}

type chatFrame struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type chatReply struct {
	TurnID   string `json:"turn_id"`
	Response string `json:"response"`
}

func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))

		var frame chatFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			_ = conn.WriteJSON(map[string]string{"error": "invalid_client_message"})
			continue
		}
		if s.metrics != nil {
			s.metrics.WSMessages.WithLabelValues("inbound").Inc()
		}

		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.CompletionTimeout)
		res := s.router.Handle(ctx, frame.UserID, frame.Message)
		cancel()

		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(chatReply{TurnID: uuid.NewString(), Response: res.Reply}); err != nil {
			return
		}
		if s.metrics != nil {
			s.metrics.WSMessages.WithLabelValues("outbound").Inc()
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
