package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/tobogganhq/toboggan/internal/domain/entities"
)

// errorResponse mirrors the teacher's ApiResponse/ErrorResponse pair. It is
// the error body of the read endpoints (talk, slides, slide); the command
// endpoint answers with an Error notification via writeNotification, which
// carries the same type/message fields.
type errorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response: %v", err)
	}
}

// writeNotification writes n as the JSON response body with the given
// status; the caller picks it (handleCommand uses 400 for a rejected or
// failed command and 200 otherwise).
func (s *Server) writeNotification(w http.ResponseWriter, n entities.Notification, status int) {
	s.writeJSON(w, status, n)
}

func (s *Server) handleTalk(w http.ResponseWriter, r *http.Request) {
	deck := s.kernel.Deck.Current()
	if deck == nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Type: "error", Message: "no deck loaded"})
		return
	}
	s.writeJSON(w, http.StatusOK, deck)
}

func (s *Server) handleSlides(w http.ResponseWriter, r *http.Request) {
	deck := s.kernel.Deck.Current()
	if deck == nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Type: "error", Message: "no deck loaded"})
		return
	}
	s.writeJSON(w, http.StatusOK, deck.Slides)
}

func (s *Server) handleSlide(w http.ResponseWriter, r *http.Request) {
	deck := s.kernel.Deck.Current()
	if deck == nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Type: "error", Message: "no deck loaded"})
		return
	}

	raw := mux.Vars(r)["index"]
	index, err := strconv.Atoi(raw)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Type: "error", Message: "invalid slide index"})
		return
	}

	slide, err := deck.Slide(entities.SlideID(index))
	if err != nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Type: "error", Message: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, slide)
}

// handleCommand is the HTTP command surface (§4.E): acquires the
// coordination kernel, computes the transition, broadcasts the resulting
// notification, and echoes it back to the caller.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd entities.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		s.writeNotification(w, entities.NotifyErrorOf("invalid command body: "+err.Error()), http.StatusBadRequest)
		return
	}

	if cmd.Kind == entities.CmdRegister || cmd.Kind == entities.CmdUnregister {
		s.writeNotification(w, entities.NotifyErrorOf("register/unregister are WebSocket-only"), http.StatusBadRequest)
		return
	}

	session := s.kernel.NewSession()
	notif, err := session.Handle(cmd)
	if err != nil {
		status := http.StatusBadRequest
		s.writeNotification(w, notif, status)
		return
	}
	s.writeNotification(w, notif, http.StatusOK)
}

func (s *Server) handleClients(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.kernel.Registry.Snapshot())
}

// healthResponse carries the supplemented fields from
// original_source/toboggan-server/src/domain/health.rs: started_at,
// elapsed, talk, active_clients.
type healthResponse struct {
	Status        string    `json:"status"`
	StartedAt     time.Time `json:"started_at"`
	ElapsedSecs   float64   `json:"elapsed"`
	Talk          string    `json:"talk,omitempty"`
	ActiveClients int       `json:"active_clients"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var talk string
	if deck := s.kernel.Deck.Current(); deck != nil {
		talk = deck.Title
	}
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		StartedAt:     s.startedAt,
		ElapsedSecs:   time.Since(s.startedAt).Seconds(),
		Talk:          talk,
		ActiveClients: s.kernel.Registry.Len(),
	})
}
