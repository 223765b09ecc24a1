package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"i4.energy/across/fakeril/modem"
	"i4.energy/across/fakeril/settings"
)

const (
	wsOutboundQueue = 256
	wsPingInterval  = 30 * time.Second
)

// Server exposes the control API of the simulated modem and carries RIL
// frames over websocket connections.
type Server struct {
	Logger   *slog.Logger
	Modem    *modem.Modem
	Settings *settings.Store
	// Slot is the SIM slot whose card presence is stored in Settings
	Slot int

	router   *mux.Router
	upgrader websocket.Upgrader
}

// NewServer creates a Server and registers its routes.
func NewServer(logger *slog.Logger, m *modem.Modem, store *settings.Store, slot int) *Server {
	s := &Server{
		Logger:   logger,
		Modem:    m,
		Settings: store,
		Slot:     slot,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	// Routes stay on the root router: a method mismatch on a subrouter is
	// reported as 404 instead of 405.
	r := mux.NewRouter()
	r.HandleFunc("/api/commands/incoming-call", s.handleIncomingCall).Methods(http.MethodPost)
	r.HandleFunc("/api/sim", s.handleGetSIM).Methods(http.MethodGet)
	r.HandleFunc("/api/sim", s.handlePutSIM).Methods(http.MethodPut)
	r.HandleFunc("/api/state", s.handleState).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ws/ril", s.handleRIL)
	s.router = r

	return s
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	s.sendJSON(w, ErrorResponse{Message: message}, statusCode)
}

func (s *Server) sendJSON(w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Warn("Failed to encode response", "error", err)
	}
}

// modemError maps modem loop errors onto HTTP statuses.
func (s *Server) modemError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, modem.ErrNotRunning), errors.Is(err, modem.ErrAlreadyClosed):
		s.sendError(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		s.sendError(w, err.Error(), http.StatusGatewayTimeout)
	default:
		s.sendError(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleIncomingCall makes the simulated network ring the device
func (s *Server) handleIncomingCall(w http.ResponseWriter, r *http.Request) {
	type IncomingCallRequest struct {
		Number string `json:"number"`
	}

	var req IncomingCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Number == "" {
		s.sendError(w, "'number' field is required", http.StatusBadRequest)
		return
	}

	err := s.Modem.PostCommand(r.Context(), modem.CommandIncomingCall, modem.CommandOptions{Number: req.Number})
	if err != nil {
		s.Logger.Error("Failed to post incoming call", "error", err, "number", req.Number)
		s.modemError(w, err)
		return
	}

	s.Logger.Info("Incoming call posted", "number", req.Number)
	w.WriteHeader(http.StatusAccepted)
}

type simResponse struct {
	Slot     int  `json:"slot"`
	Inserted bool `json:"inserted"`
}

func (s *Server) handleGetSIM(w http.ResponseWriter, r *http.Request) {
	inserted, err := s.Settings.CardInserted(r.Context(), s.Slot)
	if err != nil {
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.sendJSON(w, simResponse{Slot: s.Slot, Inserted: inserted}, http.StatusOK)
}

// handlePutSIM stores the card presence, then inserts or removes the card
func (s *Server) handlePutSIM(w http.ResponseWriter, r *http.Request) {
	type SIMRequest struct {
		Inserted *bool `json:"inserted"`
	}

	var req SIMRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Inserted == nil {
		s.sendError(w, "'inserted' field is required", http.StatusBadRequest)
		return
	}

	if err := s.Settings.SetCardInserted(r.Context(), s.Slot, *req.Inserted); err != nil {
		s.Logger.Error("Failed to store card presence", "error", err)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := s.Modem.SetCardPresent(r.Context(), *req.Inserted); err != nil {
		s.Logger.Error("Failed to change card presence", "error", err)
		s.modemError(w, err)
		return
	}

	s.Logger.Info("Card presence changed", "slot", s.Slot, "inserted", *req.Inserted)
	s.sendJSON(w, simResponse{Slot: s.Slot, Inserted: *req.Inserted}, http.StatusOK)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Modem.Snapshot(r.Context())
	if err != nil {
		s.modemError(w, err)
		return
	}
	s.sendJSON(w, snap, http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.Modem.Running() {
		s.sendError(w, modem.ErrNotRunning.Error(), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleRIL carries RIL frames over a websocket. Each binary message from
// the client holds one or more whole request frames; every outbound frame
// is sent as its own binary message.
func (s *Server) handleRIL(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	log := s.Logger.With("session", uuid.NewString(), "remote", r.RemoteAddr)
	log.Info("RIL client connected")

	outbound := make(chan []byte, wsOutboundQueue)
	unsubscribe := s.Modem.OnFrame(func(frame []byte) {
		select {
		case outbound <- frame:
		default:
			log.Warn("outbound queue full, dropping frame", "bytes", len(frame))
		}
	})
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		defer cancel()
		for {
			messageType, data, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warn("RIL client read failed", "error", err)
				}
				return
			}
			if messageType != websocket.BinaryMessage {
				log.Warn("ignoring non-binary message", "type", messageType)
				continue
			}
			if err := s.Modem.SubmitFrame(ctx, data); err != nil {
				log.Error("Failed to submit frame", "error", err)
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("RIL client disconnected")
			return
		case frame := <-outbound:
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				log.Warn("RIL client write failed", "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn("RIL client ping failed", "error", err)
				return
			}
		}
	}
}
