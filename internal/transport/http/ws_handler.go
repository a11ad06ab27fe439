package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"globetrotter/internal/app"
	"globetrotter/internal/domain"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WSHandler struct {
	service  *app.GameService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	RoundID string `json:"roundId"`
	Option  string `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

// ServeWS upgrades HTTP requests to websockets and runs a player's game over them.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		http.Error(w, "missing username", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	profile, created, err := h.service.Register(r.Context(), username)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err.Error()))
		return
	}

	updates, cancel, err := h.service.Subscribe(r.Context())
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err.Error()))
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer goroutine; gorilla connections allow one concurrent writer.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", zap.Error(err))
				conn.Close()
				for range send {
				}
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "joined", Payload: profileView{Profile: profile, Created: created}}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "leaderboard", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "next":
			round, err := h.service.NewRound(r.Context(), profile.Username)
			if err != nil {
				send <- errorMessage(roundErrorText(err))
				continue
			}
			send <- outboundMessage[any]{Type: "question", Payload: newQuestionView(round)}
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage("invalid answer payload")
				continue
			}
			result, err := h.service.Submit(r.Context(), payload.RoundID, profile.Username, payload.Option)
			if err != nil {
				send <- errorMessage(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "result", Payload: result}
		case "leaderboard":
			lb, err := h.service.Leaderboard(r.Context(), 0)
			if err != nil {
				send <- errorMessage("leaderboard unavailable")
				continue
			}
			send <- outboundMessage[any]{Type: "leaderboard", Payload: lb}
		default:
			send <- errorMessage("unsupported message type")
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// roundErrorText hides backend detail behind a retryable message.
func roundErrorText(err error) string {
	if errors.Is(err, domain.ErrDestinationsUnavailable) || errors.Is(err, domain.ErrEmptyPool) {
		return "could not load destination data, please try again"
	}
	return err.Error()
}
