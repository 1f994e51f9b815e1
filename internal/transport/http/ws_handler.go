package http

import (
	"context"
	"encoding/json"
	"net/http"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WSHandler struct {
	service  *app.GameService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
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
	Option string `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
}

// ServeWS upgrades HTTP requests to websockets and plays one game per connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	playerID := query.Get("player")
	displayName := query.Get("name")
	if playerID == "" || displayName == "" {
		http.Error(w, "missing player or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := r.Context()
	first, err := h.service.Start(ctx, app.StartRequest{
		PlayerID:    playerID,
		DisplayName: displayName,
		Catalog:     query.Get("catalog"),
		Variant:     query.Get("variant"),
	})
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	gameID := first.GameID
	defer h.service.End(context.Background(), gameID)

	updates, cancel := h.service.Subscribe(ctx)
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer: gorilla connections do not support concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", zap.String("game_id", gameID), zap.Error(err))
				// unblocks ReadJSON in the read loop
				_ = conn.Close()
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "scoreboard", Payload: update}:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	if enqueue(send, writerDone, outboundMessage[any]{Type: "question", Payload: first}) {
		for {
			var inbound inboundMessage
			if err := conn.ReadJSON(&inbound); err != nil {
				break
			}
			if !enqueue(send, writerDone, h.handle(ctx, gameID, inbound)) {
				break
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// enqueue hands msg to the writer. It reports false once the writer has
// stopped.
func enqueue(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}

func (h *WSHandler) handle(ctx context.Context, gameID string, inbound inboundMessage) outboundMessage[any] {
	var (
		snap domain.Snapshot
		err  error
	)
	switch inbound.Type {
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
		}
		result, err := h.service.Answer(ctx, gameID, payload.Option)
		if err != nil {
			return errorMessage(err)
		}
		return outboundMessage[any]{Type: "answerResult", Payload: result}
	case "previous":
		snap, err = h.service.Previous(ctx, gameID)
	case "next":
		snap, err = h.service.Next(ctx, gameID)
	case "restart":
		snap, err = h.service.Restart(ctx, gameID)
	case "state":
		snap, err = h.service.Snapshot(ctx, gameID)
	default:
		return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
	}
	if err != nil {
		return errorMessage(err)
	}
	return outboundMessage[any]{Type: "question", Payload: snap}
}
