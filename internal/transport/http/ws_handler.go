package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sebspolo/scrobble-guessr/internal/app"
	"github.com/sebspolo/scrobble-guessr/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
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

type fetchPayload struct {
	Users string `json:"users"`
}

type startPayload struct {
	Periods    []string `json:"periods"`
	Categories []string `json:"categories"`
}

type answerPayload struct {
	Choice string `json:"choice"`
	Key    string `json:"key"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and drives one quiz session
// per connection. Pass ?session=<id> to attach to a session another
// connection already holds.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	h.service.Open(sessionID)
	updates, cancel, err := h.service.Subscribe(r.Context(), sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.Close(context.Background(), sessionID)
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})
	var fetches sync.WaitGroup

	reply := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-closeSignals:
		}
	}
	fail := func(err error) {
		reply(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
	}

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
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
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// Fetches outlive the request so a started batch always completes.
	bg := context.WithoutCancel(r.Context())

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "fetch":
			var payload fetchPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				fail(domain.Invalidf("invalid fetch payload"))
				continue
			}
			fetches.Add(1)
			go func() {
				defer fetches.Done()
				if _, err := h.service.Fetch(bg, sessionID, payload.Users); err != nil {
					fail(err)
				}
			}()
		case "start":
			var payload startPayload
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					fail(domain.Invalidf("invalid start payload"))
					continue
				}
			}
			periods, err := domain.ParsePeriods(payload.Periods)
			if err != nil {
				fail(err)
				continue
			}
			categories, err := domain.ParseCategories(payload.Categories)
			if err != nil {
				fail(err)
				continue
			}
			if _, err := h.service.Start(r.Context(), sessionID, periods, categories); err != nil {
				fail(err)
			}
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				fail(domain.Invalidf("invalid answer payload"))
				continue
			}
			if payload.Key != "" {
				_, err = h.service.AnswerKey(r.Context(), sessionID, payload.Key)
			} else {
				_, err = h.service.Answer(r.Context(), sessionID, payload.Choice)
			}
			if err != nil {
				fail(err)
			}
		case "next":
			if _, err := h.service.Advance(r.Context(), sessionID); err != nil {
				fail(err)
			}
		case "replay":
			if _, err := h.service.Replay(r.Context(), sessionID); err != nil {
				fail(err)
			}
		case "refetch":
			if _, err := h.service.Refetch(r.Context(), sessionID); err != nil {
				fail(err)
			}
		default:
			fail(domain.Invalidf("unsupported message type %q", inbound.Type))
		}
	}

	close(closeSignals)
	fetches.Wait()
	<-updatesDone
	close(send)
	<-writerDone
}
