package session

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chessroom/internal/domain/event"
	"chessroom/internal/httpresponse"
	"chessroom/internal/relay"
	sessionuc "chessroom/internal/usecase/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Handler struct {
	log        *zap.SugaredLogger
	relay      *relay.Relay
	controller *sessionuc.Controller
}

func NewHandler(log *zap.SugaredLogger, rel *relay.Relay, controller *sessionuc.Controller) *Handler {
	return &Handler{
		log:        log,
		relay:      rel,
		controller: controller,
	}
}

// HandleWS upgrades the request and drives the session protocol for one
// connection: decode envelope, dispatch to the controller, repeat. On
// transport close the controller's disconnect handler runs before the
// relay releases the connection id, so directory teardown always sees a
// consistent connection set.
func (h *Handler) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Errorw("websocket upgrade failed", "error", err)
		return
	}

	conn := relay.NewConnection(ws, h.log)
	h.relay.Register(conn)
	go conn.WritePump()
	h.log.Infow("client connected", "conn", conn.ID)

	defer func() {
		h.controller.HandleDisconnect(conn.ID)
		h.relay.Release(conn.ID)
		ws.Close()
		h.log.Infow("client disconnected", "conn", conn.ID)
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var env event.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			h.relay.Send(conn.ID, event.Make(event.TypeError, event.ErrorEvent{Reason: event.ReasonBadRequest}))
			continue
		}
		h.controller.HandleEvent(conn.ID, env)
	}
}

// HandleRooms lists rooms still waiting for an opponent.
func (h *Handler) HandleRooms(w http.ResponseWriter, r *http.Request) {
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, h.controller.WaitingRooms())
}
