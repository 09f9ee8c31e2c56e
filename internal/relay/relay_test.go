package relay

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chessroom/internal/domain/event"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// startRelayServer upgrades every request, registers the connection and
// immediately tells the client its connection id, so the test can
// address peers deterministically.
func startRelayServer(t *testing.T, rel *Relay, log *zap.SugaredLogger) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := NewConnection(ws, log)
		rel.Register(conn)
		go conn.WritePump()
		rel.Send(conn.ID, event.Make("hello", event.RoomCreated{Code: conn.ID}))
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

type testClient struct {
	ws     *websocket.Conn
	connID string
}

func dialClient(t *testing.T, srv *httptest.Server) *testClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })

	var env event.Envelope
	require.NoError(t, ws.ReadJSON(&env))
	require.Equal(t, "hello", env.Type)
	var hello event.RoomCreated
	require.NoError(t, json.Unmarshal(env.Payload, &hello))
	return &testClient{ws: ws, connID: hello.Code}
}

func (c *testClient) readEnvelope(t *testing.T) event.Envelope {
	t.Helper()
	require.NoError(t, c.ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env event.Envelope
	require.NoError(t, c.ws.ReadJSON(&env))
	return env
}

func (c *testClient) expectSilence(t *testing.T) {
	t.Helper()
	require.NoError(t, c.ws.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var env event.Envelope
	require.Error(t, c.ws.ReadJSON(&env), "expected no event, got %+v", env)
}

func TestBroadcastExcludesSender(t *testing.T) {
	log := zap.NewNop().Sugar()
	rel := New(log)
	srv := startRelayServer(t, rel, log)

	sender := dialClient(t, srv)
	peer := dialClient(t, srv)

	rel.Subscribe(sender.connID, "ROOM01")
	rel.Subscribe(peer.connID, "ROOM01")

	payload := json.RawMessage(`{"from":"e2","to":"e4"}`)
	rel.Broadcast("ROOM01", event.Make(event.TypeMoveMade, event.MoveMade{Move: payload}), sender.connID)

	env := peer.readEnvelope(t)
	require.Equal(t, event.TypeMoveMade, env.Type)
	var made event.MoveMade
	require.NoError(t, json.Unmarshal(env.Payload, &made))
	require.Equal(t, []byte(payload), []byte(made.Move))

	sender.expectSilence(t)
}

func TestBroadcastReachesOnlySubscribedRoom(t *testing.T) {
	log := zap.NewNop().Sugar()
	rel := New(log)
	srv := startRelayServer(t, rel, log)

	inRoom := dialClient(t, srv)
	outsider := dialClient(t, srv)

	rel.Subscribe(inRoom.connID, "ROOM01")
	rel.Subscribe(outsider.connID, "ROOM02")

	rel.Broadcast("ROOM01", event.Make(event.TypePlayerDisconnected, struct{}{}), "")

	require.Equal(t, event.TypePlayerDisconnected, inRoom.readEnvelope(t).Type)
	outsider.expectSilence(t)
}

func TestSendUnicasts(t *testing.T) {
	log := zap.NewNop().Sugar()
	rel := New(log)
	srv := startRelayServer(t, rel, log)

	a := dialClient(t, srv)
	b := dialClient(t, srv)

	rel.Send(a.connID, event.Make(event.TypeRoomCreated, event.RoomCreated{Code: "ABC123"}))

	require.Equal(t, event.TypeRoomCreated, a.readEnvelope(t).Type)
	b.expectSilence(t)
}

func TestReleasedConnectionMissesEvents(t *testing.T) {
	log := zap.NewNop().Sugar()
	rel := New(log)
	srv := startRelayServer(t, rel, log)

	a := dialClient(t, srv)
	b := dialClient(t, srv)

	rel.Subscribe(a.connID, "ROOM01")
	rel.Subscribe(b.connID, "ROOM01")
	rel.Release(a.connID)

	// Releasing twice must be harmless.
	rel.Release(a.connID)

	rel.Broadcast("ROOM01", event.Make(event.TypePlayerDisconnected, struct{}{}), "")
	require.Equal(t, event.TypePlayerDisconnected, b.readEnvelope(t).Type)
}

func TestSubscribeMovesConnectionBetweenRooms(t *testing.T) {
	log := zap.NewNop().Sugar()
	rel := New(log)
	srv := startRelayServer(t, rel, log)

	c := dialClient(t, srv)

	rel.Subscribe(c.connID, "ROOM01")
	rel.Subscribe(c.connID, "ROOM02")

	rel.Broadcast("ROOM01", event.Make(event.TypePlayerDisconnected, struct{}{}), "")
	c.expectSilence(t)

	rel.Broadcast("ROOM02", event.Make(event.TypePlayerDisconnected, struct{}{}), "")
	require.Equal(t, event.TypePlayerDisconnected, c.readEnvelope(t).Type)
}

func TestDropRoomStopsFanOut(t *testing.T) {
	log := zap.NewNop().Sugar()
	rel := New(log)
	srv := startRelayServer(t, rel, log)

	c := dialClient(t, srv)
	rel.Subscribe(c.connID, "ROOM01")
	rel.DropRoom("ROOM01")

	rel.Broadcast("ROOM01", event.Make(event.TypePlayerDisconnected, struct{}{}), "")
	c.expectSilence(t)
}
