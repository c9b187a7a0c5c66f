package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tobogganhq/toboggan/internal/core/kernel"
	"github.com/tobogganhq/toboggan/internal/domain/entities"
)

func newWSTestServer(t *testing.T) (*httptest.Server, *kernel.Kernel) {
	t.Helper()
	k := kernel.New(10)
	k.Deck.Swap(testDeck())
	s := New(k, &entities.ServerConfig{Environment: "development"}, nil, "")

	srv := httptest.NewServer(http.HandlerFunc(s.handleWebSocket))
	t.Cleanup(srv.Close)
	return srv, k
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + srv.URL[len("http"):]
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn
}

func TestWebSocket_FirstFrameMustBeRegister(t *testing.T) {
	srv, _ := newWSTestServer(t)
	conn := dialWS(t, srv)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(entities.First()))

	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "server must close the connection when the first frame is not Register")
}

func TestWebSocket_RegisterThenReceivesAck(t *testing.T) {
	srv, _ := newWSTestServer(t)
	conn := dialWS(t, srv)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(entities.Register("alice")))

	var notif entities.Notification
	require.NoError(t, conn.ReadJSON(&notif))
	assert.Equal(t, entities.NotifyRegistered, notif.Kind)
}

func TestWebSocket_NavigationCommandBroadcastsState(t *testing.T) {
	srv, _ := newWSTestServer(t)
	conn := dialWS(t, srv)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(entities.Register("alice")))
	var ack entities.Notification
	require.NoError(t, conn.ReadJSON(&ack))

	// Registration seeds the session with the current state (Init).
	var seed entities.Notification
	require.NoError(t, conn.ReadJSON(&seed))
	assert.Equal(t, entities.NotifyState, seed.Kind)
	assert.True(t, seed.State.IsInit())

	require.NoError(t, conn.WriteJSON(entities.First()))

	var notif entities.Notification
	require.NoError(t, conn.ReadJSON(&notif))
	assert.Equal(t, entities.NotifyState, notif.Kind)
	assert.Equal(t, entities.Running(0, 0), notif.State)
}

func TestWebSocket_InvalidCommandIsIgnoredNotFatal(t *testing.T) {
	srv, _ := newWSTestServer(t)
	conn := dialWS(t, srv)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(entities.Register("alice")))
	var ack entities.Notification
	require.NoError(t, conn.ReadJSON(&ack))
	var seed entities.Notification
	require.NoError(t, conn.ReadJSON(&seed))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(entities.First()))

	var notif entities.Notification
	require.NoError(t, conn.ReadJSON(&notif))
	assert.Equal(t, entities.NotifyState, notif.Kind, "the connection survives a malformed frame")
}

func TestWebSocket_SecondClientReceivesConnectedBroadcast(t *testing.T) {
	srv, _ := newWSTestServer(t)

	alice := dialWS(t, srv)
	defer alice.Close()
	require.NoError(t, alice.WriteJSON(entities.Register("alice")))
	var ack entities.Notification
	require.NoError(t, alice.ReadJSON(&ack))
	var seed entities.Notification
	require.NoError(t, alice.ReadJSON(&seed))

	bob := dialWS(t, srv)
	defer bob.Close()
	require.NoError(t, bob.WriteJSON(entities.Register("bob")))
	var bobAck entities.Notification
	require.NoError(t, bob.ReadJSON(&bobAck))

	var notif entities.Notification
	require.NoError(t, alice.ReadJSON(&notif))
	assert.Equal(t, entities.NotifyClientConnected, notif.Kind)
	assert.Equal(t, "bob", notif.Name)
}
