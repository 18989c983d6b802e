package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func testGateway(t *testing.T) *Gateway {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return NewGateway(Config{JWTSecret: testSecret}, nil, nil, nil)
}

func authToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (g *Gateway) clientCount() int {
	g.wsMu.RLock()
	defer g.wsMu.RUnlock()
	return len(g.wsClients)
}

func (g *Gateway) firstClient() *wsClient {
	g.wsMu.RLock()
	defer g.wsMu.RUnlock()
	for _, c := range g.wsClients {
		return c
	}
	return nil
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	header := http.Header{"Authorization": []string{"Bearer " + authToken(t)}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	return conn
}

func TestWebSocketRejectsMissingToken(t *testing.T) {
	g := testGateway(t)
	srv := httptest.NewServer(g.Router())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketBroadcast(t *testing.T) {
	g := testGateway(t)
	srv := httptest.NewServer(g.Router())
	defer srv.Close()

	conn := dialWS(t, srv)
	defer conn.Close()

	require.Eventually(t, func() bool { return g.clientCount() == 1 },
		time.Second, 10*time.Millisecond)

	g.broadcast(&nats.Msg{Data: []byte(`{"total_gwp":"42"}`)})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(payload), "42")
}

func TestWebSocketDisconnectTearsDownClient(t *testing.T) {
	g := testGateway(t)
	srv := httptest.NewServer(g.Router())
	defer srv.Close()

	conn := dialWS(t, srv)
	require.Eventually(t, func() bool { return g.clientCount() == 1 },
		time.Second, 10*time.Millisecond)
	client := g.firstClient()
	require.NotNil(t, client)

	conn.Close()

	// The read pump notices the disconnect, deregisters the client and
	// closes done, which releases the write pump even when no further
	// broadcast ever arrives.
	select {
	case <-client.done:
	case <-time.After(time.Second):
		t.Fatal("client done channel not closed after disconnect")
	}
	require.Eventually(t, func() bool { return g.clientCount() == 0 },
		time.Second, 10*time.Millisecond)

	// Broadcasting afterwards must not panic or block.
	g.broadcast(&nats.Msg{Data: []byte(`{}`)})
}

func TestRemoveClientIsIdempotent(t *testing.T) {
	g := testGateway(t)
	srv := httptest.NewServer(g.Router())
	defer srv.Close()

	conn := dialWS(t, srv)
	require.Eventually(t, func() bool { return g.clientCount() == 1 },
		time.Second, 10*time.Millisecond)
	client := g.firstClient()
	require.NotNil(t, client)

	g.removeClient(client)
	g.removeClient(client) // second call must not close done again
	assert.Equal(t, 0, g.clientCount())
	conn.Close()
}
