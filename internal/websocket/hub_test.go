package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sampletrack/internal/domain"
	"sampletrack/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newHubServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	r := testutil.SetupRouter()
	r.GET("/ws", func(c *gin.Context) { ServeWs(hub, c, []byte(testutil.JWTSecret)) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, srv
}

func wsURL(srv *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
}

func TestServeWs_RejectsBadTokens(t *testing.T) {
	_, srv := newHubServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(wsURL(srv, "garbage"), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(wsURL(srv, testutil.GenerateToken(uuid.New(), domain.Role("GUEST"), "g")), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHub_PublishReachesClients(t *testing.T) {
	hub, srv := newHubServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, testutil.GenerateToken(uuid.New(), domain.RolePD, "p")), nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(map[string]string{"type": "sample.updated", "sample_id": "s-1"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"sample.updated","sample_id":"s-1"}`, string(msg))

	_ = conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

type sampleEvent struct {
	SampleID string `json:"sample_id"`
}

func (e sampleEvent) Topic() string { return e.SampleID }

func TestHub_SampleSubscription(t *testing.T) {
	hub, srv := newHubServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, testutil.GenerateToken(uuid.New(), domain.RoleMD, "m"))+"&sample_ids=s-1,s-3", nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(sampleEvent{SampleID: "s-2"})
	hub.Publish(sampleEvent{SampleID: "s-3"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"sample_id":"s-3"}`, string(msg))
}

func TestParseTopics(t *testing.T) {
	assert.Nil(t, parseTopics(" "))
	assert.Len(t, parseTopics("a, b,,a"), 2)
}

func TestHub_ShutdownReleasesConnections(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(zap.NewNop())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	served := make(chan struct{}, 4)
	r := testutil.SetupRouter()
	r.GET("/ws", func(c *gin.Context) {
		ServeWs(hub, c, []byte(testutil.JWTSecret))
		served <- struct{}{}
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	url := wsURL(srv, testutil.GenerateToken(uuid.New(), domain.RolePD, "p"))

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	<-served
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
	assert.Zero(t, hub.ClientCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)

	late, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = late.Close() }()
	select {
	case <-served:
	case <-time.After(2 * time.Second):
		t.Fatal("upgrade after shutdown never returned")
	}
	require.NoError(t, late.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = late.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
