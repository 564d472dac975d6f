package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(nil)
	r := gin.New()
	r.GET("/ws/stock", hub.ServeWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, rawQuery string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/stock"
	if rawQuery != "" {
		url += "?" + rawQuery
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var e Event
	require.NoError(t, json.Unmarshal(msg, &e))
	return e
}

func TestHubDeliversOnlyMatchingEvents(t *testing.T) {
	hub, srv := startHub(t)
	acme := dial(t, srv, "manufacturer=acme")
	all := dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.Count() == 2 }, 2*time.Second, 10*time.Millisecond)

	ctx := context.Background()
	require.NoError(t, hub.Publish(ctx, Event{Type: TypeReserved, EquipmentID: 1, Name: "Switch", Manufacturer: "Netgear", Price: 1500, Quantity: 4}))
	require.NoError(t, hub.Publish(ctx, Event{Type: TypeReserved, EquipmentID: 2, Name: "Router X", Manufacturer: "ACME", Price: 500, Quantity: 1}))

	got := readEvent(t, acme)
	assert.Equal(t, int64(2), got.EquipmentID)

	first := readEvent(t, all)
	second := readEvent(t, all)
	assert.Equal(t, int64(1), first.EquipmentID)
	assert.Equal(t, int64(2), second.EquipmentID)
}

func TestHubWipeReachesFilteredClients(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "min_price=100000")
	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), Event{Type: TypeWiped}))
	assert.Equal(t, TypeWiped, readEvent(t, conn).Type)
}

func TestHubRejectsBadFilter(t *testing.T) {
	_, srv := startHub(t)

	resp, err := http.Get(srv.URL + "/ws/stock?min_price=abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/ws/stock?min_price=10&max_price=1")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestHubUnregistersOnClose(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, Event) error {
	f.calls++
	return errors.New("broker down")
}

type recordingPublisher struct{ got []Event }

func (r *recordingPublisher) Publish(_ context.Context, e Event) error {
	r.got = append(r.got, e)
	return nil
}

func TestMultiContinuesPastFailures(t *testing.T) {
	bad := &failingPublisher{}
	rec := &recordingPublisher{}
	m := Multi{bad, nil, rec}

	err := m.Publish(context.Background(), Event{Type: TypeAdded, EquipmentID: 9})
	assert.Error(t, err)
	assert.Equal(t, 1, bad.calls)
	require.Len(t, rec.got, 1)
	assert.Equal(t, int64(9), rec.got[0].EquipmentID)

	Emit(context.Background(), m, Event{Type: TypeEdited}, Event{Type: TypeRemoved})
	assert.Equal(t, 3, bad.calls)
	assert.Len(t, rec.got, 3)
}
