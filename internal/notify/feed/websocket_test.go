package feed

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaaa08012006/decivue-sub004/internal/notify"
)

func TestHandler_BroadcastsEventToConnectedClient(t *testing.T) {
	bus := notify.NewBus(nil, nil)
	require.NoError(t, bus.Start(t.Context()))

	server := httptest.NewServer(Handler(bus, nil, func(r *http.Request) string {
		return r.URL.Query().Get("org")
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?org=org-a"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Eventually(t, func() bool { return bus.ActiveSubscribers() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, bus.Publish(notify.Event{
		Type:    "lifecycle_changed",
		OrgID:   "org-a",
		Message: "test",
	}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var got notify.Event
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, "lifecycle_changed", got.Type)
}
