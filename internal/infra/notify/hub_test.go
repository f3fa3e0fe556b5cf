package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lanebid/drayage-portal/internal/domain"
	"github.com/lanebid/drayage-portal/internal/infra/notify"
	"github.com/lanebid/drayage-portal/internal/infra/observability"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublishFansOut(t *testing.T) {
	metrics := observability.NewMetrics()
	hub := notify.NewHub(4, nil, metrics, zap.NewNop())

	a, b := hub.Subscribe(), hub.Subscribe()
	defer a.Cancel()
	defer b.Cancel()
	assert.EqualValues(t, 2, metrics.Snapshot().LiveSubscribers)

	hub.Publish(context.Background(), domain.NewEvent(domain.EventRouteCreated, map[string]string{"id": "route-sav-pooler-ga"}))

	for _, sub := range []*notify.Subscription{a, b} {
		var got domain.Event
		require.NoError(t, json.Unmarshal(<-sub.C, &got))
		assert.Equal(t, domain.EventRouteCreated, got.Type)
	}
	assert.EqualValues(t, 1, metrics.Snapshot().EventsPublished)
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	metrics := observability.NewMetrics()
	hub := notify.NewHub(1, nil, metrics, zap.NewNop())
	slow := hub.Subscribe()

	hub.Publish(context.Background(), domain.NewEvent(domain.EventBidSubmitted, nil))
	hub.Publish(context.Background(), domain.NewEvent(domain.EventBidSubmitted, nil))

	assert.Equal(t, 0, hub.Len())
	_, ok := <-slow.C
	assert.True(t, ok, "buffered event still delivered")
	_, ok = <-slow.C
	assert.False(t, ok, "channel closed after drop")
	assert.EqualValues(t, 0, metrics.Snapshot().LiveSubscribers)

	slow.Cancel() // no-op after drop
}

func TestCancelAndClose(t *testing.T) {
	hub := notify.NewHub(0, nil, observability.NewMetrics(), zap.NewNop())
	a := hub.Subscribe()
	hub.Subscribe()

	a.Cancel()
	a.Cancel()
	assert.Equal(t, 1, hub.Len())

	hub.Close()
	assert.Equal(t, 0, hub.Len())
}

func TestServeWSStreamsEvents(t *testing.T) {
	hub := notify.NewHub(4, []string{"http://localhost:5173"}, observability.NewMetrics(), zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	hub.Publish(context.Background(), domain.NewEvent(domain.EventVendorDeleted, map[string]string{"vendorId": "v2"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got domain.Event
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, domain.EventVendorDeleted, got.Type)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServeWSRejectsForeignOrigin(t *testing.T) {
	hub := notify.NewHub(4, []string{"http://localhost:5173"}, observability.NewMetrics(), zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
