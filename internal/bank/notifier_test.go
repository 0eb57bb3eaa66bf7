package bank

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestWebhookNotifier(t *testing.T) {
	events := make(chan onboardingEvent, 2)
	status := atomic.NewInt64(http.StatusAccepted)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var ev onboardingEvent
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
		events <- ev
		w.WriteHeader(int(status.Load()))
	}))
	defer ts.Close()

	n := NewWebhookNotifier(ts.URL, 0)
	require.NoError(t, n.Onboarded(context.Background(), Owner{ID: passport, Name: "Anton"}))
	got := <-events
	assert.Equal(t, "owner.onboarded", got.Event)
	assert.Equal(t, passport, got.OwnerID)
	assert.EqualValues(t, 1, n.Delivered())

	// 非 2xx 視為失敗
	status.Store(http.StatusInternalServerError)
	err := n.Onboarded(context.Background(), Owner{ID: passport})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.EqualValues(t, 1, n.Failed())
	assert.EqualValues(t, 1, n.Delivered())
}
