// internal/bank/notifier.go
//
// 新身分加入時的 fire-and-forget 通知埠（例如啟動外部 onboarding 流程）。
// 通知失敗或不存在都不影響記帳操作本身。

package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// Notifier 接收新身分加入事件。
type Notifier interface {
	Onboarded(ctx context.Context, owner Owner) error
}

// NopNotifier 不做任何事。
type NopNotifier struct{}

func (NopNotifier) Onboarded(context.Context, Owner) error { return nil }

// NotifierFunc 讓一般函式滿足 Notifier。
type NotifierFunc func(ctx context.Context, owner Owner) error

func (f NotifierFunc) Onboarded(ctx context.Context, owner Owner) error { return f(ctx, owner) }

// WebhookNotifier 以 JSON POST 將事件送往外部 URL。
type WebhookNotifier struct {
	url       string
	client    *http.Client
	delivered *atomic.Int64
	failed    *atomic.Int64
}

// NewWebhookNotifier 建立 webhook 通知器；timeout <= 0 時使用 5 秒。
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookNotifier{
		url:       url,
		client:    &http.Client{Timeout: timeout},
		delivered: atomic.NewInt64(0),
		failed:    atomic.NewInt64(0),
	}
}

type onboardingEvent struct {
	Event   string    `json:"event"`
	OwnerID string    `json:"owner_id"`
	Name    string    `json:"name"`
	SentAt  time.Time `json:"sent_at"`
}

// Onboarded 送出事件；非 2xx 視為失敗。
func (w *WebhookNotifier) Onboarded(ctx context.Context, owner Owner) error {
	err := w.send(ctx, owner)
	if err != nil {
		w.failed.Inc()
		return err
	}
	w.delivered.Inc()
	return nil
}

func (w *WebhookNotifier) send(ctx context.Context, owner Owner) error {
	body, err := json.Marshal(onboardingEvent{
		Event:   "owner.onboarded",
		OwnerID: owner.ID,
		Name:    owner.Name,
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		return errors.Wrap(err, "encode onboarding event")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build onboarding request")
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "post onboarding event")
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("onboarding webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Delivered 回傳成功送達次數。
func (w *WebhookNotifier) Delivered() int64 { return w.delivered.Load() }

// Failed 回傳失敗次數。
func (w *WebhookNotifier) Failed() int64 { return w.failed.Load() }
