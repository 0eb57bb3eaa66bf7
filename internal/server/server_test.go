// internal/server/server_test.go
//
// server 層整合測試：以 httptest.Server 模擬完整 HTTP 流程，
// 驗證 REST API 與 bank.Engine 的整合、錯誤代碼映射與指標輸出。
package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankledger/internal/bank"
	"bankledger/internal/ledger"
)

// doJSON 送出 JSON 請求並驗證狀態碼；out 非 nil 時解析回應。
func doJSON(t *testing.T, c *http.Client, method, url string, body any, wantCode int, out any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, wantCode, resp.StatusCode, "%s %s", method, url)
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
}

type result struct {
	Success          bool     `json:"success"`
	Message          string   `json:"message"`
	ResultingBalance *float64 `json:"resulting_balance"`
}

func newTestServer(t *testing.T) (*httptest.Server, *bank.Engine, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	e := bank.NewEngine(bank.WithMetrics(bank.NewMetrics(reg)))
	ts := httptest.NewServer(NewServer(e, nil).Router(reg))
	t.Cleanup(ts.Close)
	return ts, e, reg
}

func TestHTTPFlow(t *testing.T) {
	ts, e, _ := newTestServer(t)
	cli := ts.Client()

	// 1️⃣ 身分與帳戶
	doJSON(t, cli, "POST", ts.URL+"/owners", map[string]any{"id": "3434", "name": "Ada"}, 201, nil)
	doJSON(t, cli, "POST", ts.URL+"/owners", map[string]any{"id": "3434"}, 409, nil)

	var acct struct {
		OwnerID   string  `json:"owner_id"`
		AccountID string  `json:"account_id"`
		Balance   float64 `json:"balance"`
	}
	doJSON(t, cli, "POST", ts.URL+"/owners/3434/accounts", map[string]any{"account_id": "1", "initial_balance": 100}, 201, &acct)
	assert.Equal(t, 100.0, acct.Balance)
	doJSON(t, cli, "POST", ts.URL+"/owners/3434/accounts", map[string]any{"account_id": "2"}, 201, nil)
	doJSON(t, cli, "POST", ts.URL+"/owners/3434/accounts", map[string]any{"account_id": "2"}, 409, nil)
	doJSON(t, cli, "POST", ts.URL+"/owners/3434/accounts", map[string]any{"account_id": "3", "initial_balance": -1}, 400, nil)
	doJSON(t, cli, "POST", ts.URL+"/owners/nobody/accounts", map[string]any{"account_id": "1"}, 404, nil)

	var list []map[string]any
	doJSON(t, cli, "GET", ts.URL+"/owners/3434/accounts", nil, 200, &list)
	assert.Len(t, list, 2)

	// 2️⃣ 存款與提款（經由 /api/v1 前綴）
	var res result
	doJSON(t, cli, "POST", ts.URL+"/api/v1/accounts/3434/1/deposit", map[string]any{"amount": 50}, 200, &res)
	assert.True(t, res.Success)
	assert.Equal(t, "Deposit completed successfully.", res.Message)
	require.NotNil(t, res.ResultingBalance)
	assert.Equal(t, 150.0, *res.ResultingBalance)

	res = result{}
	doJSON(t, cli, "POST", ts.URL+"/accounts/3434/1/withdraw", map[string]any{"amount": 20}, 200, &res)
	assert.Equal(t, 130.0, *res.ResultingBalance)

	// 3️⃣ 轉帳：resulting_balance 為來源帳戶餘額
	res = result{}
	doJSON(t, cli, "POST", ts.URL+"/transfer", map[string]any{
		"from":   map[string]string{"owner_id": "3434", "account_id": "1"},
		"to":     map[string]string{"owner_id": "3434", "account_id": "2"},
		"amount": 30,
	}, 200, &res)
	assert.Equal(t, 100.0, *res.ResultingBalance)

	var bal struct {
		Balance float64 `json:"balance"`
	}
	doJSON(t, cli, "GET", ts.URL+"/accounts/3434/2/balance", nil, 200, &bal)
	assert.Equal(t, 30.0, bal.Balance)

	// 4️⃣ 對帳單
	var st ledger.Statement
	doJSON(t, cli, "GET", ts.URL+"/accounts/3434/1/statement", nil, 200, &st)
	require.Len(t, st.Entries, 4)
	assert.Equal(t, ledger.TypeAccountOpening, st.Entries[0].Transaction.Type)
	assert.Equal(t, ledger.TypeTransferOut, st.Entries[3].Transaction.Type)
	assert.Equal(t, 100.0, st.ClosingBalance)
	assert.True(t, st.Reconciled())

	// 5️⃣ 健康檢查
	var health map[string]any
	doJSON(t, cli, "GET", ts.URL+"/health", nil, 200, &health)
	assert.Equal(t, "ok", health["status"])
	assert.EqualValues(t, e.Ledger().Len(), health["entries"])
}

func TestErrorMapping(t *testing.T) {
	ts, e, _ := newTestServer(t)
	cli := ts.Client()
	require.NoError(t, e.AddOwner(bank.Owner{ID: "3434"}))
	_, err := e.AddAccount("3434", "1", 10)
	require.NoError(t, err)

	transfer := func(dstAccount string, amount float64) map[string]any {
		return map[string]any{
			"from":   map[string]string{"owner_id": "3434", "account_id": "1"},
			"to":     map[string]string{"owner_id": "3434", "account_id": dstAccount},
			"amount": amount,
		}
	}

	var res result
	doJSON(t, cli, "POST", ts.URL+"/accounts/3434/1/withdraw", map[string]any{"amount": 11}, 409, &res)
	assert.False(t, res.Success)
	assert.Nil(t, res.ResultingBalance)
	assert.Equal(t, "Insufficient funds; balance cannot go below zero.", res.Message)

	doJSON(t, cli, "POST", ts.URL+"/accounts/3434/1/deposit", map[string]any{"amount": 0}, 400, nil)
	doJSON(t, cli, "POST", ts.URL+"/accounts/3434/9/deposit", map[string]any{"amount": 1}, 404, nil)
	doJSON(t, cli, "GET", ts.URL+"/accounts/3434/9/balance", nil, 404, nil)
	doJSON(t, cli, "GET", ts.URL+"/accounts/3434/9/statement", nil, 404, nil)
	doJSON(t, cli, "POST", ts.URL+"/transfer", transfer("9", 1), 404, nil)
	doJSON(t, cli, "POST", ts.URL+"/transfer", transfer("1", 0), 400, nil)

	// 同帳戶轉帳成功且餘額不變
	res = result{}
	doJSON(t, cli, "POST", ts.URL+"/transfer", transfer("1", 1), 200, &res)
	assert.Equal(t, 10.0, *res.ResultingBalance)

	// 錯誤方法與錯誤路徑
	doJSON(t, cli, "GET", ts.URL+"/transfer", nil, 405, nil)
	doJSON(t, cli, "GET", ts.URL+"/accounts/3434/1/deposit", nil, 405, nil)
	doJSON(t, cli, "GET", ts.URL+"/accounts/3434/1/logs", nil, 404, nil)
	doJSON(t, cli, "GET", ts.URL+"/accounts/3434", nil, 404, nil)

	// 壞 JSON → 400
	resp, err := cli.Post(ts.URL+"/accounts/3434/1/deposit", "application/json", bytes.NewBufferString("{bad json}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	bal, err := e.Balance("3434", "1")
	require.NoError(t, err)
	assert.Equal(t, 10.0, bal)
}

func TestRemoveOwner(t *testing.T) {
	ts, e, _ := newTestServer(t)
	cli := ts.Client()
	require.NoError(t, e.AddOwner(bank.Owner{ID: "3434"}))
	_, err := e.AddAccount("3434", "1", 10)
	require.NoError(t, err)

	doJSON(t, cli, "DELETE", ts.URL+"/owners/3434", nil, 204, nil)
	doJSON(t, cli, "DELETE", ts.URL+"/owners/3434", nil, 404, nil)
	doJSON(t, cli, "GET", ts.URL+"/owners/3434/accounts", nil, 404, nil)
	doJSON(t, cli, "GET", ts.URL+"/owners/3434", nil, 405, nil)
	doJSON(t, cli, "GET", ts.URL+"/accounts/3434/1/balance", nil, 404, nil)

	// 帳本歷史保留
	var st ledger.Statement
	doJSON(t, cli, "GET", ts.URL+"/accounts/3434/1/statement", nil, 200, &st)
	require.Len(t, st.Entries, 1)
	assert.Equal(t, 10.0, st.ClosingBalance)

	// 有歷史的參照不可重新開立
	doJSON(t, cli, "POST", ts.URL+"/owners", map[string]any{"id": "3434"}, 201, nil)
	doJSON(t, cli, "POST", ts.URL+"/owners/3434/accounts", map[string]any{"account_id": "1"}, 409, nil)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, e, _ := newTestServer(t)
	require.NoError(t, e.AddOwner(bank.Owner{ID: "3434"}))
	_, err := e.AddAccount("3434", "1", 0)
	require.NoError(t, err)
	e.Deposit("3434", "1", 5)

	resp, err := ts.Client().Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `bank_operations_total{operation="deposit",outcome="success"} 1`)
	assert.Contains(t, string(body), `bank_ledger_entries_total{type="DEPOSIT"} 1`)
}
