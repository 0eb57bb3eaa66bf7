// internal/server/response.go
//
// 本檔負責統一 HTTP 回應格式與領域錯誤到狀態碼的對應。
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"bankledger/internal/bank"
	"bankledger/internal/ledger"
)

// resultBody 為 OperationResult 的 JSON 形式；失敗時不輸出 resulting_balance。
type resultBody struct {
	Success          bool     `json:"success"`
	Message          string   `json:"message"`
	ResultingBalance *float64 `json:"resulting_balance,omitempty"`
}

// writeJSON 統一輸出 JSON 回應。
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr 以 {"error": "..."} 輸出錯誤。
func writeErr(w http.ResponseWriter, err error, code int) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// writeResult 輸出指令結果；失敗時依 Reason 決定狀態碼。
func writeResult(w http.ResponseWriter, res bank.OperationResult) {
	body := resultBody{Success: res.Success, Message: res.Message}
	if bal, ok := res.ResultingBalance(); ok {
		body.ResultingBalance = &bal
	}
	code := http.StatusOK
	if err := res.Err(); err != nil {
		code = statusFor(err)
	}
	writeJSON(w, code, body)
}

// statusFor 將領域錯誤轉為 HTTP 狀態碼：找不到 → 404、規則衝突 → 409、其餘輸入問題 → 400。
func statusFor(err error) int {
	switch {
	case errors.Is(err, bank.ErrAccountNotFound),
		errors.Is(err, bank.ErrSourceNotFound),
		errors.Is(err, bank.ErrDestinationNotFound),
		errors.Is(err, bank.ErrOwnerNotFound):
		return http.StatusNotFound
	case errors.Is(err, bank.ErrInsufficientFunds),
		errors.Is(err, bank.ErrOwnerExists),
		errors.Is(err, bank.ErrAccountExists):
		return http.StatusConflict
	case errors.Is(err, bank.ErrInvalidAmount),
		errors.Is(err, bank.ErrNegativeBalance),
		errors.Is(err, ledger.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
