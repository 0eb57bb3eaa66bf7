// internal/server/handler.go
//
// Package server 提供記帳引擎的 HTTP RESTful 介面（傳輸層）。
// 每個 handler 僅負責：
//  1. 接收與驗證 HTTP 請求
//  2. 呼叫 bank.Engine 執行指令
//  3. 將 OperationResult 或錯誤轉為標準化 JSON 回應
//
// bank 不依賴 HTTP；server 依賴 bank。
package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"bankledger/internal/bank"
	"bankledger/internal/ledger"
)

// Server 為 HTTP 層核心結構。
type Server struct {
	Engine *bank.Engine
	logger *zap.Logger
}

// NewServer 建立新的 HTTP 伺服器；logger 可為 nil。
func NewServer(e *bank.Engine, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{Engine: e, logger: logger}
}

type amountRequest struct {
	Amount float64 `json:"amount"`
}

type transferRequest struct {
	From   ledger.AccountReference `json:"from"`
	To     ledger.AccountReference `json:"to"`
	Amount float64                 `json:"amount"`
}

type ownerRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type accountRequest struct {
	AccountID      string  `json:"account_id"`
	InitialBalance float64 `json:"initial_balance"`
}

type accountView struct {
	OwnerID   string  `json:"owner_id"`
	AccountID string  `json:"account_id"`
	Balance   float64 `json:"balance"`
}

func viewOf(a *bank.Account) accountView {
	ref := a.Reference()
	return accountView{OwnerID: ref.OwnerID, AccountID: ref.AccountID, Balance: a.Balance()}
}

// owners 處理 POST /owners → 登錄身分。
func (s *Server) owners(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req ownerRequest
	if !s.decode(w, r, &req) {
		return
	}
	o := bank.Owner{ID: req.ID, Name: req.Name}
	if err := s.Engine.AddOwner(o); err != nil {
		writeErr(w, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

// ownerSubroutes 處理：
//
//	DELETE /owners/{owner}           → 移除身分（帳本歷史保留）
//	GET    /owners/{owner}/accounts  → 列出帳戶
//	POST   /owners/{owner}/accounts  → 開立帳戶
func (s *Server) ownerSubroutes(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/owners/")
	if len(parts) == 0 {
		http.NotFound(w, r)
		return
	}
	ownerID := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodDelete {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !s.Engine.RemoveOwner(ownerID) {
			writeErr(w, bank.ErrOwnerNotFound, http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if len(parts) != 2 || parts[1] != "accounts" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		if _, ok := s.Engine.FindOwner(ownerID); !ok {
			writeErr(w, bank.ErrOwnerNotFound, http.StatusNotFound)
			return
		}
		accounts := s.Engine.Accounts(ownerID)
		out := make([]accountView, 0, len(accounts))
		for _, a := range accounts {
			out = append(out, viewOf(a))
		}
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		var req accountRequest
		if !s.decode(w, r, &req) {
			return
		}
		a, err := s.Engine.AddAccount(ownerID, req.AccountID, req.InitialBalance)
		if err != nil {
			writeErr(w, err, statusFor(err))
			return
		}
		writeJSON(w, http.StatusCreated, viewOf(a))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// accountSubroutes 處理子路徑：
//
//	GET  /accounts/{owner}/{account}/balance
//	GET  /accounts/{owner}/{account}/statement
//	POST /accounts/{owner}/{account}/deposit
//	POST /accounts/{owner}/{account}/withdraw
func (s *Server) accountSubroutes(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/accounts/")
	if len(parts) != 3 {
		http.NotFound(w, r)
		return
	}
	ownerID, accountID := parts[0], parts[1]

	switch parts[2] {
	case "balance":
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		bal, err := s.Engine.Balance(ownerID, accountID)
		if err != nil {
			writeErr(w, err, statusFor(err))
			return
		}
		writeJSON(w, http.StatusOK, accountView{OwnerID: ownerID, AccountID: accountID, Balance: bal})

	case "statement":
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		st, err := s.Engine.Statement(ownerID, accountID)
		if err != nil {
			writeErr(w, err, statusFor(err))
			return
		}
		// 身分移除後仍可查歷史；從未存在過的帳戶才回 404
		if _, ok := s.Engine.FindAccount(ownerID, accountID); !ok && len(st.Entries) == 0 {
			writeErr(w, bank.ErrAccountNotFound, http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, st)

	case "deposit", "withdraw":
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req amountRequest
		if !s.decode(w, r, &req) {
			return
		}
		var res bank.OperationResult
		if parts[2] == "deposit" {
			res = s.Engine.Deposit(ownerID, accountID, req.Amount)
		} else {
			res = s.Engine.Withdraw(ownerID, accountID, req.Amount)
		}
		writeResult(w, res)

	default:
		http.NotFound(w, r)
	}
}

// transfer 處理 POST /transfer，JSON 為 {from, to, amount}。
// 成功時 resulting_balance 為來源帳戶的新餘額。
func (s *Server) transfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req transferRequest
	if !s.decode(w, r, &req) {
		return
	}
	res := s.Engine.Transfer(req.From.OwnerID, req.From.AccountID, req.To.OwnerID, req.To.AccountID, req.Amount)
	writeResult(w, res)
}

// health 提供健康檢查端點：GET /health。
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"entries": s.Engine.Ledger().Len(),
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.logger.Debug("bad request body", zap.String("path", r.URL.Path), zap.Error(err))
		writeErr(w, err, http.StatusBadRequest)
		return false
	}
	return true
}

// splitPath 去掉前綴後以 "/" 切分；空路徑回傳 nil。
func splitPath(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}
