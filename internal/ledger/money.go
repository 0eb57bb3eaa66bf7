// internal/ledger/money.go

// Package ledger 定義帳本層的值物件與 append-only 交易帳本。
// 本檔定義 Money 與 AccountReference：兩者皆於建構時驗證，建構後不可變。
package ledger

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money 為「幣別 + 嚴格為正的金額」。
// 欄位不匯出，只能經由 NewMoney 建立，確保任何流入帳本的 Money 都已通過驗證。
type Money struct {
	currency string
	amount   decimal.Decimal
}

// NewMoney 建立 Money；幣別不得為空白、金額必須 > 0。
func NewMoney(currency string, amount decimal.Decimal) (Money, error) {
	if strings.TrimSpace(currency) == "" {
		return Money{}, wrapInvalid(ErrBlankCurrency)
	}
	if !amount.IsPositive() {
		return Money{}, fmt.Errorf("%w: %w (got %s)", ErrInvalidArgument, ErrNonPositiveMoney, amount)
	}
	return Money{currency: currency, amount: amount}, nil
}

// MoneyFromFloat 以 float64 金額建立 Money，供引擎將 API 金額轉為帳本金額。
// NaN 與 ±Inf 無法轉為 decimal，視同非正數金額。
func MoneyFromFloat(currency string, amount float64) (Money, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Money{}, wrapInvalid(ErrNonPositiveMoney)
	}
	return NewMoney(currency, decimal.NewFromFloat(amount))
}

// Currency 回傳幣別代碼。
func (m Money) Currency() string { return m.currency }

// Amount 回傳精確金額。
func (m Money) Amount() decimal.Decimal { return m.amount }

// Float 回傳 float64 近似值，供 running balance 計算。
func (m Money) Float() float64 { return m.amount.InexactFloat64() }

// IsZero 判斷是否為零值 Money（未經 NewMoney 建立）。
func (m Money) IsZero() bool { return m.currency == "" }

func (m Money) String() string {
	return m.amount.String() + " " + m.currency
}

// AccountReference 為帳戶的不可變識別鍵（owner + account）。
// 可比較（comparable），可直接作為 map key，以值相等判斷同一帳戶。
type AccountReference struct {
	OwnerID   string `json:"owner_id"`
	AccountID string `json:"account_id"`
}

// NewAccountReference 建立 AccountReference；兩個識別碼皆不得為空白。
func NewAccountReference(ownerID, accountID string) (AccountReference, error) {
	if strings.TrimSpace(ownerID) == "" || strings.TrimSpace(accountID) == "" {
		return AccountReference{}, wrapInvalid(ErrBlankIdentifier)
	}
	return AccountReference{OwnerID: ownerID, AccountID: accountID}, nil
}

// IsZero 判斷是否為未設定的參照（例如非轉帳交易的 counterparty）。
func (r AccountReference) IsZero() bool {
	return r.OwnerID == "" && r.AccountID == ""
}

// Less 定義參照之間的全序（先比 owner，再比 account），
// 轉帳時依此順序取得兩個帳戶鎖，避免反向轉帳互相等待。
func (r AccountReference) Less(o AccountReference) bool {
	if r.OwnerID != o.OwnerID {
		return r.OwnerID < o.OwnerID
	}
	return r.AccountID < o.AccountID
}

func (r AccountReference) String() string {
	return r.OwnerID + "/" + r.AccountID
}

func (r AccountReference) valid() bool {
	return strings.TrimSpace(r.OwnerID) != "" && strings.TrimSpace(r.AccountID) != ""
}
