// internal/ledger/transaction.go

package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type 為交易類型（封閉集合）。
type Type string

const (
	TypeAccountOpening Type = "ACCOUNT_OPENING"
	TypeDeposit        Type = "DEPOSIT"
	TypeWithdrawal     Type = "WITHDRAWAL"
	TypeTransferIn     Type = "TRANSFER_IN"
	TypeTransferOut    Type = "TRANSFER_OUT"
)

// directions 是「交易類型 → 餘額方向」的唯一來源。
// 任何需要帶號金額的地方都必須經由 Direction / Apply，不得自行判斷。
var directions = map[Type]int{
	TypeAccountOpening: +1,
	TypeDeposit:        +1,
	TypeWithdrawal:     -1,
	TypeTransferIn:     +1,
	TypeTransferOut:    -1,
}

// Direction 回傳 +1 或 -1；未知類型回傳 0。
func (t Type) Direction() int { return directions[t] }

// Valid 判斷是否屬於封閉集合。
func (t Type) Valid() bool {
	_, ok := directions[t]
	return ok
}

// Apply 將金額轉為帶號變動量。
func (t Type) Apply(amount float64) float64 {
	return float64(t.Direction()) * amount
}

// Transaction 為不可變的帳本分錄。
// 帳本只以值拷貝回傳 Transaction，呼叫端修改拷貝不會影響帳本內容。
type Transaction struct {
	ID            uuid.UUID        `json:"id"`
	CorrelationID uuid.UUID        `json:"correlation_id"`
	Sequence      uint64           `json:"sequence"`
	Type          Type             `json:"type"`
	Account       AccountReference `json:"account"`
	Amount        decimal.Decimal  `json:"amount"`
	Currency      string           `json:"currency"`
	// ResultingBalance 為寫入當下該帳戶的餘額快照。
	ResultingBalance float64          `json:"resulting_balance"`
	OccurredAt       time.Time        `json:"occurred_at"`
	Counterparty     AccountReference `json:"counterparty,omitzero"`
	Description      string           `json:"description,omitempty"`
}

// SignedAmount 回傳此分錄對 running balance 的帶號貢獻。
func (t Transaction) SignedAmount() float64 {
	return t.Type.Apply(t.Amount.InexactFloat64())
}

// HasCounterparty 僅轉帳分錄為 true。
func (t Transaction) HasCounterparty() bool {
	return !t.Counterparty.IsZero()
}

// Metadata 為分錄的附帶資訊。零值欄位代表「使用預設」：
// CorrelationID 為零時沿用自身 ID；OccurredAt 為零時使用帳本時鐘。
type Metadata struct {
	CorrelationID    uuid.UUID
	Counterparty     AccountReference
	ResultingBalance float64
	OccurredAt       time.Time
	Description      string
}

// Entry 為 RecordBatch 的單筆輸入。
type Entry struct {
	Account  AccountReference
	Type     Type
	Amount   Money
	Metadata Metadata
}

func (e Entry) validate() error {
	if !e.Account.valid() {
		return wrapInvalid(ErrBlankIdentifier)
	}
	if !e.Type.Valid() {
		return wrapInvalid(ErrUnknownType)
	}
	if e.Amount.IsZero() || !e.Amount.Amount().IsPositive() {
		return wrapInvalid(ErrNonPositiveAmount)
	}
	return nil
}

func (e Entry) materialize(seq uint64, now time.Time) Transaction {
	id := uuid.New()
	corr := e.Metadata.CorrelationID
	if corr == uuid.Nil {
		corr = id
	}
	at := e.Metadata.OccurredAt
	if at.IsZero() {
		at = now
	}
	return Transaction{
		ID:               id,
		CorrelationID:    corr,
		Sequence:         seq,
		Type:             e.Type,
		Account:          e.Account,
		Amount:           e.Amount.Amount(),
		Currency:         e.Amount.Currency(),
		ResultingBalance: e.Metadata.ResultingBalance,
		OccurredAt:       at,
		Counterparty:     e.Metadata.Counterparty,
		Description:      e.Metadata.Description,
	}
}
