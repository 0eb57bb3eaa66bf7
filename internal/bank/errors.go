// internal/bank/errors.go
//
// 本檔集中定義「領域錯誤（domain errors）」與對應的使用者訊息。
// 商業規則失敗一律以失敗的 OperationResult 回傳，Reason 欄位攜帶下列 sentinel，
// 上層（HTTP handler）再以 errors.Is 轉換為適當狀態碼。

package bank

import "errors"

var (
	// ErrAccountNotFound 代表單帳戶操作找不到帳戶（未知 owner 或未知 account 不做區分）。
	ErrAccountNotFound = errors.New("account not found")

	// ErrSourceNotFound / ErrDestinationNotFound 為轉帳時分別指出哪一邊不存在。
	ErrSourceNotFound      = errors.New("source account not found")
	ErrDestinationNotFound = errors.New("destination account not found")

	// ErrInvalidAmount 代表金額 <= 0（或 NaN / Inf）。
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrInsufficientFunds 代表提款或轉帳會讓餘額變為負數。
	ErrInsufficientFunds = errors.New("insufficient funds")

	ErrOwnerNotFound   = errors.New("owner not found")
	ErrOwnerExists     = errors.New("owner already exists")
	ErrAccountExists   = errors.New("account already exists for owner")
	ErrNegativeBalance = errors.New("initial balance cannot be negative")
)

const (
	msgAccountNotFound     = "Account not found for the provided identifiers."
	msgSourceNotFound      = "Source account not found for the provided identifiers."
	msgDestinationNotFound = "Destination account not found for the provided identifiers."
	msgInsufficientFunds   = "Insufficient funds; balance cannot go below zero."

	msgDepositDone    = "Deposit completed successfully."
	msgWithdrawalDone = "Withdrawal completed successfully."
	msgTransferDone   = "Transfer completed successfully."
)

// amountMessage 產生依操作名稱區分的金額錯誤訊息，例如 "Deposit amount must be greater than zero."
func amountMessage(operation string) string {
	return operation + " amount must be greater than zero."
}
