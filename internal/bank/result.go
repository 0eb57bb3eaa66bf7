package bank

// OperationResult 為引擎指令的同步結果（tagged result）：
// 成功時 Balance 為主要帳戶的結果餘額；失敗時 Reason 為領域 sentinel、Balance 無意義。
// 不會被持久化。
type OperationResult struct {
	Success bool
	Message string
	Balance float64
	Reason  error
}

func succeeded(message string, balance float64) OperationResult {
	return OperationResult{Success: true, Message: message, Balance: balance}
}

func failed(reason error, message string) OperationResult {
	return OperationResult{Message: message, Reason: reason}
}

// Err 成功時回傳 nil，失敗時回傳 Reason。
func (r OperationResult) Err() error {
	if r.Success {
		return nil
	}
	return r.Reason
}

// ResultingBalance 回傳結果餘額；失敗時 ok 為 false。
func (r OperationResult) ResultingBalance() (balance float64, ok bool) {
	return r.Balance, r.Success
}
