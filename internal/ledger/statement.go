// internal/ledger/statement.go
//
// Statement 為純讀模型：只依帳本分錄重建 running balance，不讀取也不修改帳戶即時餘額。

package ledger

import "math"

// ReconcileTolerance 為 running balance 與分錄餘額快照允許的最大絕對差。
const ReconcileTolerance = 1e-7

// StatementEntry 為對帳單的一行：原始分錄 + 重播後的 running balance。
type StatementEntry struct {
	Transaction    Transaction `json:"transaction"`
	RunningBalance float64     `json:"running_balance"`
}

// Discrepancy 記錄一次重新同步：重播值與快照值差距超過 ReconcileTolerance，
// 以快照為準覆寫 running balance。
type Discrepancy struct {
	Index    int     `json:"index"`
	Sequence uint64  `json:"sequence"`
	Replayed float64 `json:"replayed"`
	Recorded float64 `json:"recorded"`
}

// Statement 為帳戶對帳單。
type Statement struct {
	Account        AccountReference `json:"account"`
	Entries        []StatementEntry `json:"entries"`
	ClosingBalance float64          `json:"closing_balance"`
	Discrepancies  []Discrepancy    `json:"discrepancies,omitempty"`
}

// FromTransactions 依傳入順序重播分錄：
// running 從 0 開始，逐筆加上帶號金額，再與該筆的 ResultingBalance 對帳，
// 差距 > ReconcileTolerance 時以快照為準並記錄 Discrepancy。
// 無分錄時 ClosingBalance 為 0。
func FromTransactions(ref AccountReference, txs []Transaction) Statement {
	st := Statement{
		Account: ref,
		Entries: make([]StatementEntry, 0, len(txs)),
	}
	running := 0.0
	for i, tx := range txs {
		running += tx.SignedAmount()
		if math.Abs(tx.ResultingBalance-running) > ReconcileTolerance {
			st.Discrepancies = append(st.Discrepancies, Discrepancy{
				Index:    i,
				Sequence: tx.Sequence,
				Replayed: running,
				Recorded: tx.ResultingBalance,
			})
			running = tx.ResultingBalance
		}
		st.Entries = append(st.Entries, StatementEntry{Transaction: tx, RunningBalance: running})
	}
	st.ClosingBalance = running
	return st
}

// Reconciled 為 true 表示重播全程未發生重新同步。
func (s Statement) Reconciled() bool { return len(s.Discrepancies) == 0 }
