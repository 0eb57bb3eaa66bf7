// internal/ledger/ledger.go
//
// Ledger 為 in-memory、append-only 的交易帳本，依 AccountReference 建立索引。
// - 寫入：Record / RecordBatch 在單一臨界區內完成驗證後的追加，批次內的分錄同時可見（all-or-nothing）。
// - 讀取：Transactions 回傳獨立拷貝，之後的追加不會影響已回傳的快照。
// - 分錄一經寫入永不修改或刪除。

package ledger

import (
	"sync"
	"time"
)

// Ledger 的零值不可用，請使用 New 建立。
type Ledger struct {
	mu        sync.RWMutex
	seq       uint64
	total     int
	byAccount map[AccountReference][]Transaction
	now       func() time.Time
}

// Option 設定 Ledger。
type Option func(*Ledger)

// WithClock 替換帳本時鐘（用於未指定 OccurredAt 的分錄）。
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// New 建立空白帳本。
func New(opts ...Option) *Ledger {
	l := &Ledger{
		byAccount: make(map[AccountReference][]Transaction),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record 為 ref 追加一筆分錄並回傳其拷貝。
// 驗證失敗（空白參照、非正金額、未知類型）時不建立任何分錄。
func (l *Ledger) Record(ref AccountReference, typ Type, amount Money, meta Metadata) (Transaction, error) {
	out, err := l.RecordBatch(Entry{Account: ref, Type: typ, Amount: amount, Metadata: meta})
	if err != nil {
		return Transaction{}, err
	}
	return out[0], nil
}

// RecordBatch 原子追加多筆分錄：全部驗證通過才寫入，且在同一次持鎖內完成，
// 任何並行讀取只會看到「全部」或「全部都沒有」。
// 回傳的切片順序與輸入一致。
func (l *Ledger) RecordBatch(entries ...Entry) ([]Transaction, error) {
	if len(entries) == 0 {
		return nil, wrapInvalid(ErrEmptyBatch)
	}
	for _, e := range entries {
		if err := e.validate(); err != nil {
			return nil, err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	out := make([]Transaction, len(entries))
	for i, e := range entries {
		l.seq++
		tx := e.materialize(l.seq, now)
		l.byAccount[tx.Account] = append(l.byAccount[tx.Account], tx)
		out[i] = tx
	}
	l.total += len(out)
	return out, nil
}

// Transactions 依寫入順序回傳 ref 的所有分錄（值拷貝）。無分錄時回傳空切片。
func (l *Ledger) Transactions(ref AccountReference) ([]Transaction, error) {
	if !ref.valid() {
		return nil, wrapInvalid(ErrBlankIdentifier)
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	entries := l.byAccount[ref]
	out := make([]Transaction, len(entries))
	copy(out, entries)
	return out, nil
}

// HasHistory 回報 ref 是否已有任何分錄。
func (l *Ledger) HasHistory(ref AccountReference) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byAccount[ref]) > 0
}

// Len 回傳帳本內全部分錄數量。
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total
}
