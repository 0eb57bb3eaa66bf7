// Package bank 定義核心記帳引擎：身分與帳戶登錄、存款、提款、轉帳，以及帳本記錄。
// 本檔定義 Owner 與 Account，不含任何 HTTP 或帳本序列化細節。

package bank

import (
	"sync"

	"bankledger/internal/ledger"
)

// Owner 為帳戶持有人身分（原系統以護照號碼識別）。
type Owner struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Account 為可變的餘額格（balance cell），由 Engine 獨佔擁有。
// 參照建立後固定；餘額只在 Engine 持有 mu 時修改，任何可觀察時點皆 >= 0。
// 同一參照在 Engine 生命週期內始終對應同一個 *Account。
type Account struct {
	mu      sync.Mutex
	ref     ledger.AccountReference
	balance float64
}

func newAccount(ref ledger.AccountReference, balance float64) *Account {
	return &Account{ref: ref, balance: balance}
}

// Reference 回傳帳戶參照。
func (a *Account) Reference() ledger.AccountReference { return a.ref }

// Balance 回傳目前餘額。
func (a *Account) Balance() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// ownerRecord 為登錄表中的一筆身分：持有人 + 依登錄順序排列的帳戶。
type ownerRecord struct {
	owner    Owner
	accounts map[string]*Account
	order    []*Account
}

func newOwnerRecord(o Owner) *ownerRecord {
	return &ownerRecord{owner: o, accounts: make(map[string]*Account)}
}

func (r *ownerRecord) add(a *Account) {
	r.accounts[a.ref.AccountID] = a
	r.order = append(r.order, a)
}

// lockPair 依 AccountReference 全序取得兩個帳戶鎖，回傳對應的解鎖函式。
// 反向並行轉帳（A→B 與 B→A）因此永遠以相同順序取鎖，不會互相等待。
// a 與 b 為同一帳戶時只取一次鎖。
func lockPair(a, b *Account) (unlock func()) {
	if a == b {
		a.mu.Lock()
		return a.mu.Unlock
	}
	first, second := a, b
	if b.ref.Less(a.ref) {
		first, second = b, a
	}
	first.mu.Lock()
	second.mu.Lock()
	return func() {
		second.mu.Unlock()
		first.mu.Unlock()
	}
}
