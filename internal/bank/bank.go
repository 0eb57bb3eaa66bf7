// internal/bank/bank.go

// Engine 為記帳引擎（聚合根）：擁有身分/帳戶登錄表與交易帳本。
// 一致性邊界：
//   - mu（RWMutex）保護登錄表；指令持讀鎖查找並完成整個操作，新增/移除身分或帳戶持寫鎖。
//   - 每個 Account 自帶鎖；「讀餘額 → 驗證 → 寫入帳本 → 更新餘額」全程持有該帳戶鎖。
//   - 轉帳依 AccountReference 全序同時鎖住兩個帳戶，並以 RecordBatch 一次寫入兩筆分錄。
//
// 驗證一律先於變更；帳本寫入成功後才更新餘額，因此失敗的指令不會留下任何部分狀態。

package bank

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bankledger/internal/ledger"
)

const (
	opDeposit  = "deposit"
	opWithdraw = "withdraw"
	opTransfer = "transfer"

	// DefaultCurrency 為未設定幣別時寫入帳本的幣別。
	DefaultCurrency = "USD"
)

// Engine 的零值不可用，請使用 NewEngine。
type Engine struct {
	mu     sync.RWMutex
	owners map[string]*ownerRecord

	ledger   *ledger.Ledger
	currency string
	now      func() time.Time
	logger   *zap.Logger
	notifier Notifier
	metrics  *Metrics

	notifyWG sync.WaitGroup
}

// Option 設定 Engine。
type Option func(*Engine)

// WithLedger 注入帳本（預設建立新的空白帳本）。
func WithLedger(l *ledger.Ledger) Option {
	return func(e *Engine) {
		if l != nil {
			e.ledger = l
		}
	}
}

// WithCurrency 設定寫入帳本的幣別。
func WithCurrency(currency string) Option {
	return func(e *Engine) {
		if strings.TrimSpace(currency) != "" {
			e.currency = currency
		}
	}
}

// WithClock 替換時鐘，分錄的 OccurredAt 取自此時鐘。
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger 設定結構化日誌。
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithNotifier 設定新身分通知埠。
func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithMetrics 設定指標收集器。
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// NewEngine 建立空白引擎。
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		owners:   make(map[string]*ownerRecord),
		currency: DefaultCurrency,
		now:      time.Now,
		logger:   zap.NewNop(),
		notifier: NopNotifier{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.ledger == nil {
		e.ledger = ledger.New(ledger.WithClock(e.now))
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(nil)
	}
	return e
}

// Ledger 回傳引擎使用的帳本（唯讀用途）。
func (e *Engine) Ledger() *ledger.Ledger { return e.ledger }

// Currency 回傳寫入帳本的幣別。
func (e *Engine) Currency() string { return e.currency }

// ─────────────────────────────
// 身分與帳戶登錄
// ─────────────────────────────

// AddOwner 登錄新身分；ID 不得空白，已存在則回傳 ErrOwnerExists 且不改變狀態。
// 成功後以背景 goroutine 觸發 Notifier，其結果不影響本操作。
func (e *Engine) AddOwner(o Owner) error {
	if strings.TrimSpace(o.ID) == "" {
		return fmt.Errorf("%w: %w", ledger.ErrInvalidArgument, ledger.ErrBlankIdentifier)
	}
	e.mu.Lock()
	if _, ok := e.owners[o.ID]; ok {
		e.mu.Unlock()
		return ErrOwnerExists
	}
	e.owners[o.ID] = newOwnerRecord(o)
	e.mu.Unlock()

	e.logger.Info("owner added", zap.String("owner", o.ID))
	e.dispatchOnboarding(o)
	return nil
}

// RemoveOwner 移除身分及其所有帳戶；帳本歷史保留。回傳是否確實移除。
func (e *Engine) RemoveOwner(ownerID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.owners[ownerID]
	if !ok {
		return false
	}
	delete(e.owners, ownerID)
	e.logger.Info("owner removed", zap.String("owner", ownerID), zap.Int("accounts", len(rec.order)))
	return true
}

// FindOwner 依 ID 查找身分。
func (e *Engine) FindOwner(ownerID string) (Owner, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rec, ok := e.owners[ownerID]
	if !ok {
		return Owner{}, false
	}
	return rec.owner, true
}

// AddAccount 在既有身分下登錄帳戶。
//   - 身分不存在 → ErrOwnerNotFound；同參照已存在 → ErrAccountExists（原帳戶不變）。
//   - 參照在帳本已有歷史（身分曾被移除）→ ErrAccountExists；對帳單不可疊加不同開戶期間的分錄。
//   - 初始餘額 > 0 時立即寫入一筆 ACCOUNT_OPENING，確保系統內所有價值都可追溯到帳本。
func (e *Engine) AddAccount(ownerID, accountID string, initialBalance float64) (*Account, error) {
	ref, err := ledger.NewAccountReference(ownerID, accountID)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(initialBalance) || math.IsInf(initialBalance, 0) || initialBalance < 0 {
		return nil, ErrNegativeBalance
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.owners[ownerID]
	if !ok {
		return nil, ErrOwnerNotFound
	}
	if _, dup := rec.accounts[accountID]; dup || e.ledger.HasHistory(ref) {
		return nil, ErrAccountExists
	}

	if initialBalance > 0 {
		money, err := ledger.MoneyFromFloat(e.currency, initialBalance)
		if err != nil {
			return nil, err
		}
		if _, err := e.ledger.Record(ref, ledger.TypeAccountOpening, money, ledger.Metadata{
			ResultingBalance: initialBalance,
			OccurredAt:       e.now(),
			Description:      "Opening balance for account " + accountID,
		}); err != nil {
			return nil, err
		}
		e.metrics.entries.WithLabelValues(string(ledger.TypeAccountOpening)).Inc()
	}

	a := newAccount(ref, initialBalance)
	rec.add(a)
	e.logger.Info("account added", zap.Stringer("account", ref), zap.Float64("balance", initialBalance))
	return a, nil
}

// FindAccount 依 (owner, account) 查找帳戶；重複呼叫回傳同一個 *Account。
func (e *Engine) FindAccount(ownerID, accountID string) (*Account, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a := e.lookup(ownerID, accountID)
	return a, a != nil
}

// Accounts 依登錄順序回傳身分底下的帳戶；身分不存在時回傳空切片。
func (e *Engine) Accounts(ownerID string) []*Account {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rec, ok := e.owners[ownerID]
	if !ok {
		return []*Account{}
	}
	out := make([]*Account, len(rec.order))
	copy(out, rec.order)
	return out
}

// Balance 回傳帳戶目前餘額；找不到則回傳 ErrAccountNotFound。
func (e *Engine) Balance(ownerID, accountID string) (float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a := e.lookup(ownerID, accountID)
	if a == nil {
		return 0, ErrAccountNotFound
	}
	return a.Balance(), nil
}

// lookup 須在持有 mu（讀或寫）時呼叫。
func (e *Engine) lookup(ownerID, accountID string) *Account {
	rec, ok := e.owners[ownerID]
	if !ok {
		return nil
	}
	return rec.accounts[accountID]
}

// ─────────────────────────────
// 指令
// ─────────────────────────────

// Deposit 存款：帳戶需存在、金額需 > 0；成功後寫入一筆 DEPOSIT 並回傳新餘額。
func (e *Engine) Deposit(ownerID, accountID string, amount float64) OperationResult {
	res := e.deposit(ownerID, accountID, amount)
	e.finish(opDeposit, res, zap.String("owner", ownerID), zap.String("account", accountID), zap.Float64("amount", amount))
	return res
}

func (e *Engine) deposit(ownerID, accountID string, amount float64) OperationResult {
	e.mu.RLock()
	defer e.mu.RUnlock()

	a := e.lookup(ownerID, accountID)
	if a == nil {
		return failed(ErrAccountNotFound, msgAccountNotFound)
	}
	money, ok := e.money(amount)
	if !ok {
		return failed(ErrInvalidAmount, amountMessage("Deposit"))
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	next := a.balance + amount
	if _, err := e.ledger.Record(a.ref, ledger.TypeDeposit, money, ledger.Metadata{
		ResultingBalance: next,
		OccurredAt:       e.now(),
		Description:      "Deposit into account " + accountID,
	}); err != nil {
		return failed(err, err.Error())
	}
	a.balance = next
	e.metrics.entries.WithLabelValues(string(ledger.TypeDeposit)).Inc()
	return succeeded(msgDepositDone, next)
}

// Withdraw 提款：同存款驗證，另要求 amount <= 目前餘額（嚴格不透支）。
func (e *Engine) Withdraw(ownerID, accountID string, amount float64) OperationResult {
	res := e.withdraw(ownerID, accountID, amount)
	e.finish(opWithdraw, res, zap.String("owner", ownerID), zap.String("account", accountID), zap.Float64("amount", amount))
	return res
}

func (e *Engine) withdraw(ownerID, accountID string, amount float64) OperationResult {
	e.mu.RLock()
	defer e.mu.RUnlock()

	a := e.lookup(ownerID, accountID)
	if a == nil {
		return failed(ErrAccountNotFound, msgAccountNotFound)
	}
	money, ok := e.money(amount)
	if !ok {
		return failed(ErrInvalidAmount, amountMessage("Withdrawal"))
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if amount > a.balance {
		return failed(ErrInsufficientFunds, msgInsufficientFunds)
	}
	next := a.balance - amount
	if _, err := e.ledger.Record(a.ref, ledger.TypeWithdrawal, money, ledger.Metadata{
		ResultingBalance: next,
		OccurredAt:       e.now(),
		Description:      "Withdrawal from account " + accountID,
	}); err != nil {
		return failed(err, err.Error())
	}
	a.balance = next
	e.metrics.entries.WithLabelValues(string(ledger.TypeWithdrawal)).Inc()
	return succeeded(msgWithdrawalDone, next)
}

// Transfer 轉帳為原子操作：
// 1) 依序檢查來源、目標是否存在 → 2) 金額 > 0 →
// 3) 依全序鎖住雙方並檢查來源餘額 → 4) 以同一 correlation id 與時間一次寫入 TRANSFER_OUT / TRANSFER_IN → 5) 更新雙方餘額。
// 成功時回傳來源帳戶的轉帳後餘額。來源與目標可為同一帳戶：餘額不變，仍寫入兩筆分錄。
func (e *Engine) Transfer(srcOwnerID, srcAccountID, dstOwnerID, dstAccountID string, amount float64) OperationResult {
	res := e.transfer(srcOwnerID, srcAccountID, dstOwnerID, dstAccountID, amount)
	e.finish(opTransfer, res,
		zap.String("source", srcOwnerID+"/"+srcAccountID),
		zap.String("destination", dstOwnerID+"/"+dstAccountID),
		zap.Float64("amount", amount))
	return res
}

func (e *Engine) transfer(srcOwnerID, srcAccountID, dstOwnerID, dstAccountID string, amount float64) OperationResult {
	e.mu.RLock()
	defer e.mu.RUnlock()

	src := e.lookup(srcOwnerID, srcAccountID)
	if src == nil {
		return failed(ErrSourceNotFound, msgSourceNotFound)
	}
	dst := e.lookup(dstOwnerID, dstAccountID)
	if dst == nil {
		return failed(ErrDestinationNotFound, msgDestinationNotFound)
	}
	money, ok := e.money(amount)
	if !ok {
		return failed(ErrInvalidAmount, amountMessage("Transfer"))
	}

	unlock := lockPair(src, dst)
	defer unlock()
	if src.balance < amount {
		return failed(ErrInsufficientFunds, msgInsufficientFunds)
	}
	srcAfter := src.balance - amount
	dstBefore := dst.balance
	if src == dst {
		dstBefore = srcAfter
	}
	dstAfter := dstBefore + amount
	correlation := uuid.New()
	at := e.now()

	if _, err := e.ledger.RecordBatch(
		ledger.Entry{Account: src.ref, Type: ledger.TypeTransferOut, Amount: money, Metadata: ledger.Metadata{
			CorrelationID:    correlation,
			Counterparty:     dst.ref,
			ResultingBalance: srcAfter,
			OccurredAt:       at,
			Description:      "Transfer to account " + dstAccountID,
		}},
		ledger.Entry{Account: dst.ref, Type: ledger.TypeTransferIn, Amount: money, Metadata: ledger.Metadata{
			CorrelationID:    correlation,
			Counterparty:     src.ref,
			ResultingBalance: dstAfter,
			OccurredAt:       at,
			Description:      "Transfer from account " + srcAccountID,
		}},
	); err != nil {
		return failed(err, err.Error())
	}
	src.balance = srcAfter
	dst.balance = dstAfter
	e.metrics.entries.WithLabelValues(string(ledger.TypeTransferOut)).Inc()
	e.metrics.entries.WithLabelValues(string(ledger.TypeTransferIn)).Inc()
	return succeeded(msgTransferDone, src.balance)
}

// ─────────────────────────────
// 讀模型
// ─────────────────────────────

// Statement 只依帳本重建 (owner, account) 的對帳單，不讀取即時餘額。
// 身分被移除後歷史仍可查詢。對帳差異以 Warn 記錄並計入指標。
func (e *Engine) Statement(ownerID, accountID string) (ledger.Statement, error) {
	ref, err := ledger.NewAccountReference(ownerID, accountID)
	if err != nil {
		return ledger.Statement{}, err
	}
	txs, err := e.ledger.Transactions(ref)
	if err != nil {
		return ledger.Statement{}, err
	}
	st := ledger.FromTransactions(ref, txs)
	for _, d := range st.Discrepancies {
		e.metrics.discrepancies.Inc()
		e.logger.Warn("statement resynchronised to recorded balance",
			zap.Stringer("account", ref),
			zap.Uint64("sequence", d.Sequence),
			zap.Float64("replayed", d.Replayed),
			zap.Float64("recorded", d.Recorded))
	}
	return st, nil
}

// Wait 等待所有背景通知結束（用於關機與測試）。
func (e *Engine) Wait() { e.notifyWG.Wait() }

// money 驗證金額並轉為帳本 Money；NaN、Inf 與 <= 0 皆不合法。
func (e *Engine) money(amount float64) (ledger.Money, bool) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return ledger.Money{}, false
	}
	m, err := ledger.MoneyFromFloat(e.currency, amount)
	if err != nil {
		return ledger.Money{}, false
	}
	return m, true
}

func (e *Engine) finish(operation string, res OperationResult, fields ...zap.Field) {
	e.metrics.observe(operation, res)
	if res.Success {
		e.logger.Debug(operation+" applied", append(fields, zap.Float64("balance", res.Balance))...)
		return
	}
	e.logger.Info(operation+" rejected", append(fields, zap.String("reason", res.Message))...)
}

func (e *Engine) dispatchOnboarding(o Owner) {
	e.notifyWG.Add(1)
	go func() {
		defer e.notifyWG.Done()
		defer func() {
			if r := recover(); r != nil {
				e.metrics.notifyErrors.Inc()
				e.logger.Warn("onboarding notifier panicked", zap.String("owner", o.ID), zap.Any("panic", r))
			}
		}()
		if err := e.notifier.Onboarded(context.Background(), o); err != nil {
			e.metrics.notifyErrors.Inc()
			e.logger.Warn("onboarding notification failed", zap.String("owner", o.ID), zap.Error(err))
		}
	}()
}
