// internal/ledger/errors.go
//
// 帳本層的建構錯誤。這些錯誤代表呼叫端傳入不合法的值物件（程式錯誤），
// 一律包裝 ErrInvalidArgument，呼叫端可用 errors.Is(err, ErrInvalidArgument) 判斷。

package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument 為所有建構錯誤的共同根。
	ErrInvalidArgument = errors.New("invalid argument")

	ErrBlankCurrency     = errors.New("currency cannot be blank")
	ErrNonPositiveMoney  = errors.New("money amount must be a positive value")
	ErrBlankIdentifier   = errors.New("owner and account identifiers cannot be blank")
	ErrNonPositiveAmount = errors.New("transaction amount must be positive")
	ErrUnknownType       = errors.New("unknown transaction type")

	// ErrEmptyBatch 代表 RecordBatch 未提供任何分錄。
	ErrEmptyBatch = errors.New("batch must contain at least one entry")
)

func wrapInvalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
}
