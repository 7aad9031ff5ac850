package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationType identifies what kind of ledger mutation produced a history row.
type OperationType string

const (
	// OperationTypeTransfer is a currency transfer between two users
	OperationTypeTransfer OperationType = "transfer"
	// OperationTypeItemTransfer is the fee leg of an item ownership transfer
	OperationTypeItemTransfer OperationType = "item_transfer"
	// OperationTypeDeposit is a direct credit to a single balance
	OperationTypeDeposit OperationType = "deposit"
	// OperationTypeWithdrawal is a direct debit from a single balance
	OperationTypeWithdrawal OperationType = "withdrawal"
)

// BalanceTransferHistory represents the balance_transfer_histories table - the
// append-only audit trail of the ledger. Rows are immutable once written; each
// committed mutation produces exactly one row keyed to the debited (or directly
// adjusted) balance. BalanceBefore and BalanceAfter are both taken from the
// committed state of the same transaction, so BalanceAfter - BalanceBefore is
// always the full delta applied to that balance, fee included.
type BalanceTransferHistory struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// BalanceID references the balance this row audits
	BalanceID uint64 `gorm:"column:balance_id;not null;index"`
	// Amount is the economic transfer value (excludes the fee; zero for pure fee legs)
	Amount decimal.Decimal `gorm:"column:amount;not null;type:numeric(15,2)"`
	// BalanceBefore is the balance amount before this mutation
	BalanceBefore decimal.Decimal `gorm:"column:balance_before;not null;type:numeric(15,2)"`
	// BalanceAfter is the committed balance amount after this mutation
	BalanceAfter decimal.Decimal `gorm:"column:balance_after;not null;type:numeric(15,2)"`
	// OperationType identifies the kind of mutation (transfer, item_transfer, deposit, withdrawal)
	OperationType OperationType `gorm:"column:operation_type;not null;type:varchar(50)"`
	// CreatedAt is the timestamp when this row was committed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz;index"`

	// Associations
	Balance Balance `gorm:"foreignKey:BalanceID;constraint:OnDelete:RESTRICT"`
}

// TableName specifies the table name for the BalanceTransferHistory model
func (BalanceTransferHistory) TableName() string {
	return "balance_transfer_histories"
}
