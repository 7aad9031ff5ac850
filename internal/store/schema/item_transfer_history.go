package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemTransferHistory represents the item_transfer_histories table - the audit
// trail of ownership changes. Immutable; every row references exactly one
// BalanceTransferHistory row created in the same transaction, linking the
// ownership change to its fee payment. Both rows commit or neither does.
type ItemTransferHistory struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// ItemID references the transferred item
	ItemID uint64 `gorm:"column:item_id;not null;index"`
	// FromOwnerID is the user the item was taken from
	FromOwnerID uint64 `gorm:"column:from_owner_id;not null;index"`
	// ToOwnerID is the user the item was given to
	ToOwnerID uint64 `gorm:"column:to_owner_id;not null;index"`
	// FeeAmount is the fee debited from the sender (burned, not credited anywhere)
	FeeAmount decimal.Decimal `gorm:"column:fee_amount;not null;type:numeric(15,2)"`
	// BalanceTransferHistoryID references the fee payment committed in the same transaction
	BalanceTransferHistoryID uint64 `gorm:"column:balance_transfer_history_id;not null;uniqueIndex"`
	// CreatedAt is the timestamp when this row was committed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	Item                   Item                   `gorm:"foreignKey:ItemID;constraint:OnDelete:RESTRICT"`
	BalanceTransferHistory BalanceTransferHistory `gorm:"foreignKey:BalanceTransferHistoryID;constraint:OnDelete:RESTRICT"`
}

// TableName specifies the table name for the ItemTransferHistory model
func (ItemTransferHistory) TableName() string {
	return "item_transfer_histories"
}
