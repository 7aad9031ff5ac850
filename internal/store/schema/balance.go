package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance represents the balances table - the currency account of a user.
// Exactly one row per user; the amount is never negative after a committed
// transfer and is only ever mutated inside a transfer or direct-adjustment
// transaction while the row is locked.
type Balance struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// UserID references the owning user; one balance per user
	UserID uint64 `gorm:"column:user_id;not null;uniqueIndex"`
	// Amount is the current currency amount (fixed-point, two fractional digits)
	Amount decimal.Decimal `gorm:"column:amount;not null;default:0;type:numeric(15,2)"`
	// UpdatedAt is the timestamp when this balance was last mutated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`

	// Associations
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
}

// TableName specifies the table name for the Balance model
func (Balance) TableName() string {
	return "balances"
}
