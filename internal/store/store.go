package store

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/playforge/gamebank/internal/store/schema"
)

// TransferInput describes one balance transfer between two users.
// FeeAmount is debited from the sender on top of Amount and credited nowhere.
type TransferInput struct {
	FromUserID    uint64
	ToUserID      uint64
	Amount        decimal.Decimal
	FeeAmount     decimal.Decimal
	OperationType schema.OperationType
}

// ItemTransferInput describes one item ownership transfer and its fee.
type ItemTransferInput struct {
	ItemID      uint64
	FromOwnerID uint64
	ToOwnerID   uint64
	FeeAmount   decimal.Decimal
}

// CreateItemInput describes a new item instance.
type CreateItemInput struct {
	TypeID      uint64
	CharacterID *uint64
	OwnerID     *uint64
	Attributes  datatypes.JSON
}

// Store defines the interface for database operations. The ledger methods
// (balances and their history) and the ownership methods (items and their
// history) share one implementation so an item transfer can span both in a
// single transaction.
type Store interface {
	// GetBalanceByUserID retrieves the balance row for a user (nil when absent)
	GetBalanceByUserID(ctx context.Context, userID uint64) (*schema.Balance, error)
	// CreateBalance creates the balance row for a user with an initial amount
	CreateBalance(ctx context.Context, userID uint64, amount decimal.Decimal) (*schema.Balance, error)
	// ApplyTransfer atomically moves currency between two balances and appends
	// one history row keyed to the sender's balance. Both rows are locked in
	// ascending user_id order for the duration of the transaction.
	ApplyTransfer(ctx context.Context, input TransferInput) (*schema.BalanceTransferHistory, error)
	// AdjustBalance atomically credits (delta > 0) or debits (delta < 0) a single
	// balance under a row lock and appends one history row. The balance is never
	// allowed to go negative.
	AdjustBalance(ctx context.Context, userID uint64, delta decimal.Decimal) (*schema.Balance, *schema.BalanceTransferHistory, error)
	// ListTransferHistory returns the most recent history rows for a user's
	// balance, newest first
	ListTransferHistory(ctx context.Context, userID uint64, limit int) ([]schema.BalanceTransferHistory, error)

	// CreateItem creates a new item instance
	CreateItem(ctx context.Context, input CreateItemInput) (*schema.Item, error)
	// GetItemByID retrieves an item by its ID (nil when absent)
	GetItemByID(ctx context.Context, itemID uint64) (*schema.Item, error)
	// SetItemEquipped flips the equip state of an item; independent of ownership
	SetItemEquipped(ctx context.Context, itemID uint64, equipped bool) (*schema.Item, error)
	// TransferItem atomically reassigns item ownership, charges the fee through
	// the ledger and appends the linked history pair. Everything commits or
	// nothing does.
	TransferItem(ctx context.Context, input ItemTransferInput) (*schema.ItemTransferHistory, error)

	// CreateUser creates a user account row
	CreateUser(ctx context.Context, username, email, passwordHash string) (*schema.User, error)
	// CreateCharacter creates a character owned by a user
	CreateCharacter(ctx context.Context, userID uint64, name string) (*schema.Character, error)
	// CreateItemType adds an entry to the item catalogue
	CreateItemType(ctx context.Context, name, kind, rarity, description string) (*schema.ItemType, error)
}
