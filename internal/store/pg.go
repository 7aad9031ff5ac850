package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/playforge/gamebank/internal/domain"
	"github.com/playforge/gamebank/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// Migrate creates or updates the database schema for all models
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schema.User{},
		&schema.Character{},
		&schema.ItemType{},
		&schema.Balance{},
		&schema.BalanceTransferHistory{},
		&schema.Item{},
		&schema.ItemTransferHistory{},
	)
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// translateError maps driver-level failures onto the domain error kinds.
// Domain errors pass through untouched so callers can match with errors.Is.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	for _, sentinel := range []error{
		domain.ErrEntityNotFound,
		domain.ErrInsufficientFunds,
		domain.ErrOwnershipMismatch,
		domain.ErrInvalidOperation,
		domain.ErrConcurrencyConflict,
		domain.ErrOperationTimedOut,
		domain.ErrStorageUnavailable,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrOperationTimedOut, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", // serialization_failure
			"40P01", // deadlock_detected
			"55P03": // lock_not_available
			return fmt.Errorf("%w: %v", domain.ErrConcurrencyConflict, err)
		case "57014": // query_canceled (statement timeout)
			return fmt.Errorf("%w: %v", domain.ErrOperationTimedOut, err)
		case "08000", "08003", "08006", "57P01", "57P02", "57P03":
			return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	return err
}

// GetBalanceByUserID retrieves the balance row for a user
func (s *pgStore) GetBalanceByUserID(ctx context.Context, userID uint64) (*schema.Balance, error) {
	var balance schema.Balance
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&balance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError(fmt.Errorf("failed to get balance: %w", err))
	}
	return &balance, nil
}

// CreateBalance creates the balance row for a user with an initial amount
func (s *pgStore) CreateBalance(ctx context.Context, userID uint64, amount decimal.Decimal) (*schema.Balance, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: initial amount must not be negative", domain.ErrInvalidOperation)
	}

	balance := schema.Balance{
		UserID: userID,
		Amount: amount,
	}
	if err := s.db.WithContext(ctx).Create(&balance).Error; err != nil {
		return nil, translateError(fmt.Errorf("failed to create balance: %w", err))
	}
	return &balance, nil
}

// lockBalances acquires SELECT ... FOR UPDATE locks on the balance rows of the
// given users, always in ascending user_id order so that two opposite-direction
// transfers cannot deadlock. The returned map is keyed by user_id.
func lockBalances(tx *gorm.DB, userIDs ...uint64) (map[uint64]*schema.Balance, error) {
	ordered := make([]uint64, len(userIDs))
	copy(ordered, userIDs)
	for i := range ordered {
		for j := i + 1; j < len(ordered); j++ {
			if ordered[j] < ordered[i] {
				ordered[i], ordered[j] = ordered[j], ordered[i]
			}
		}
	}

	locked := make(map[uint64]*schema.Balance, len(ordered))
	for _, id := range ordered {
		if _, ok := locked[id]; ok {
			continue
		}
		var balance schema.Balance
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", id).
			First(&balance).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: no balance for user %d", domain.ErrEntityNotFound, id)
			}
			return nil, fmt.Errorf("failed to lock balance for user %d: %w", id, err)
		}
		locked[id] = &balance
	}
	return locked, nil
}

// applyTransferTx performs the balance transfer inside an already-open
// transaction so that item transfers can share the same atomic unit.
//
// The history row records the sender's committed before/after amounts: the
// delta between them is amount + fee, because the fee is burned rather than
// credited to the receiver.
func applyTransferTx(tx *gorm.DB, input TransferInput) (*schema.BalanceTransferHistory, error) {
	// lockBalances dedupes user ids, so a self-transfer would debit and credit
	// one shared row and mint amount + fee. Reject it here, not only in the
	// engine's validation.
	if input.FromUserID == input.ToUserID {
		return nil, fmt.Errorf("%w: sender and receiver balances must differ", domain.ErrInvalidOperation)
	}

	locked, err := lockBalances(tx, input.FromUserID, input.ToUserID)
	if err != nil {
		return nil, err
	}
	from := locked[input.FromUserID]
	to := locked[input.ToUserID]

	total := input.Amount.Add(input.FeeAmount)
	if from.Amount.LessThan(total) {
		return nil, fmt.Errorf("%w: balance %s cannot cover %s", domain.ErrInsufficientFunds, from.Amount, total)
	}

	// Capture the pre-mutation amount now: gorm's Update writes the new value
	// back into the model struct.
	fromBefore := from.Amount
	fromAfter := fromBefore.Sub(total)
	toAfter := to.Amount.Add(input.Amount)

	if err := tx.Model(from).Update("amount", fromAfter).Error; err != nil {
		return nil, fmt.Errorf("failed to debit sender balance: %w", err)
	}
	if err := tx.Model(to).Update("amount", toAfter).Error; err != nil {
		return nil, fmt.Errorf("failed to credit receiver balance: %w", err)
	}

	operationType := input.OperationType
	if operationType == "" {
		operationType = schema.OperationTypeTransfer
	}

	history := schema.BalanceTransferHistory{
		BalanceID:     from.ID,
		Amount:        input.Amount,
		BalanceBefore: fromBefore,
		BalanceAfter:  fromAfter,
		OperationType: operationType,
	}
	if err := tx.Create(&history).Error; err != nil {
		return nil, fmt.Errorf("failed to create transfer history: %w", err)
	}

	return &history, nil
}

// ApplyTransfer atomically moves currency between two balances
func (s *pgStore) ApplyTransfer(ctx context.Context, input TransferInput) (*schema.BalanceTransferHistory, error) {
	var history *schema.BalanceTransferHistory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		history, err = applyTransferTx(tx, input)
		return err
	})
	if err != nil {
		return nil, translateError(err)
	}
	return history, nil
}

// AdjustBalance credits or debits a single balance under a row lock
func (s *pgStore) AdjustBalance(ctx context.Context, userID uint64, delta decimal.Decimal) (*schema.Balance, *schema.BalanceTransferHistory, error) {
	var (
		balance schema.Balance
		history schema.BalanceTransferHistory
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&balance).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: no balance for user %d", domain.ErrEntityNotFound, userID)
			}
			return fmt.Errorf("failed to lock balance: %w", err)
		}

		after := balance.Amount.Add(delta)
		if after.IsNegative() {
			return fmt.Errorf("%w: balance %s cannot cover %s", domain.ErrInsufficientFunds, balance.Amount, delta.Neg())
		}

		operationType := schema.OperationTypeDeposit
		if delta.IsNegative() {
			operationType = schema.OperationTypeWithdrawal
		}

		if err := tx.Model(&balance).Update("amount", after).Error; err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}

		history = schema.BalanceTransferHistory{
			BalanceID:     balance.ID,
			Amount:        delta.Abs(),
			BalanceBefore: after.Sub(delta),
			BalanceAfter:  after,
			OperationType: operationType,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to create adjustment history: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, nil, translateError(err)
	}
	return &balance, &history, nil
}

// ListTransferHistory returns the most recent history rows for a user's balance
func (s *pgStore) ListTransferHistory(ctx context.Context, userID uint64, limit int) ([]schema.BalanceTransferHistory, error) {
	balance, err := s.GetBalanceByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return nil, fmt.Errorf("%w: no balance for user %d", domain.ErrEntityNotFound, userID)
	}

	var history []schema.BalanceTransferHistory
	err = s.db.WithContext(ctx).
		Where("balance_id = ?", balance.ID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&history).Error
	if err != nil {
		return nil, translateError(fmt.Errorf("failed to list transfer history: %w", err))
	}
	return history, nil
}

// CreateItem creates a new item instance
func (s *pgStore) CreateItem(ctx context.Context, input CreateItemInput) (*schema.Item, error) {
	item := schema.Item{
		TypeID:      input.TypeID,
		CharacterID: input.CharacterID,
		OwnerID:     input.OwnerID,
		Attributes:  input.Attributes,
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, translateError(fmt.Errorf("failed to create item: %w", err))
	}
	return &item, nil
}

// GetItemByID retrieves an item by its ID
func (s *pgStore) GetItemByID(ctx context.Context, itemID uint64) (*schema.Item, error) {
	var item schema.Item
	err := s.db.WithContext(ctx).Where("id = ?", itemID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError(fmt.Errorf("failed to get item: %w", err))
	}
	return &item, nil
}

// SetItemEquipped flips the equip state of an item
func (s *pgStore) SetItemEquipped(ctx context.Context, itemID uint64, equipped bool) (*schema.Item, error) {
	var item schema.Item
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", itemID).
			First(&item).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: no item with id %d", domain.ErrEntityNotFound, itemID)
			}
			return fmt.Errorf("failed to lock item: %w", err)
		}

		if item.IsEquipped == equipped {
			return nil
		}

		if err := tx.Model(&item).Update("is_equipped", equipped).Error; err != nil {
			return fmt.Errorf("failed to update equip state: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

// TransferItem atomically reassigns item ownership and charges the fee.
//
// Lock order inside the transaction is item row first, then balance rows in
// ascending user_id order; every multi-row transaction in this store follows
// the same order, which rules out lock-ordering deadlocks between concurrent
// transfers.
func (s *pgStore) TransferItem(ctx context.Context, input ItemTransferInput) (*schema.ItemTransferHistory, error) {
	var history schema.ItemTransferHistory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item schema.Item
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", input.ItemID).
			First(&item).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: no item with id %d", domain.ErrEntityNotFound, input.ItemID)
			}
			return fmt.Errorf("failed to lock item: %w", err)
		}

		if item.OwnerID == nil || *item.OwnerID != input.FromOwnerID {
			return fmt.Errorf("%w: item %d does not belong to user %d", domain.ErrOwnershipMismatch, input.ItemID, input.FromOwnerID)
		}

		if err := tx.Model(&item).Update("owner_id", input.ToOwnerID).Error; err != nil {
			return fmt.Errorf("failed to reassign item owner: %w", err)
		}

		// Fee leg: zero economic transfer value, fee debited from the sender.
		balanceHistory, err := applyTransferTx(tx, TransferInput{
			FromUserID:    input.FromOwnerID,
			ToUserID:      input.ToOwnerID,
			Amount:        decimal.Zero,
			FeeAmount:     input.FeeAmount,
			OperationType: schema.OperationTypeItemTransfer,
		})
		if err != nil {
			return err
		}

		history = schema.ItemTransferHistory{
			ItemID:                   item.ID,
			FromOwnerID:              input.FromOwnerID,
			ToOwnerID:                input.ToOwnerID,
			FeeAmount:                input.FeeAmount,
			BalanceTransferHistoryID: balanceHistory.ID,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to create item transfer history: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, translateError(err)
	}
	return &history, nil
}

// CreateUser creates a user account row
func (s *pgStore) CreateUser(ctx context.Context, username, email, passwordHash string) (*schema.User, error) {
	user := schema.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, translateError(fmt.Errorf("failed to create user: %w", err))
	}
	return &user, nil
}

// CreateCharacter creates a character owned by a user
func (s *pgStore) CreateCharacter(ctx context.Context, userID uint64, name string) (*schema.Character, error) {
	character := schema.Character{
		UserID: userID,
		Name:   name,
	}
	if err := s.db.WithContext(ctx).Create(&character).Error; err != nil {
		return nil, translateError(fmt.Errorf("failed to create character: %w", err))
	}
	return &character, nil
}

// CreateItemType adds an entry to the item catalogue
func (s *pgStore) CreateItemType(ctx context.Context, name, kind, rarity, description string) (*schema.ItemType, error) {
	itemType := schema.ItemType{
		Name:        name,
		Kind:        kind,
		Rarity:      rarity,
		Description: description,
	}
	if err := s.db.WithContext(ctx).Create(&itemType).Error; err != nil {
		return nil, translateError(fmt.Errorf("failed to create item type: %w", err))
	}
	return &itemType, nil
}
