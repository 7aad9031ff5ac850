// Package engine orchestrates atomic balance and item-ownership transfers on
// top of the store, and owns the cache write-invalidation hook: store logic
// never touches the cache, the engine invalidates the affected keys on every
// committed mutation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/playforge/gamebank/internal/cache"
	"github.com/playforge/gamebank/internal/domain"
	"github.com/playforge/gamebank/internal/logger"
	"github.com/playforge/gamebank/internal/store"
	"github.com/playforge/gamebank/internal/store/schema"
)

const (
	defaultHistoryLimit       = 100
	defaultMaxConflictRetries = 3
	defaultRetryInterval      = 50 * time.Millisecond
)

// Config holds transfer engine tuning knobs. Zero values fall back to defaults.
type Config struct {
	// HistoryLimit caps the number of history rows returned per listing
	HistoryLimit int
	// MaxConflictRetries bounds internal retries of ConcurrencyConflict failures
	MaxConflictRetries uint64
	// RetryInterval is the initial backoff interval between conflict retries
	RetryInterval time.Duration
}

// Engine composes the ledger and ownership stores into validated, retried,
// cache-coherent transfer operations. It is the only component allowed to
// trigger multi-row mutations.
type Engine struct {
	store              store.Store
	cache              cache.Cache
	historyLimit       int
	maxConflictRetries uint64
	retryInterval      time.Duration
}

// New creates a transfer engine over the given store and cache
func New(cfg Config, st store.Store, c cache.Cache) *Engine {
	if cfg.HistoryLimit == 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	if cfg.MaxConflictRetries == 0 {
		cfg.MaxConflictRetries = defaultMaxConflictRetries
	}
	if cfg.RetryInterval == 0 {
		cfg.RetryInterval = defaultRetryInterval
	}
	return &Engine{
		store:              st,
		cache:              c,
		historyLimit:       cfg.HistoryLimit,
		maxConflictRetries: cfg.MaxConflictRetries,
		retryInterval:      cfg.RetryInterval,
	}
}

// withConflictRetry runs op, retrying ConcurrencyConflict failures with
// exponential backoff. Any other failure aborts immediately. An exhausted
// retry budget surfaces as OperationTimedOut.
func (e *Engine) withConflictRetry(ctx context.Context, op func() error) error {
	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(e.retryInterval),
		), e.maxConflictRetries),
		ctx,
	)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrConcurrencyConflict) {
			logger.WarnCtx(ctx, "transfer hit concurrency conflict, retrying",
				zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		return backoff.Permanent(err)
	}, bo)

	if errors.Is(err, domain.ErrConcurrencyConflict) {
		return fmt.Errorf("%w: conflict retries exhausted after %d attempts: %v",
			domain.ErrOperationTimedOut, attempt, err)
	}
	return err
}

// TransferBalance moves amount from one user's balance to another's, burning
// feeAmount from the sender on top. Returns the committed history row.
func (e *Engine) TransferBalance(ctx context.Context, fromUserID, toUserID uint64, amount, feeAmount decimal.Decimal) (*schema.BalanceTransferHistory, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: transfer amount must be positive", domain.ErrInvalidOperation)
	}
	if feeAmount.IsNegative() {
		return nil, fmt.Errorf("%w: fee amount must not be negative", domain.ErrInvalidOperation)
	}
	if fromUserID == toUserID {
		return nil, fmt.Errorf("%w: cannot transfer to self", domain.ErrInvalidOperation)
	}

	var history *schema.BalanceTransferHistory
	err := e.withConflictRetry(ctx, func() error {
		var err error
		history, err = e.store.ApplyTransfer(ctx, store.TransferInput{
			FromUserID:    fromUserID,
			ToUserID:      toUserID,
			Amount:        amount,
			FeeAmount:     feeAmount,
			OperationType: schema.OperationTypeTransfer,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	e.invalidateBalances(ctx, fromUserID, toUserID)
	return history, nil
}

// TransferItem reassigns an item from one user to another and charges the
// sender feeAmount through the ledger, all in one atomic unit.
func (e *Engine) TransferItem(ctx context.Context, itemID, fromOwnerID, toOwnerID uint64, feeAmount decimal.Decimal) (*schema.ItemTransferHistory, error) {
	if feeAmount.IsNegative() {
		return nil, fmt.Errorf("%w: fee amount must not be negative", domain.ErrInvalidOperation)
	}
	if fromOwnerID == toOwnerID {
		return nil, fmt.Errorf("%w: cannot transfer item to self", domain.ErrInvalidOperation)
	}

	var history *schema.ItemTransferHistory
	err := e.withConflictRetry(ctx, func() error {
		var err error
		history, err = e.store.TransferItem(ctx, store.ItemTransferInput{
			ItemID:      itemID,
			FromOwnerID: fromOwnerID,
			ToOwnerID:   toOwnerID,
			FeeAmount:   feeAmount,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	e.invalidateBalances(ctx, fromOwnerID, toOwnerID)
	e.cache.Delete(ctx, cache.ItemKey(itemID))
	return history, nil
}

// AdjustBalance directly credits or debits a single user's balance
func (e *Engine) AdjustBalance(ctx context.Context, userID uint64, delta decimal.Decimal) (*schema.Balance, *schema.BalanceTransferHistory, error) {
	if delta.IsZero() {
		return nil, nil, fmt.Errorf("%w: adjustment delta must not be zero", domain.ErrInvalidOperation)
	}

	var (
		balance *schema.Balance
		history *schema.BalanceTransferHistory
	)
	err := e.withConflictRetry(ctx, func() error {
		var err error
		balance, history, err = e.store.AdjustBalance(ctx, userID, delta)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	e.cache.Delete(ctx, cache.BalanceKey(userID), cache.BalanceHistoryKey(userID))
	return balance, history, nil
}

// GetBalance returns a user's balance, read through the cache
func (e *Engine) GetBalance(ctx context.Context, userID uint64) (*schema.Balance, error) {
	key := cache.BalanceKey(userID)

	var cached schema.Balance
	if e.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	balance, err := e.store.GetBalanceByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return nil, fmt.Errorf("%w: no balance for user %d", domain.ErrEntityNotFound, userID)
	}

	e.cache.Set(ctx, key, balance)
	return balance, nil
}

// GetBalanceHistory returns a user's transfer history, newest first, read
// through the cache
func (e *Engine) GetBalanceHistory(ctx context.Context, userID uint64) ([]schema.BalanceTransferHistory, error) {
	key := cache.BalanceHistoryKey(userID)

	var cached []schema.BalanceTransferHistory
	if e.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	history, err := e.store.ListTransferHistory(ctx, userID, e.historyLimit)
	if err != nil {
		return nil, err
	}

	e.cache.Set(ctx, key, history)
	return history, nil
}

// GetItem returns an item by id, read through the cache
func (e *Engine) GetItem(ctx context.Context, itemID uint64) (*schema.Item, error) {
	key := cache.ItemKey(itemID)

	var cached schema.Item
	if e.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	item, err := e.store.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: no item with id %d", domain.ErrEntityNotFound, itemID)
	}

	e.cache.Set(ctx, key, item)
	return item, nil
}

// CreateItem creates a new item instance
func (e *Engine) CreateItem(ctx context.Context, input store.CreateItemInput) (*schema.Item, error) {
	return e.store.CreateItem(ctx, input)
}

// SetItemEquipped flips an item's equip state
func (e *Engine) SetItemEquipped(ctx context.Context, itemID uint64, equipped bool) (*schema.Item, error) {
	var item *schema.Item
	err := e.withConflictRetry(ctx, func() error {
		var err error
		item, err = e.store.SetItemEquipped(ctx, itemID, equipped)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.cache.Delete(ctx, cache.ItemKey(itemID))
	return item, nil
}

// invalidateBalances drops the cache entries a committed transfer made stale:
// both balances plus the sender's history (history rows are keyed to the
// debited balance only).
func (e *Engine) invalidateBalances(ctx context.Context, fromUserID, toUserID uint64) {
	e.cache.Delete(ctx,
		cache.BalanceKey(fromUserID),
		cache.BalanceKey(toUserID),
		cache.BalanceHistoryKey(fromUserID),
	)
}
