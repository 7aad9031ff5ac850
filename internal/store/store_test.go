package store

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/playforge/gamebank/internal/domain"
	"github.com/playforge/gamebank/internal/store/schema"
)

// userSeq makes seeded usernames unique across the whole test binary, so the
// committed-state tests can share one database with the rolled-back ones.
var userSeq atomic.Uint64

// =============================================================================
// Test Data Builders
// =============================================================================

// seedUser creates a user account with a unique username
func seedUser(t *testing.T, store Store) *schema.User {
	t.Helper()
	n := userSeq.Add(1)
	user, err := store.CreateUser(context.Background(),
		fmt.Sprintf("player%d", n),
		fmt.Sprintf("player%d@example.com", n),
		"$2a$10$abcdefghijklmnopqrstuv")
	require.NoError(t, err)
	return user
}

// seedUserWithBalance creates a user and their balance row in one go
func seedUserWithBalance(t *testing.T, store Store, amount string) *schema.User {
	t.Helper()
	user := seedUser(t, store)
	_, err := store.CreateBalance(context.Background(), user.ID, decimal.RequireFromString(amount))
	require.NoError(t, err)
	return user
}

// seedItem creates an item type and an item owned by the given user
func seedItem(t *testing.T, store Store, ownerID uint64) *schema.Item {
	t.Helper()
	ctx := context.Background()
	itemType, err := store.CreateItemType(ctx, fmt.Sprintf("Iron Sword %d", userSeq.Add(1)), "weapon", "common", "A plain iron sword")
	require.NoError(t, err)

	item, err := store.CreateItem(ctx, CreateItemInput{
		TypeID:     itemType.ID,
		OwnerID:    &ownerID,
		Attributes: datatypes.JSON([]byte(`{"damage": 12}`)),
	})
	require.NoError(t, err)
	return item
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// =============================================================================
// Test: ApplyTransfer
// =============================================================================

func testApplyTransfer(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("successful transfer debits sender, credits receiver, burns fee", func(t *testing.T) {
		sender := seedUserWithBalance(t, store, "100.00")
		receiver := seedUserWithBalance(t, store, "10.00")

		history, err := store.ApplyTransfer(ctx, TransferInput{
			FromUserID: sender.ID,
			ToUserID:   receiver.ID,
			Amount:     dec("40.00"),
			FeeAmount:  dec("5.00"),
		})
		require.NoError(t, err)
		require.NotNil(t, history)

		// History row records the sender's committed before/after amounts
		assert.True(t, dec("40.00").Equal(history.Amount), "amount = %s", history.Amount)
		assert.True(t, dec("100.00").Equal(history.BalanceBefore), "balance_before = %s", history.BalanceBefore)
		assert.True(t, dec("55.00").Equal(history.BalanceAfter), "balance_after = %s", history.BalanceAfter)
		assert.Equal(t, schema.OperationTypeTransfer, history.OperationType)

		// Sender lost amount + fee
		senderBalance, err := store.GetBalanceByUserID(ctx, sender.ID)
		require.NoError(t, err)
		assert.True(t, dec("55.00").Equal(senderBalance.Amount), "sender = %s", senderBalance.Amount)

		// Receiver gained the amount only; the fee is burned
		receiverBalance, err := store.GetBalanceByUserID(ctx, receiver.ID)
		require.NoError(t, err)
		assert.True(t, dec("50.00").Equal(receiverBalance.Amount), "receiver = %s", receiverBalance.Amount)
	})

	t.Run("self transfer is rejected and mints nothing", func(t *testing.T) {
		sender := seedUserWithBalance(t, store, "100.00")

		_, err := store.ApplyTransfer(ctx, TransferInput{
			FromUserID: sender.ID,
			ToUserID:   sender.ID,
			Amount:     dec("40.00"),
			FeeAmount:  dec("5.00"),
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidOperation)

		balance, err := store.GetBalanceByUserID(ctx, sender.ID)
		require.NoError(t, err)
		assert.True(t, dec("100.00").Equal(balance.Amount), "balance must be untouched, got %s", balance.Amount)
	})

	t.Run("exact-cover transfer drains the sender to zero", func(t *testing.T) {
		sender := seedUserWithBalance(t, store, "45.00")
		receiver := seedUserWithBalance(t, store, "0.00")

		history, err := store.ApplyTransfer(ctx, TransferInput{
			FromUserID: sender.ID,
			ToUserID:   receiver.ID,
			Amount:     dec("40.00"),
			FeeAmount:  dec("5.00"),
		})
		require.NoError(t, err)
		assert.True(t, history.BalanceAfter.IsZero(), "balance_after = %s", history.BalanceAfter)

		senderBalance, err := store.GetBalanceByUserID(ctx, sender.ID)
		require.NoError(t, err)
		assert.True(t, senderBalance.Amount.IsZero())
	})

	t.Run("insufficient funds including fee rejects the transfer", func(t *testing.T) {
		// 44.99 cannot cover 40 + 5
		sender := seedUserWithBalance(t, store, "44.99")
		receiver := seedUserWithBalance(t, store, "10.00")

		_, err := store.ApplyTransfer(ctx, TransferInput{
			FromUserID: sender.ID,
			ToUserID:   receiver.ID,
			Amount:     dec("40.00"),
			FeeAmount:  dec("5.00"),
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

		// Neither balance moved
		senderBalance, err := store.GetBalanceByUserID(ctx, sender.ID)
		require.NoError(t, err)
		assert.True(t, dec("44.99").Equal(senderBalance.Amount))

		receiverBalance, err := store.GetBalanceByUserID(ctx, receiver.ID)
		require.NoError(t, err)
		assert.True(t, dec("10.00").Equal(receiverBalance.Amount))

		// No history row was written
		history, err := store.ListTransferHistory(ctx, sender.ID, 10)
		require.NoError(t, err)
		assert.Len(t, history, 0)
	})

	t.Run("transfer to a user without a balance fails", func(t *testing.T) {
		sender := seedUserWithBalance(t, store, "100.00")
		receiver := seedUser(t, store)

		_, err := store.ApplyTransfer(ctx, TransferInput{
			FromUserID: sender.ID,
			ToUserID:   receiver.ID,
			Amount:     dec("10.00"),
			FeeAmount:  dec("0.00"),
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrEntityNotFound)
	})

	t.Run("zero fee transfer moves the exact amount", func(t *testing.T) {
		sender := seedUserWithBalance(t, store, "30.00")
		receiver := seedUserWithBalance(t, store, "0.00")

		history, err := store.ApplyTransfer(ctx, TransferInput{
			FromUserID: sender.ID,
			ToUserID:   receiver.ID,
			Amount:     dec("30.00"),
			FeeAmount:  dec("0.00"),
		})
		require.NoError(t, err)
		assert.True(t, history.BalanceAfter.IsZero())

		receiverBalance, err := store.GetBalanceByUserID(ctx, receiver.ID)
		require.NoError(t, err)
		assert.True(t, dec("30.00").Equal(receiverBalance.Amount))
	})
}

// =============================================================================
// Test: AdjustBalance
// =============================================================================

func testAdjustBalance(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("positive delta records a deposit", func(t *testing.T) {
		user := seedUserWithBalance(t, store, "10.00")

		balance, history, err := store.AdjustBalance(ctx, user.ID, dec("25.50"))
		require.NoError(t, err)
		assert.True(t, dec("35.50").Equal(balance.Amount))
		assert.Equal(t, schema.OperationTypeDeposit, history.OperationType)
		assert.True(t, dec("25.50").Equal(history.Amount))
		assert.True(t, dec("10.00").Equal(history.BalanceBefore))
		assert.True(t, dec("35.50").Equal(history.BalanceAfter))
	})

	t.Run("negative delta records a withdrawal", func(t *testing.T) {
		user := seedUserWithBalance(t, store, "50.00")

		balance, history, err := store.AdjustBalance(ctx, user.ID, dec("-20.00"))
		require.NoError(t, err)
		assert.True(t, dec("30.00").Equal(balance.Amount))
		assert.Equal(t, schema.OperationTypeWithdrawal, history.OperationType)
		assert.True(t, dec("20.00").Equal(history.Amount), "history amount is the absolute delta")
	})

	t.Run("overdraw is rejected", func(t *testing.T) {
		user := seedUserWithBalance(t, store, "5.00")

		_, _, err := store.AdjustBalance(ctx, user.ID, dec("-5.01"))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

		balance, err := store.GetBalanceByUserID(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, dec("5.00").Equal(balance.Amount))
	})

	t.Run("adjusting a missing balance fails", func(t *testing.T) {
		user := seedUser(t, store)

		_, _, err := store.AdjustBalance(ctx, user.ID, dec("10.00"))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrEntityNotFound)
	})
}

// =============================================================================
// Test: ListTransferHistory
// =============================================================================

func testListTransferHistory(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("returns rows newest first with limit", func(t *testing.T) {
		user := seedUserWithBalance(t, store, "100.00")

		for _, delta := range []string{"1.00", "2.00", "3.00", "4.00"} {
			_, _, err := store.AdjustBalance(ctx, user.ID, dec(delta))
			require.NoError(t, err)
		}

		history, err := store.ListTransferHistory(ctx, user.ID, 3)
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.True(t, dec("4.00").Equal(history[0].Amount))
		assert.True(t, dec("3.00").Equal(history[1].Amount))
		assert.True(t, dec("2.00").Equal(history[2].Amount))
	})

	t.Run("sender sees the transfer row, receiver does not", func(t *testing.T) {
		sender := seedUserWithBalance(t, store, "100.00")
		receiver := seedUserWithBalance(t, store, "0.00")

		_, err := store.ApplyTransfer(ctx, TransferInput{
			FromUserID: sender.ID,
			ToUserID:   receiver.ID,
			Amount:     dec("10.00"),
			FeeAmount:  dec("1.00"),
		})
		require.NoError(t, err)

		senderHistory, err := store.ListTransferHistory(ctx, sender.ID, 10)
		require.NoError(t, err)
		assert.Len(t, senderHistory, 1)

		receiverHistory, err := store.ListTransferHistory(ctx, receiver.ID, 10)
		require.NoError(t, err)
		assert.Len(t, receiverHistory, 0)
	})

	t.Run("listing for a user without a balance fails", func(t *testing.T) {
		user := seedUser(t, store)

		_, err := store.ListTransferHistory(ctx, user.ID, 10)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrEntityNotFound)
	})
}

// =============================================================================
// Test: Items
// =============================================================================

func testItems(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("create and fetch an item", func(t *testing.T) {
		owner := seedUser(t, store)
		item := seedItem(t, store, owner.ID)

		fetched, err := store.GetItemByID(ctx, item.ID)
		require.NoError(t, err)
		require.NotNil(t, fetched)
		assert.Equal(t, item.ID, fetched.ID)
		require.NotNil(t, fetched.OwnerID)
		assert.Equal(t, owner.ID, *fetched.OwnerID)
		assert.False(t, fetched.IsEquipped)
		assert.JSONEq(t, `{"damage": 12}`, string(fetched.Attributes))
	})

	t.Run("fetching a missing item returns nil", func(t *testing.T) {
		item, err := store.GetItemByID(ctx, 999999999)
		require.NoError(t, err)
		assert.Nil(t, item)
	})

	t.Run("equip and unequip", func(t *testing.T) {
		owner := seedUser(t, store)
		item := seedItem(t, store, owner.ID)

		equipped, err := store.SetItemEquipped(ctx, item.ID, true)
		require.NoError(t, err)
		assert.True(t, equipped.IsEquipped)

		// Setting the same state again is a no-op
		equipped, err = store.SetItemEquipped(ctx, item.ID, true)
		require.NoError(t, err)
		assert.True(t, equipped.IsEquipped)

		unequipped, err := store.SetItemEquipped(ctx, item.ID, false)
		require.NoError(t, err)
		assert.False(t, unequipped.IsEquipped)
	})

	t.Run("equipping a missing item fails", func(t *testing.T) {
		_, err := store.SetItemEquipped(ctx, 999999999, true)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrEntityNotFound)
	})
}

// =============================================================================
// Test: TransferItem
// =============================================================================

func testTransferItem(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("successful transfer reassigns ownership and charges the fee", func(t *testing.T) {
		sender := seedUserWithBalance(t, store, "50.00")
		receiver := seedUserWithBalance(t, store, "10.00")
		item := seedItem(t, store, sender.ID)

		history, err := store.TransferItem(ctx, ItemTransferInput{
			ItemID:      item.ID,
			FromOwnerID: sender.ID,
			ToOwnerID:   receiver.ID,
			FeeAmount:   dec("5.00"),
		})
		require.NoError(t, err)
		require.NotNil(t, history)
		assert.Equal(t, item.ID, history.ItemID)
		assert.Equal(t, sender.ID, history.FromOwnerID)
		assert.Equal(t, receiver.ID, history.ToOwnerID)
		assert.True(t, dec("5.00").Equal(history.FeeAmount))
		assert.NotZero(t, history.BalanceTransferHistoryID)

		// Ownership moved
		transferred, err := store.GetItemByID(ctx, item.ID)
		require.NoError(t, err)
		require.NotNil(t, transferred.OwnerID)
		assert.Equal(t, receiver.ID, *transferred.OwnerID)

		// Fee debited from sender, receiver untouched
		senderBalance, err := store.GetBalanceByUserID(ctx, sender.ID)
		require.NoError(t, err)
		assert.True(t, dec("45.00").Equal(senderBalance.Amount))

		receiverBalance, err := store.GetBalanceByUserID(ctx, receiver.ID)
		require.NoError(t, err)
		assert.True(t, dec("10.00").Equal(receiverBalance.Amount))

		// The fee leg is a zero-amount item_transfer row linked from the item history
		senderHistory, err := store.ListTransferHistory(ctx, sender.ID, 10)
		require.NoError(t, err)
		require.Len(t, senderHistory, 1)
		assert.Equal(t, history.BalanceTransferHistoryID, senderHistory[0].ID)
		assert.Equal(t, schema.OperationTypeItemTransfer, senderHistory[0].OperationType)
		assert.True(t, senderHistory[0].Amount.IsZero())
		assert.True(t, dec("50.00").Equal(senderHistory[0].BalanceBefore))
		assert.True(t, dec("45.00").Equal(senderHistory[0].BalanceAfter))
	})

	t.Run("ownership mismatch rejects the transfer and rolls everything back", func(t *testing.T) {
		realOwner := seedUserWithBalance(t, store, "50.00")
		impostor := seedUserWithBalance(t, store, "50.00")
		receiver := seedUserWithBalance(t, store, "10.00")
		item := seedItem(t, store, realOwner.ID)

		_, err := store.TransferItem(ctx, ItemTransferInput{
			ItemID:      item.ID,
			FromOwnerID: impostor.ID,
			ToOwnerID:   receiver.ID,
			FeeAmount:   dec("5.00"),
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrOwnershipMismatch)

		// Item still belongs to the real owner
		unmoved, err := store.GetItemByID(ctx, item.ID)
		require.NoError(t, err)
		require.NotNil(t, unmoved.OwnerID)
		assert.Equal(t, realOwner.ID, *unmoved.OwnerID)

		// No balance was touched
		impostorBalance, err := store.GetBalanceByUserID(ctx, impostor.ID)
		require.NoError(t, err)
		assert.True(t, dec("50.00").Equal(impostorBalance.Amount))
	})

	t.Run("insufficient fee funds rolls back the ownership change", func(t *testing.T) {
		sender := seedUserWithBalance(t, store, "4.99")
		receiver := seedUserWithBalance(t, store, "10.00")
		item := seedItem(t, store, sender.ID)

		_, err := store.TransferItem(ctx, ItemTransferInput{
			ItemID:      item.ID,
			FromOwnerID: sender.ID,
			ToOwnerID:   receiver.ID,
			FeeAmount:   dec("5.00"),
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

		// The in-transaction owner update must have been rolled back with the fee
		unmoved, err := store.GetItemByID(ctx, item.ID)
		require.NoError(t, err)
		require.NotNil(t, unmoved.OwnerID)
		assert.Equal(t, sender.ID, *unmoved.OwnerID)

		senderBalance, err := store.GetBalanceByUserID(ctx, sender.ID)
		require.NoError(t, err)
		assert.True(t, dec("4.99").Equal(senderBalance.Amount))

		// No audit rows leaked out of the aborted transaction
		history, err := store.ListTransferHistory(ctx, sender.ID, 10)
		require.NoError(t, err)
		assert.Len(t, history, 0)
	})

	t.Run("transferring a missing item fails", func(t *testing.T) {
		sender := seedUserWithBalance(t, store, "50.00")
		receiver := seedUserWithBalance(t, store, "10.00")

		_, err := store.TransferItem(ctx, ItemTransferInput{
			ItemID:      999999999,
			FromOwnerID: sender.ID,
			ToOwnerID:   receiver.ID,
			FeeAmount:   dec("1.00"),
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrEntityNotFound)
	})

	t.Run("zero fee transfer still writes both audit rows", func(t *testing.T) {
		sender := seedUserWithBalance(t, store, "20.00")
		receiver := seedUserWithBalance(t, store, "20.00")
		item := seedItem(t, store, sender.ID)

		history, err := store.TransferItem(ctx, ItemTransferInput{
			ItemID:      item.ID,
			FromOwnerID: sender.ID,
			ToOwnerID:   receiver.ID,
			FeeAmount:   dec("0.00"),
		})
		require.NoError(t, err)
		assert.True(t, history.FeeAmount.IsZero())

		senderHistory, err := store.ListTransferHistory(ctx, sender.ID, 10)
		require.NoError(t, err)
		require.Len(t, senderHistory, 1)
		assert.True(t, senderHistory[0].BalanceBefore.Equal(senderHistory[0].BalanceAfter))
	})
}

// =============================================================================
// Test: Balances
// =============================================================================

func testBalances(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("create and fetch a balance", func(t *testing.T) {
		user := seedUser(t, store)

		created, err := store.CreateBalance(ctx, user.ID, dec("12.34"))
		require.NoError(t, err)
		assert.Equal(t, user.ID, created.UserID)

		fetched, err := store.GetBalanceByUserID(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, fetched)
		assert.True(t, dec("12.34").Equal(fetched.Amount))
	})

	t.Run("fetching a missing balance returns nil", func(t *testing.T) {
		balance, err := store.GetBalanceByUserID(ctx, 999999999)
		require.NoError(t, err)
		assert.Nil(t, balance)
	})

	t.Run("negative initial amount is rejected", func(t *testing.T) {
		user := seedUser(t, store)

		_, err := store.CreateBalance(ctx, user.ID, dec("-1.00"))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidOperation)
	})
}

// RunStoreTests runs the full store suite against an implementation, calling
// initDB before and cleanupDB after each group.
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(t *testing.T, store Store)
	}{
		{"Balances", testBalances},
		{"ApplyTransfer", testApplyTransfer},
		{"AdjustBalance", testAdjustBalance},
		{"ListTransferHistory", testListTransferHistory},
		{"Items", testItems},
		{"TransferItem", testTransferItem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}
