// Package dto defines the REST request and response shapes and their mapping
// from the storage schema.
package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/playforge/gamebank/internal/store/schema"
)

// TransferBalanceRequest is the body of POST /balances/transfer
type TransferBalanceRequest struct {
	FromUserID uint64          `json:"from_user_id" binding:"required"`
	ToUserID   uint64          `json:"to_user_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	FeeAmount  decimal.Decimal `json:"fee_amount"`
}

// AdjustBalanceRequest is the body of PATCH /balances/adjust
type AdjustBalanceRequest struct {
	UserID uint64          `json:"user_id" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// CreateItemRequest is the body of POST /items
type CreateItemRequest struct {
	TypeID      uint64         `json:"type_id" binding:"required"`
	CharacterID *uint64        `json:"character_id"`
	OwnerID     *uint64        `json:"owner_id"`
	Attributes  datatypes.JSON `json:"attributes"`
}

// EquipItemRequest is the body of PATCH /items/equip
type EquipItemRequest struct {
	ItemID     uint64 `json:"item_id" binding:"required"`
	IsEquipped bool   `json:"is_equipped"`
}

// TransferItemRequest is the body of POST /items/transfer
type TransferItemRequest struct {
	ItemID      uint64          `json:"item_id" binding:"required"`
	FromOwnerID uint64          `json:"from_owner_id" binding:"required"`
	ToOwnerID   uint64          `json:"to_owner_id" binding:"required"`
	FeeAmount   decimal.Decimal `json:"fee_amount"`
}

// BalanceResponse mirrors one balance row
type BalanceResponse struct {
	ID        uint64          `json:"id"`
	UserID    uint64          `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// BalanceTransferHistoryResponse mirrors one ledger audit row
type BalanceTransferHistoryResponse struct {
	ID            uint64               `json:"id"`
	BalanceID     uint64               `json:"balance_id"`
	Amount        decimal.Decimal      `json:"amount"`
	BalanceBefore decimal.Decimal      `json:"balance_before"`
	BalanceAfter  decimal.Decimal      `json:"balance_after"`
	OperationType schema.OperationType `json:"operation_type"`
	CreatedAt     time.Time            `json:"created_at"`
}

// ItemResponse mirrors one item row
type ItemResponse struct {
	ID          uint64         `json:"id"`
	TypeID      uint64         `json:"type_id"`
	CharacterID *uint64        `json:"character_id,omitempty"`
	OwnerID     *uint64        `json:"owner_id,omitempty"`
	IsEquipped  bool           `json:"is_equipped"`
	Attributes  datatypes.JSON `json:"attributes,omitempty"`
}

// ItemTransferHistoryResponse mirrors one ownership audit row
type ItemTransferHistoryResponse struct {
	ID                       uint64          `json:"id"`
	ItemID                   uint64          `json:"item_id"`
	FromOwnerID              uint64          `json:"from_owner_id"`
	ToOwnerID                uint64          `json:"to_owner_id"`
	FeeAmount                decimal.Decimal `json:"fee_amount"`
	BalanceTransferHistoryID uint64          `json:"balance_transfer_history_id"`
	CreatedAt                time.Time       `json:"created_at"`
}

// MapBalance maps a balance row to its response shape
func MapBalance(b *schema.Balance) *BalanceResponse {
	return &BalanceResponse{
		ID:        b.ID,
		UserID:    b.UserID,
		Amount:    b.Amount,
		UpdatedAt: b.UpdatedAt,
	}
}

// MapBalanceTransferHistory maps a ledger audit row to its response shape
func MapBalanceTransferHistory(h *schema.BalanceTransferHistory) *BalanceTransferHistoryResponse {
	return &BalanceTransferHistoryResponse{
		ID:            h.ID,
		BalanceID:     h.BalanceID,
		Amount:        h.Amount,
		BalanceBefore: h.BalanceBefore,
		BalanceAfter:  h.BalanceAfter,
		OperationType: h.OperationType,
		CreatedAt:     h.CreatedAt,
	}
}

// MapBalanceTransferHistories maps a history listing, preserving order
func MapBalanceTransferHistories(rows []schema.BalanceTransferHistory) []BalanceTransferHistoryResponse {
	out := make([]BalanceTransferHistoryResponse, 0, len(rows))
	for i := range rows {
		out = append(out, *MapBalanceTransferHistory(&rows[i]))
	}
	return out
}

// MapItem maps an item row to its response shape
func MapItem(item *schema.Item) *ItemResponse {
	return &ItemResponse{
		ID:          item.ID,
		TypeID:      item.TypeID,
		CharacterID: item.CharacterID,
		OwnerID:     item.OwnerID,
		IsEquipped:  item.IsEquipped,
		Attributes:  item.Attributes,
	}
}

// MapItemTransferHistory maps an ownership audit row to its response shape
func MapItemTransferHistory(h *schema.ItemTransferHistory) *ItemTransferHistoryResponse {
	return &ItemTransferHistoryResponse{
		ID:                       h.ID,
		ItemID:                   h.ItemID,
		FromOwnerID:              h.FromOwnerID,
		ToOwnerID:                h.ToOwnerID,
		FeeAmount:                h.FeeAmount,
		BalanceTransferHistoryID: h.BalanceTransferHistoryID,
		CreatedAt:                h.CreatedAt,
	}
}
