package rest

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/playforge/gamebank/internal/api/rest/dto"
	"github.com/playforge/gamebank/internal/store"
	"github.com/playforge/gamebank/internal/store/schema"
)

// TransferEngine is the slice of the engine the REST handlers depend on.
// Declared here so handlers can be tested against a fake.
type TransferEngine interface {
	TransferBalance(ctx context.Context, fromUserID, toUserID uint64, amount, feeAmount decimal.Decimal) (*schema.BalanceTransferHistory, error)
	AdjustBalance(ctx context.Context, userID uint64, delta decimal.Decimal) (*schema.Balance, *schema.BalanceTransferHistory, error)
	GetBalance(ctx context.Context, userID uint64) (*schema.Balance, error)
	GetBalanceHistory(ctx context.Context, userID uint64) ([]schema.BalanceTransferHistory, error)
	CreateItem(ctx context.Context, input store.CreateItemInput) (*schema.Item, error)
	GetItem(ctx context.Context, itemID uint64) (*schema.Item, error)
	SetItemEquipped(ctx context.Context, itemID uint64, equipped bool) (*schema.Item, error)
	TransferItem(ctx context.Context, itemID, fromOwnerID, toOwnerID uint64, feeAmount decimal.Decimal) (*schema.ItemTransferHistory, error)
}

// Handler defines the interface for REST API handlers
type Handler interface {
	// TransferBalance moves funds between two users
	// POST /api/v1/balances/transfer
	TransferBalance(c *gin.Context)

	// AdjustBalance credits or debits a single user's balance
	// PATCH /api/v1/balances/adjust
	AdjustBalance(c *gin.Context)

	// GetBalance retrieves a user's balance
	// GET /api/v1/balances/:user_id
	GetBalance(c *gin.Context)

	// GetBalanceHistory retrieves a user's transfer history, newest first
	// GET /api/v1/balances/:user_id/history
	GetBalanceHistory(c *gin.Context)

	// CreateItem creates a new item instance
	// POST /api/v1/items
	CreateItem(c *gin.Context)

	// GetItem retrieves a single item by its ID
	// GET /api/v1/items/:item_id
	GetItem(c *gin.Context)

	// EquipItem flips an item's equip state
	// PATCH /api/v1/items/equip
	EquipItem(c *gin.Context)

	// TransferItem reassigns an item between users, charging a fee
	// POST /api/v1/items/transfer
	TransferItem(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	engine TransferEngine
}

// NewHandler creates a new REST API handler over the transfer engine
func NewHandler(engine TransferEngine) Handler {
	return &handler{engine: engine}
}

// TransferBalance moves funds between two users
func (h *handler) TransferBalance(c *gin.Context) {
	var req dto.TransferBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	history, err := h.engine.TransferBalance(c.Request.Context(),
		req.FromUserID, req.ToUserID, req.Amount, req.FeeAmount)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MapBalanceTransferHistory(history))
}

// AdjustBalance credits or debits a single user's balance
func (h *handler) AdjustBalance(c *gin.Context) {
	var req dto.AdjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	balance, _, err := h.engine.AdjustBalance(c.Request.Context(), req.UserID, req.Amount)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MapBalance(balance))
}

// GetBalance retrieves a user's balance
func (h *handler) GetBalance(c *gin.Context) {
	userID, err := parseIDParam(c, "user_id")
	if err != nil {
		respondBadRequest(c, "Invalid user ID", err.Error())
		return
	}

	balance, err := h.engine.GetBalance(c.Request.Context(), userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MapBalance(balance))
}

// GetBalanceHistory retrieves a user's transfer history
func (h *handler) GetBalanceHistory(c *gin.Context) {
	userID, err := parseIDParam(c, "user_id")
	if err != nil {
		respondBadRequest(c, "Invalid user ID", err.Error())
		return
	}

	history, err := h.engine.GetBalanceHistory(c.Request.Context(), userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MapBalanceTransferHistories(history))
}

// CreateItem creates a new item instance
func (h *handler) CreateItem(c *gin.Context) {
	var req dto.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	item, err := h.engine.CreateItem(c.Request.Context(), store.CreateItemInput{
		TypeID:      req.TypeID,
		CharacterID: req.CharacterID,
		OwnerID:     req.OwnerID,
		Attributes:  req.Attributes,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.MapItem(item))
}

// GetItem retrieves a single item by its ID
func (h *handler) GetItem(c *gin.Context) {
	itemID, err := parseIDParam(c, "item_id")
	if err != nil {
		respondBadRequest(c, "Invalid item ID", err.Error())
		return
	}

	item, err := h.engine.GetItem(c.Request.Context(), itemID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MapItem(item))
}

// EquipItem flips an item's equip state
func (h *handler) EquipItem(c *gin.Context) {
	var req dto.EquipItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	item, err := h.engine.SetItemEquipped(c.Request.Context(), req.ItemID, req.IsEquipped)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MapItem(item))
}

// TransferItem reassigns an item between users
func (h *handler) TransferItem(c *gin.Context) {
	var req dto.TransferItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	history, err := h.engine.TransferItem(c.Request.Context(),
		req.ItemID, req.FromOwnerID, req.ToOwnerID, req.FeeAmount)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MapItemTransferHistory(history))
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func parseIDParam(c *gin.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}
