package dto

import (
	"time"

	"mise/internal/core/types"
)

// --- Stock counts ---

// CreateStockCountRequest opens a draft count for a location.
type CreateStockCountRequest struct {
	LocationID string     `json:"locationId" binding:"required,uuid"`
	Date       *time.Time `json:"date"`
	Note       string     `json:"note"`
}

// AddCountLineRequest adds a product, optionally one lot of it, to a
// draft count.
type AddCountLineRequest struct {
	ProductID string  `json:"productId" binding:"required,uuid"`
	LotID     *string `json:"lotId"`
}

// RecordCountRequest records the physically counted quantity for a line.
type RecordCountRequest struct {
	LineNo int            `json:"lineNo" binding:"required,min=1"`
	Qty    types.Quantity `json:"qty"`
}

// --- Orders ---

// CreateOrderRequest opens a POS order.
type CreateOrderRequest struct {
	LocationID string `json:"locationId" binding:"required,uuid"`
	Note       string `json:"note"`
}

// AddOrderItemRequest adds a sellable item to an open order.
type AddOrderItemRequest struct {
	ProductID string         `json:"productId" binding:"required,uuid"`
	Qty       types.Quantity `json:"qty"`
	UnitPrice types.Money    `json:"unitPrice"`
}

// SetItemPrepStatusRequest moves one order item through the kitchen flow.
type SetItemPrepStatusRequest struct {
	LineNo int    `json:"lineNo" binding:"required,min=1"`
	Status string `json:"status" binding:"required"`
}

// --- Waste records ---

// CreateWasteRequest opens a draft waste record.
type CreateWasteRequest struct {
	LocationID string `json:"locationId" binding:"required,uuid"`
	Reason     string `json:"reason" binding:"required"`
	Note       string `json:"note"`
}

// AddWasteLineRequest adds a wasted product.
type AddWasteLineRequest struct {
	ProductID string         `json:"productId" binding:"required,uuid"`
	Qty       types.Quantity `json:"qty"`
	Note      string         `json:"note"`
}

// --- Goods receipts ---

// CreateReceiptRequest opens a draft goods receipt.
type CreateReceiptRequest struct {
	LocationID  string `json:"locationId" binding:"required,uuid"`
	SupplierRef string `json:"supplierRef"`
	Note        string `json:"note"`
}

// AddReceiptLineRequest adds a received product with its cost.
type AddReceiptLineRequest struct {
	ProductID string         `json:"productId" binding:"required,uuid"`
	Qty       types.Quantity `json:"qty"`
	UnitCost  types.Money    `json:"unitCost"`
	LotID     *string        `json:"lotId"`
}

// --- Ledger ---

// OnHandQuery asks for current balances at a location.
type OnHandQuery struct {
	LocationID string   `form:"locationId" binding:"required,uuid"`
	ProductIDs []string `form:"productIds" binding:"required,min=1"`
}

// OnHandResponse is one product balance.
type OnHandResponse struct {
	ProductID string         `json:"productId"`
	OnHand    types.Quantity `json:"onHand"`
}

// LedgerHistoryQuery filters ledger entry history for one product,
// optionally narrowed to one lot.
type LedgerHistoryQuery struct {
	LocationID string     `form:"locationId" binding:"required,uuid"`
	ProductID  string     `form:"productId" binding:"required,uuid"`
	LotID      *string    `form:"lotId" binding:"omitempty,uuid"`
	Type       *string    `form:"type"`
	FromDate   *time.Time `form:"fromDate" time_format:"2006-01-02"`
	ToDate     *time.Time `form:"toDate" time_format:"2006-01-02"`
	Limit      int        `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset     int        `form:"offset" binding:"omitempty,min=0"`
}
